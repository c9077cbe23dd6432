// internal/domain/order/entity.go
package order

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                int64         `json:"id" db:"id"`
	CustomerID        int64         `json:"customer_id" db:"customer_id"`
	BillingAddressID  int64         `json:"billing_address_id" db:"billing_address_id"`
	ShippingAddressID sql.NullInt64 `json:"shipping_address_id,omitempty" db:"shipping_address_id"`

	OrderSubtotalExclTax decimal.Decimal `json:"order_subtotal_excl_tax" db:"order_subtotal_excl_tax"`
	OrderTotal           decimal.Decimal `json:"order_total" db:"order_total"`
	CustomerCurrencyCode string          `json:"customer_currency_code" db:"customer_currency_code"`

	// Payment gateway transaction id captured at checkout
	PaymentTransactionID sql.NullString `json:"payment_transaction_id,omitempty" db:"payment_transaction_id"`
	// Legacy column the CRM order number used to be written to
	AuthorizationTransactionCode sql.NullString `json:"authorization_transaction_code,omitempty" db:"authorization_transaction_code"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ShippingOrBillingAddressID returns the shipping address, or billing when
// the order ships to its billing address.
func (o *Order) ShippingOrBillingAddressID() int64 {
	if o.ShippingAddressID.Valid {
		return o.ShippingAddressID.Int64
	}
	return o.BillingAddressID
}

type OrderItem struct {
	ID               int64           `json:"id" db:"id"`
	OrderID          int64           `json:"order_id" db:"order_id"`
	ProductID        int64           `json:"product_id" db:"product_id"`
	Quantity         int             `json:"quantity" db:"quantity"`
	UnitPriceExclTax decimal.Decimal `json:"unit_price_excl_tax" db:"unit_price_excl_tax"`
	PriceExclTax     decimal.Decimal `json:"price_excl_tax" db:"price_excl_tax"`
}
