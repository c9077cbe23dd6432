// internal/domain/salesforce/dto.go
package salesforce

import (
	"github.com/shopspring/decimal"
)

// Amount is a decimal the CRM receives as a JSON number rather than a string.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// NullAmount is an Amount that marshals to null when unset.
type NullAmount struct {
	decimal.NullDecimal
}

func NewNullAmount(d decimal.Decimal) NullAmount {
	return NullAmount{NullDecimal: decimal.NewNullDecimal(d)}
}

func (a NullAmount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// ========== Contact upsert ==========

type ContactUpsertRequest struct {
	Contacts []Contact `json:"Contacts"`
}

type Contact struct {
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	EmailID           string  `json:"email_id"`
	Password          *string `json:"password"`
	Mobile            string  `json:"mobile"`
	State             *string `json:"state"`
	City              *string `json:"city"`
	Address           *string `json:"address"`
	Pincode           *string `json:"pincode"`
	Country           *string `json:"country"`
	Gender            *string `json:"gender"`
	OAuthProvider     *string `json:"oauth_provider"`
	OAuthUID          *string `json:"oauth_uid"`
	SFDCContactNumber *string `json:"SFDC_Contact_Number"`
}

// ========== Order ==========

type OrderRequest struct {
	OrderWrapper *OrderComponents `json:"OrderWrapper"`
}

type OrderComponents struct {
	BillingAddress  *Address    `json:"billing_address"`
	ShippingAddress *Address    `json:"shipping_address"`
	Ord             *Order      `json:"Ord"`
	OrdLine         []OrderLine `json:"OrdLine"`
}

type Address struct {
	Street        string  `json:"street"`
	Street2       string  `json:"street2"`
	Street3       string  `json:"street3"`
	State         string  `json:"state"`
	PostalCode    string  `json:"postal_code"`
	PhoneNo       string  `json:"phone_no"`
	PhoneCode     string  `json:"phone_code"`
	Name          string  `json:"name"`
	Country       string  `json:"country"`
	City          string  `json:"city"`
	AddressSaveAs *string `json:"address_save_as"`
}

type Order struct {
	UserID          *string `json:"user_id"`
	TransactionID   string  `json:"transactionid"`
	OrderTotal      Amount  `json:"order_total"`
	OrderStatus     string  `json:"order_status"`
	OrderNumber     string  `json:"order_number"`
	OrderID         *string `json:"order_id"`
	OrderDate       string  `json:"order_date"`
	OrderCurrency   string  `json:"order_currency"`
	IsCancelled     *string `json:"is_cancelled"`
	DiscountPercent *Amount `json:"disc_Percent"`
	CancelReason    *string `json:"cancel_reson"`
}

type OrderLine struct {
	OrderID            string     `json:"order_id"`
	ProductID          string     `json:"product_id"`
	ProductName        string     `json:"product_name"`
	WeightInGram       NullAmount `json:"weight_in_gram"`
	Quantity           int        `json:"quantity"`
	ProductPrice       Amount     `json:"product_price"`
	DiscountPercentage Amount     `json:"disc_Percent"`
	DiscountAmount     Amount     `json:"disc_Amount"`
	OliTotal           Amount     `json:"oli_total"`
	ProductCurrency    string     `json:"product_currency"`
}
