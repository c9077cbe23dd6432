// internal/repository/postgres/order_repo.go
package postgres

import (
	"context"
	"fmt"

	"crmsync-service/internal/domain/order"
	xerrors "crmsync-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindByID retrieves an order header by ID
func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	query := `
		SELECT id, customer_id, billing_address_id, shipping_address_id,
		       order_subtotal_excl_tax, order_total, customer_currency_code,
		       payment_transaction_id, authorization_transaction_code, created_at
		FROM orders
		WHERE id = $1
	`

	var o order.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CustomerID, &o.BillingAddressID, &o.ShippingAddressID,
		&o.OrderSubtotalExclTax, &o.OrderTotal, &o.CustomerCurrencyCode,
		&o.PaymentTransactionID, &o.AuthorizationTransactionCode, &o.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "order", id)
	}

	return &o, nil
}

// FindItems returns the order lines in insertion order
func (r *OrderRepository) FindItems(ctx context.Context, orderID int64) ([]order.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price_excl_tax, price_excl_tax
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []order.OrderItem{}
	for rows.Next() {
		var it order.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPriceExclTax, &it.PriceExclTax,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// UpdateAuthorizationTransactionCode writes the CRM order number to the legacy column
func (r *OrderRepository) UpdateAuthorizationTransactionCode(ctx context.Context, id int64, code string) error {
	query := `UPDATE orders SET authorization_transaction_code = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, code)
	if err != nil {
		return fmt.Errorf("failed to update order authorization code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", id, xerrors.ErrNotFound)
	}

	return nil
}
