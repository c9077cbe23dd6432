// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"fmt"

	"crmsync-service/internal/domain/customer"
	xerrors "crmsync-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `
	id, first_name, last_name, email, phone, gender, custom_attributes_xml,
	billing_address_id, shipping_address_id, created_at, updated_at`

// FindByID retrieves a customer by ID
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var c customer.Customer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Gender, &c.CustomAttributesXML,
		&c.BillingAddressID, &c.ShippingAddressID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "customer", id)
	}

	return &c, nil
}

// UpdateNames stores first and last name filled in from an address
func (r *CustomerRepository) UpdateNames(ctx context.Context, id int64, firstName, lastName string) error {
	query := `
		UPDATE customers
		SET first_name = $2, last_name = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, firstName, lastName)
	if err != nil {
		return fmt.Errorf("failed to update customer names: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, xerrors.ErrNotFound)
	}

	return nil
}

// UpdateCustomAttributes replaces the custom attribute XML blob
func (r *CustomerRepository) UpdateCustomAttributes(ctx context.Context, id int64, xml string) error {
	query := `
		UPDATE customers
		SET custom_attributes_xml = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, xml)
	if err != nil {
		return fmt.Errorf("failed to update customer attributes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer %d: %w", id, xerrors.ErrNotFound)
	}

	return nil
}
