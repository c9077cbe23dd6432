// internal/repository/postgres/address_repo.go
package postgres

import (
	"context"

	"crmsync-service/internal/domain/customer"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AddressRepository struct {
	db *pgxpool.Pool
}

func NewAddressRepository(db *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{db: db}
}

const addressColumns = `
	a.id, a.first_name, a.last_name, a.email, a.address1, a.address2, a.address3,
	a.city, a.state_province, a.zip_postal_code, a.phone_number, a.country,
	a.custom_attributes, a.created_at`

func scanAddress(row pgx.Row) (*customer.Address, error) {
	var a customer.Address
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Address1, &a.Address2, &a.Address3,
		&a.City, &a.StateProvince, &a.ZipPostalCode, &a.PhoneNumber, &a.Country,
		&a.CustomAttributes, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByID retrieves an address by ID
func (r *AddressRepository) FindByID(ctx context.Context, id int64) (*customer.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses a WHERE a.id = $1`

	a, err := scanAddress(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "address", id)
	}
	return a, nil
}

// FindForCustomer retrieves an address only if it is linked to the customer
func (r *AddressRepository) FindForCustomer(ctx context.Context, customerID, addressID int64) (*customer.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses a
		JOIN customer_addresses ca ON ca.address_id = a.id
		WHERE ca.customer_id = $1 AND a.id = $2
	`

	a, err := scanAddress(r.db.QueryRow(ctx, query, customerID, addressID))
	if err != nil {
		return nil, notFound(err, "address", addressID)
	}
	return a, nil
}

// FindFirstByCustomer returns the oldest address linked to the customer
func (r *AddressRepository) FindFirstByCustomer(ctx context.Context, customerID int64) (*customer.Address, error) {
	query := `
		SELECT ` + addressColumns + `
		FROM addresses a
		JOIN customer_addresses ca ON ca.address_id = a.id
		WHERE ca.customer_id = $1
		ORDER BY a.id ASC
		LIMIT 1
	`

	a, err := scanAddress(r.db.QueryRow(ctx, query, customerID))
	if err != nil {
		return nil, notFound(err, "address for customer", customerID)
	}
	return a, nil
}
