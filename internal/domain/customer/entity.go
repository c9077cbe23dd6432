// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"strings"
	"time"
)

type Customer struct {
	ID        int64          `json:"id" db:"id"`
	FirstName sql.NullString `json:"first_name,omitempty" db:"first_name"`
	LastName  sql.NullString `json:"last_name,omitempty" db:"last_name"`
	Email     string         `json:"email" db:"email"`
	Phone     sql.NullString `json:"phone,omitempty" db:"phone"`
	Gender    sql.NullString `json:"gender,omitempty" db:"gender"`

	// Free-form attribute blob, may carry a legacy CRM contact number
	CustomAttributesXML sql.NullString `json:"-" db:"custom_attributes_xml"`

	BillingAddressID  sql.NullInt64 `json:"billing_address_id,omitempty" db:"billing_address_id"`
	ShippingAddressID sql.NullInt64 `json:"shipping_address_id,omitempty" db:"shipping_address_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasFullName reports whether both first and last name are set.
func (c *Customer) HasFullName() bool {
	return c.FirstName.Valid && c.FirstName.String != "" &&
		c.LastName.Valid && c.LastName.String != ""
}

// PreferredAddressID returns the billing address, falling back to shipping.
func (c *Customer) PreferredAddressID() (int64, bool) {
	if c.BillingAddressID.Valid {
		return c.BillingAddressID.Int64, true
	}
	if c.ShippingAddressID.Valid {
		return c.ShippingAddressID.Int64, true
	}
	return 0, false
}

type Address struct {
	ID            int64  `json:"id" db:"id"`
	FirstName     string `json:"first_name" db:"first_name"`
	LastName      string `json:"last_name" db:"last_name"`
	Email         string `json:"email" db:"email"`
	Address1      string `json:"address1" db:"address1"`
	Address2      string `json:"address2" db:"address2"`
	Address3      string `json:"address3" db:"address3"`
	City          string `json:"city" db:"city"`
	StateProvince string `json:"state_province" db:"state_province"`
	ZipPostalCode string `json:"zip_postal_code" db:"zip_postal_code"`
	PhoneNumber   string `json:"phone_number" db:"phone_number"`
	Country       string `json:"country" db:"country"`

	// Formatted custom attributes, e.g. "Save as: Home"
	CustomAttributes string `json:"custom_attributes" db:"custom_attributes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName joins first and last name the way the CRM expects it.
func (a *Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
