package salesforce

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crmsync-service/internal/domain/catalog"
	"crmsync-service/internal/domain/customer"
	"crmsync-service/internal/domain/order"
	"crmsync-service/internal/pkg/attributes"
)

func TestMapAddress(t *testing.T) {
	tests := []struct {
		name       string
		attrs      string
		wantSaveAs *string
		wantErr    error
	}{
		{name: "save as type", attrs: "Save as:  Office ", wantSaveAs: strPtr("Office")},
		{name: "no custom attributes", attrs: ""},
		{name: "missing separator", attrs: "Office", wantErr: attributes.ErrMalformedSaveAs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sampleAddress(3)
			a.Address3 = "Near temple"
			a.CustomAttributes = tt.attrs

			out, err := MapAddress(a)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "12 MG Road", out.Street)
			assert.Equal(t, "Flat 4", out.Street2)
			assert.Equal(t, "Near temple", out.Street3)
			assert.Equal(t, "Maharashtra", out.State)
			assert.Equal(t, "411001", out.PostalCode)
			assert.Equal(t, "9876543210", out.PhoneNo)
			assert.Equal(t, "Asha Rao", out.Name)
			assert.Equal(t, "India", out.Country)
			assert.Equal(t, tt.wantSaveAs, out.AddressSaveAs)
		})
	}
}

func TestMapOrder(t *testing.T) {
	o := &order.Order{
		ID:                   31,
		OrderSubtotalExclTax: decimal.RequireFromString("99.90"),
		OrderTotal:           decimal.RequireFromString("110.00"),
		CustomerCurrencyCode: "USD",
		CreatedAt:            time.Date(2023, 12, 31, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800)),
	}

	header := MapOrder(o, "")
	assert.Nil(t, header.UserID)
	assert.Equal(t, "", header.TransactionID)
	assert.True(t, header.OrderTotal.Equal(decimal.RequireFromString("99.9")))
	assert.Equal(t, "Booked", header.OrderStatus)
	assert.Equal(t, "31", header.OrderNumber)
	assert.Equal(t, "2023-12-31", header.OrderDate)
	require.NotNil(t, header.DiscountPercent)
	assert.True(t, header.DiscountPercent.IsZero())

	withUser := MapOrder(o, "CON1")
	require.NotNil(t, withUser.UserID)
	assert.Equal(t, "CON1", *withUser.UserID)
}

func TestProductWeight(t *testing.T) {
	tests := []struct {
		name    string
		attrs   []catalog.SpecificationAttribute
		want    string
		wantErr error
	}{
		{
			name:  "leading digits",
			attrs: []catalog.SpecificationAttribute{{Name: "Weight", Values: pq.StringArray{"250 grams"}}},
			want:  "250",
		},
		{
			name: "first non-empty weight wins",
			attrs: []catalog.SpecificationAttribute{
				{Name: "Weight", Values: pq.StringArray{""}},
				{Name: "Weight", Values: pq.StringArray{"1000g", "2kg"}},
			},
			want: "1000",
		},
		{
			name:    "no leading digits",
			attrs:   []catalog.SpecificationAttribute{{Name: "Weight", Values: pq.StringArray{"n/a"}}},
			wantErr: attributes.ErrNoNumericValue,
		},
		{
			name:    "no weight attribute",
			attrs:   []catalog.SpecificationAttribute{{Name: "Origin", Values: pq.StringArray{"Assam"}}},
			wantErr: ErrNoWeightAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ProductWeight(&catalog.Product{ID: 1, SpecificationAttributes: tt.attrs})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.String())
		})
	}
}

func TestMapOrderLines_MissingProduct(t *testing.T) {
	o := &order.Order{ID: 1, CustomerCurrencyCode: "INR"}
	items := []order.OrderItem{{ID: 5, OrderID: 1, ProductID: 77, Quantity: 1}}

	_, err := MapOrderLines(o, items, map[int64]*catalog.Product{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingProduct)
}

func TestBuildContact(t *testing.T) {
	c := &customer.Customer{
		ID:        1,
		FirstName: sql.NullString{String: "Ravi", Valid: true},
		LastName:  sql.NullString{String: "Kumar", Valid: true},
		Email:     "ravi@example.com",
		Gender:    sql.NullString{String: "M", Valid: true},
	}

	contact := BuildContact(c, nil, "", "Google")
	data, err := json.Marshal(contact)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Ravi", decoded["first_name"])
	assert.Equal(t, "Kumar", decoded["last_name"])
	assert.Equal(t, "ravi@example.com", decoded["email_id"])
	assert.Equal(t, "", decoded["mobile"])
	assert.Equal(t, "M", decoded["gender"])
	assert.Equal(t, "Google", decoded["oauth_provider"])
	for _, key := range []string{"state", "city", "address", "pincode", "country", "password", "oauth_uid", "SFDC_Contact_Number"} {
		v, present := decoded[key]
		assert.True(t, present, key)
		assert.Nil(t, v, key)
	}

	withAddress := BuildContact(c, sampleAddress(2), "CON42", "")
	assert.Equal(t, "Pune", *withAddress.City)
	assert.Equal(t, "12 MG Road", *withAddress.Address)
	assert.Equal(t, "CON42", *withAddress.SFDCContactNumber)
	assert.Nil(t, withAddress.OAuthProvider)
}
