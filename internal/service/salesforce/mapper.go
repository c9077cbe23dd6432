// internal/service/salesforce/mapper.go
package salesforce

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crmsync-service/internal/domain/catalog"
	"crmsync-service/internal/domain/customer"
	"crmsync-service/internal/domain/order"
	sf "crmsync-service/internal/domain/salesforce"
	"crmsync-service/internal/pkg/attributes"
	xerrors "crmsync-service/internal/pkg/errors"
)

const (
	orderStatusBooked = "Booked"
	orderDateLayout   = "2006-01-02"
)

var (
	ErrMissingProduct    = fmt.Errorf("%w: order item references a missing product", xerrors.ErrMalformedInput)
	ErrNoWeightAttribute = errors.New("product has no weight attribute")
)

// MapAddress converts a stored address into the CRM address shape.
func MapAddress(a *customer.Address) (*sf.Address, error) {
	out := &sf.Address{
		Street:     a.Address1,
		Street2:    a.Address2,
		Street3:    a.Address3,
		State:      a.StateProvince,
		PostalCode: a.ZipPostalCode,
		PhoneNo:    a.PhoneNumber,
		Name:       a.FullName(),
		Country:    a.Country,
		City:       a.City,
	}

	if a.CustomAttributes != "" {
		saveAs, err := attributes.SaveAs(a.CustomAttributes)
		if err != nil {
			return nil, fmt.Errorf("address %d: %w", a.ID, err)
		}
		out.AddressSaveAs = &saveAs
	}

	return out, nil
}

// MapOrder builds the order header. userID is the customer's CRM contact
// number; an empty value is sent as null.
func MapOrder(o *order.Order, userID string) *sf.Order {
	zero := sf.NewAmount(decimal.Zero)
	header := &sf.Order{
		TransactionID:   o.PaymentTransactionID.String,
		OrderTotal:      sf.NewAmount(o.OrderSubtotalExclTax),
		OrderStatus:     orderStatusBooked,
		OrderNumber:     strconv.FormatInt(o.ID, 10),
		OrderDate:       o.CreatedAt.UTC().Format(orderDateLayout),
		OrderCurrency:   o.CustomerCurrencyCode,
		DiscountPercent: &zero,
	}
	if userID != "" {
		header.UserID = &userID
	}
	return header
}

// ProductWeight reads the leading integer of the product's Weight attribute.
func ProductWeight(p *catalog.Product) (decimal.Decimal, error) {
	raw, ok := p.FirstValue(attributes.WeightAttributeName)
	if !ok {
		return decimal.Zero, ErrNoWeightAttribute
	}
	return attributes.Weight(raw)
}

// MapOrderLines builds one CRM line per item. A weight that cannot be read
// is sent as null; a missing product fails the whole mapping.
func MapOrderLines(o *order.Order, items []order.OrderItem, products map[int64]*catalog.Product, logger *zap.Logger) ([]sf.OrderLine, error) {
	orderID := strconv.FormatInt(o.ID, 10)
	lines := make([]sf.OrderLine, 0, len(items))

	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok || p == nil {
			return nil, fmt.Errorf("%w: item %d product %d", ErrMissingProduct, item.ID, item.ProductID)
		}

		var weight sf.NullAmount
		if w, err := ProductWeight(p); err != nil {
			logger.Debug("order line weight unavailable",
				zap.Int64("order_id", o.ID),
				zap.Int64("product_id", p.ID),
				zap.Error(err),
			)
		} else {
			weight = sf.NewNullAmount(w)
		}

		lines = append(lines, sf.OrderLine{
			OrderID:            orderID,
			ProductID:          p.SKU,
			ProductName:        p.Name,
			WeightInGram:       weight,
			Quantity:           item.Quantity,
			ProductPrice:       sf.NewAmount(item.UnitPriceExclTax),
			DiscountPercentage: sf.NewAmount(decimal.Zero),
			DiscountAmount:     sf.NewAmount(decimal.Zero),
			OliTotal:           sf.NewAmount(item.PriceExclTax),
			ProductCurrency:    o.CustomerCurrencyCode,
		})
	}

	return lines, nil
}

// BuildContact builds the contact upsert entry. address may be nil.
func BuildContact(c *customer.Customer, address *customer.Address, contactNumber, oauthProvider string) sf.Contact {
	contact := sf.Contact{
		FirstName: c.FirstName.String,
		LastName:  c.LastName.String,
		EmailID:   c.Email,
		Mobile:    c.Phone.String,
	}

	if address != nil {
		contact.State = strPtr(address.StateProvince)
		contact.City = strPtr(address.City)
		contact.Address = strPtr(address.Address1)
		contact.Pincode = strPtr(address.ZipPostalCode)
		contact.Country = strPtr(address.Country)
	}
	if c.Gender.Valid && c.Gender.String != "" {
		contact.Gender = strPtr(c.Gender.String)
	}
	if oauthProvider != "" {
		contact.OAuthProvider = strPtr(oauthProvider)
	}
	if contactNumber != "" {
		contact.SFDCContactNumber = strPtr(contactNumber)
	}

	return contact
}

func strPtr(s string) *string { return &s }
