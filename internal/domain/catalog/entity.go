// internal/domain/catalog/entity.go
package catalog

import (
	"github.com/lib/pq"
)

type Product struct {
	ID      int64  `json:"id" db:"id"`
	SKU     string `json:"sku" db:"sku"`
	Name    string `json:"name" db:"name"`
	Deleted bool   `json:"deleted" db:"deleted"`

	SpecificationAttributes []SpecificationAttribute `json:"specification_attributes,omitempty"`
}

type SpecificationAttribute struct {
	Name         string         `json:"name" db:"name"`
	Values       pq.StringArray `json:"values" db:"attribute_values"`
	DisplayOrder int            `json:"display_order" db:"display_order"`
}

// FirstValue returns the first non-empty value of the first attribute named
// name, in display order.
func (p *Product) FirstValue(name string) (string, bool) {
	for _, attr := range p.SpecificationAttributes {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		if v := attr.Values[0]; v != "" {
			return v, true
		}
	}
	return "", false
}
