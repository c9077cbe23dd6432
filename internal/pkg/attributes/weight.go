// internal/pkg/attributes/weight.go
package attributes

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// WeightAttributeName is the product specification attribute carrying weight.
const WeightAttributeName = "Weight"

var ErrNoNumericValue = errors.New("attributes: no numeric value found")

var leadingDigits = regexp.MustCompile(`^\d+`)

// Weight parses the leading run of digits of a weight string ("250 grams").
func Weight(raw string) (decimal.Decimal, error) {
	match := leadingDigits.FindString(raw)
	if match == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNoNumericValue, raw)
	}
	return decimal.RequireFromString(match), nil
}
