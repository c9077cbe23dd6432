// internal/pkg/attributes/address.go
package attributes

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedSaveAs = errors.New("attributes: address attribute has no save-as token")

// SaveAs returns the address "save as" type from a formatted address
// attribute string such as "Save as: Home".
func SaveAs(formatted string) (string, error) {
	parts := strings.Split(formatted, ":")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrMalformedSaveAs, formatted)
	}
	return strings.TrimSpace(parts[1]), nil
}
