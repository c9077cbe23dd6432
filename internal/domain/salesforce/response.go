// internal/domain/salesforce/response.go
package salesforce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCalloutResponse = errors.New("salesforce: invalid callout response")

// CalloutResult is one element of a CRM apex endpoint response.
type CalloutResult struct {
	SFDCNumber         *string  `json:"SFDCNumber"`
	SFDCRecordID       *string  `json:"SFDCRecordId"`
	ResultMsg          *string  `json:"ResultMsg"`
	CalloutErrorResult FlexBool `json:"CalloutErrorResult"`
}

// Number returns the trimmed SFDCNumber, or "" when absent.
func (r CalloutResult) Number() string {
	if r.SFDCNumber == nil {
		return ""
	}
	return strings.TrimSpace(*r.SFDCNumber)
}

// FlexBool accepts true/false, "true"/"false" and null.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*b = false
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", raw)
	}
	*b = FlexBool(v)
	return nil
}

// ParseCalloutResponse decodes a response body that is either a single
// object (order endpoint) or an array of objects (contact endpoint).
// An empty body decodes to no results.
func ParseCalloutResponse(body []byte) ([]CalloutResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var results []CalloutResult
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCalloutResponse, err)
		}
		return results, nil
	case '{':
		var result CalloutResult
		if err := json.Unmarshal(trimmed, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCalloutResponse, err)
		}
		return []CalloutResult{result}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected body %q", ErrInvalidCalloutResponse, truncate(string(trimmed), 64))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
