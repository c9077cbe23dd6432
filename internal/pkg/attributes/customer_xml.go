// internal/pkg/attributes/customer_xml.go

// Package attributes reads and writes the free-form attribute strings the
// storefront keeps on customers, addresses and products.
package attributes

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ContactMarker identifies CRM contact-record numbers inside a customer's
// attribute blob.
const ContactMarker = "CON"

var ErrMalformedXML = errors.New("attributes: malformed customer attribute xml")

type attributesDoc struct {
	XMLName    xml.Name            `xml:"Attributes"`
	Attributes []customerAttribute `xml:"CustomerAttribute"`
}

type customerAttribute struct {
	ID     string           `xml:"ID,attr,omitempty"`
	Values []attributeValue `xml:"CustomerAttributeValue"`
}

type attributeValue struct {
	Value string `xml:"Value"`
}

func (a customerAttribute) firstValue() (string, bool) {
	if len(a.Values) == 0 {
		return "", false
	}
	return strings.TrimSpace(a.Values[0].Value), true
}

func parseDoc(blob string) (*attributesDoc, error) {
	var doc attributesDoc
	if err := xml.Unmarshal([]byte(blob), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
	}
	return &doc, nil
}

// ContactNumber returns the first attribute value containing ContactMarker.
// An empty blob yields ("", false, nil).
func ContactNumber(blob string) (string, bool, error) {
	if strings.TrimSpace(blob) == "" {
		return "", false, nil
	}

	doc, err := parseDoc(blob)
	if err != nil {
		return "", false, err
	}

	for _, attr := range doc.Attributes {
		value, ok := attr.firstValue()
		if !ok {
			continue
		}
		if strings.Contains(value, ContactMarker) {
			return value, true, nil
		}
	}
	return "", false, nil
}

// SetContactNumber writes number into the blob and returns the new blob.
// The attribute that already holds a contact number is replaced first, then
// an empty attribute with the given id; otherwise a new attribute with that id
// is appended. Values that are not contact numbers are never overwritten.
func SetContactNumber(blob string, attributeID int, number string) (string, error) {
	doc := &attributesDoc{}
	if strings.TrimSpace(blob) != "" {
		parsed, err := parseDoc(blob)
		if err != nil {
			return "", err
		}
		doc = parsed
	}

	id := strconv.Itoa(attributeID)
	target := -1
	for i, attr := range doc.Attributes {
		if value, ok := attr.firstValue(); ok && strings.Contains(value, ContactMarker) {
			target = i
			break
		}
	}
	if target < 0 {
		for i, attr := range doc.Attributes {
			if value, _ := attr.firstValue(); attr.ID == id && value == "" {
				target = i
				break
			}
		}
	}

	value := []attributeValue{{Value: number}}
	if target >= 0 {
		doc.Attributes[target].Values = value
	} else {
		doc.Attributes = append(doc.Attributes, customerAttribute{ID: id, Values: value})
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("attributes: marshal customer attributes: %w", err)
	}
	return string(out), nil
}
