package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Errors returned while parsing responses
var (
	ErrNoBody  = errors.New("no SOAP body found in response")
	ErrDoctype = errors.New("response contains a DOCTYPE declaration")
)

var (
	envelopeTags = []string{"soap:Envelope", "soap12:Envelope", "Envelope"}
	bodyTags     = []string{"soap:Body", "soap12:Body", "Body"}

	// orderNumberFields are checked in order once no ResponseValue was found
	orderNumberFields = []string{
		"PurchaseOrderNumber", "purchaseOrderNumber",
		"PurchaseNumber", "purchaseNumber",
		"OrderNumber", "orderNumber",
		"ResponseValue",
	}
)

// responseTimeField is numeric metadata returned next to ResponseValue
const responseTimeField = "ResponseTime"

// Document is a parsed SOAP response
type Document struct {
	raw  []byte
	doc  *etree.Document
	body *etree.Element
}

// Parse parses a SOAP response. Malformed XML and DOCTYPE declarations are
// errors; a well-formed document without a recognizable body is not.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = false
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}

	for _, tok := range doc.Child {
		if _, ok := tok.(*etree.Directive); ok {
			return nil, ErrDoctype
		}
	}

	return &Document{
		raw:  data,
		doc:  doc,
		body: findBody(doc.Root()),
	}, nil
}

// Raw returns the response exactly as received
func (d *Document) Raw() []byte {
	return d.raw
}

// Body returns the SOAP body element
func (d *Document) Body() (*etree.Element, bool) {
	return d.body, d.body != nil
}

// Result returns the answer payload of the response: the first Result or
// ResponseValue element found under a body child, otherwise the first body
// child whose tag contains "Response".
func (d *Document) Result() (*etree.Element, bool) {
	if d.body == nil {
		return nil, false
	}

	strategies := []func(*etree.Element) *etree.Element{
		func(child *etree.Element) *etree.Element {
			if el := child.SelectElement("Result"); el != nil {
				return el
			}
			return child.SelectElement("ResponseValue")
		},
		func(child *etree.Element) *etree.Element {
			if strings.Contains(child.Tag, "Response") {
				return child
			}
			return nil
		},
	}

	for _, strategy := range strategies {
		for _, child := range d.body.ChildElements() {
			if isLeaf(child) {
				continue
			}
			if el := strategy(child); el != nil {
				return el, true
			}
		}
	}
	return nil, false
}

// OrderNumber returns the purchase order number assigned by AddOrderedPurchase
func (d *Document) OrderNumber() (string, bool) {
	if d.body == nil {
		return "", false
	}
	return orderNumberIn(d.body)
}

// ExtractOrderNumber parses data and returns the purchase order number in it
func ExtractOrderNumber(data []byte) (string, bool) {
	doc, err := Parse(data)
	if err != nil {
		return "", false
	}
	return doc.OrderNumber()
}

// orderNumberIn tries each strategy in priority order on el
func orderNumberIn(el *etree.Element) (string, bool) {
	strategies := []func(*etree.Element) (string, bool){
		nestedResponseValue,
		knownField,
		numericLeaf,
	}
	for _, strategy := range strategies {
		if v, ok := strategy(el); ok {
			return v, true
		}
	}
	return "", false
}

// nestedResponseValue descends depth-first into the non-leaf children of el,
// taking a non-empty ResponseValue directly below a child before descending
// into that child.
func nestedResponseValue(el *etree.Element) (string, bool) {
	for _, child := range el.ChildElements() {
		if isLeaf(child) {
			continue
		}
		if rv := child.SelectElement("ResponseValue"); rv != nil && isLeaf(rv) {
			if v := strings.TrimSpace(rv.Text()); v != "" {
				return v, true
			}
		}
		if v, ok := orderNumberIn(child); ok {
			return v, true
		}
	}
	return "", false
}

// knownField checks the direct children of el for an alternate field name
// holding a numeric value
func knownField(el *etree.Element) (string, bool) {
	for _, name := range orderNumberFields {
		field := el.SelectElement(name)
		if field == nil || !isLeaf(field) {
			continue
		}
		if v := strings.TrimSpace(field.Text()); isDigits(v) {
			return v, true
		}
	}
	return "", false
}

// numericLeaf accepts any numeric leaf below el other than ResponseTime
func numericLeaf(el *etree.Element) (string, bool) {
	for _, child := range el.ChildElements() {
		if !isLeaf(child) || child.Tag == responseTimeField {
			continue
		}
		if v := strings.TrimSpace(child.Text()); isDigits(v) {
			return v, true
		}
	}
	return "", false
}

func findBody(root *etree.Element) *etree.Element {
	if root == nil || !matches(root, envelopeTags) {
		return nil
	}
	for _, tag := range bodyTags {
		for _, child := range root.ChildElements() {
			if child.FullTag() == tag {
				return child
			}
		}
	}
	return nil
}

func matches(el *etree.Element, tags []string) bool {
	for _, tag := range tags {
		if el.FullTag() == tag {
			return true
		}
	}
	return false
}

func isLeaf(el *etree.Element) bool {
	return len(el.ChildElements()) == 0
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
