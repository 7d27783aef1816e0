package envelope

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Namespace constants for Sherpa SOAP 1.2 requests
const (
	NsSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
	NsSherpa = "http://sherpa.sherpaan.nl/"
	NsXSI    = "http://www.w3.org/2001/XMLSchema-instance"
	NsXSD    = "http://www.w3.org/2001/XMLSchema"
)

// Operation names, also used to derive the SOAPAction header
const (
	OpAddOrderedPurchase = "AddOrderedPurchase"
	OpChangePurchase2    = "ChangePurchase2"
)

// ErrNoLines is returned when an attach-lines envelope is requested without lines
var ErrNoLines = errors.New("at least one purchase line is required")

// Line is a single purchase line of a ChangePurchase2 request
type Line struct {
	ItemCode         string
	SupplierItemCode string
	QuantityOrdered  decimal.Decimal
}

// supplierItemCode returns the supplier item code, defaulting to the item code
func (l Line) supplierItemCode() string {
	if l.SupplierItemCode == "" {
		return l.ItemCode
	}
	return l.SupplierItemCode
}
