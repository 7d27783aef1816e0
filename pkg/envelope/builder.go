package envelope

import (
	"fmt"

	"github.com/beevik/etree"
)

// BuildCreateOrder renders the AddOrderedPurchase request envelope
func BuildCreateOrder(securityCode, supplierCode, reference, warehouseCode string) ([]byte, error) {
	doc, op := newDocument(OpAddOrderedPurchase)

	setText(op, "securityCode", securityCode)
	setText(op, "supplierCode", supplierCode)
	setText(op, "reference", reference)
	setText(op, "warehouseCode", warehouseCode)

	return write(doc)
}

// BuildAttachLines renders the ChangePurchase2 request envelope. expectedDate
// is applied to every line.
func BuildAttachLines(securityCode, purchaseOrderNumber string, lines []Line, expectedDate string) ([]byte, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	doc, op := newDocument(OpChangePurchase2)

	setText(op, "securityCode", securityCode)
	setText(op, "purchaseOrderNumber", purchaseOrderNumber)

	purchaseLines := op.CreateElement("purchaseLines")
	for i, line := range lines {
		if line.ItemCode == "" {
			return nil, fmt.Errorf("line %d: item code is required", i)
		}
		if line.QuantityOrdered.IsNegative() {
			return nil, fmt.Errorf("line %d: quantity must not be negative, got %s", i, line.QuantityOrdered)
		}

		el := purchaseLines.CreateElement("ChangePurchaseLine")
		setText(el, "ItemCode", line.ItemCode)
		setText(el, "SupplierItemCode", line.supplierItemCode())
		setText(el, "QuantityOrdered", line.QuantityOrdered.String())
		setText(el, "ExpectedDate", expectedDate)
	}

	return write(doc)
}

// newDocument creates the soap12 envelope skeleton and returns the operation element
func newDocument(operation string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	env := doc.CreateElement("soap12:Envelope")
	env.CreateAttr("xmlns:xsi", NsXSI)
	env.CreateAttr("xmlns:xsd", NsXSD)
	env.CreateAttr("xmlns:soap12", NsSOAP12)

	body := env.CreateElement("soap12:Body")
	op := body.CreateElement(operation)
	op.CreateAttr("xmlns", NsSherpa)

	return doc, op
}

// setText adds a child element holding value as text. etree escapes
// & < > " and ' when the document is written.
func setText(parent *etree.Element, tag, value string) {
	parent.CreateElement(tag).SetText(value)
}

func write(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing envelope: %w", err)
	}
	return data, nil
}
