package purchase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sirosfoundation/target-sherpaan/pkg/envelope"
)

// Record keys
const (
	keySupplier     = "supplier_remoteId"
	keyID           = "id"
	keyWarehouse    = "warehouse_code"
	keyCreatedAt    = "created_at"
	keyLineItems    = "line_items"
	keyProduct      = "product_remoteId"
	keySupplierItem = "supplier_item_code"
	keyQuantity     = "quantity"
)

// FromRecord maps a record to a purchase order request. An empty line list is
// not an error; the caller decides to skip such records.
func FromRecord(record Record, defaults Defaults) (*Request, error) {
	supplier, ok := stringField(record, keySupplier)
	if !ok || supplier == "" {
		return nil, inputError(keySupplier, "is required")
	}

	reference, ok := stringField(record, keyID)
	if !ok || reference == "" {
		return nil, inputError(keyID, "is required")
	}

	warehouse, _ := stringField(record, keyWarehouse)
	if warehouse == "" {
		warehouse = defaults.WarehouseCode
	}
	if warehouse == "" {
		return nil, inputError(keyWarehouse, "is required but not found in record or config (export_buyOrder_warehouse)")
	}

	lines, err := parseLines(record[keyLineItems])
	if err != nil {
		return nil, err
	}

	expected, _ := stringField(record, keyCreatedAt)

	return &Request{
		SupplierCode:  supplier,
		Reference:     reference,
		WarehouseCode: warehouse,
		Lines:         lines,
		ExpectedDate:  expected,
	}, nil
}

// RecordID returns the record id for logging, or "unknown"
func RecordID(record Record) string {
	if id, ok := stringField(record, keyID); ok && id != "" {
		return id
	}
	return "unknown"
}

// parseLines accepts a JSON array or a JSON-encoded string holding one.
// Anything that is not a list yields no lines.
func parseLines(raw any) ([]envelope.Line, error) {
	if s, ok := raw.(string); ok {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return nil, &InputError{Field: keyLineItems, Reason: "is not valid JSON", Err: err}
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, &InputError{Field: keyLineItems, Reason: "has trailing data after the JSON value", Err: err}
		}
		raw = decoded
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, nil
	}

	lines := make([]envelope.Line, 0, len(items))
	for i, item := range items {
		line, err := parseLine(i, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func parseLine(index int, item any) (envelope.Line, error) {
	field := func(name string) string {
		return fmt.Sprintf("%s[%d].%s", keyLineItems, index, name)
	}

	fields, ok := item.(map[string]any)
	if !ok {
		return envelope.Line{}, inputError(fmt.Sprintf("%s[%d]", keyLineItems, index), "is not an object")
	}

	itemCode, ok := stringField(fields, keyProduct)
	if !ok || itemCode == "" {
		return envelope.Line{}, inputError(field(keyProduct), "is required")
	}
	supplierItem, _ := stringField(fields, keySupplierItem)

	rawQty, ok := fields[keyQuantity]
	if !ok || rawQty == nil {
		return envelope.Line{}, inputError(field(keyQuantity), "is required")
	}
	qty, err := toDecimal(rawQty)
	if err != nil {
		return envelope.Line{}, &InputError{Field: field(keyQuantity), Reason: "is not a number", Err: err}
	}
	if qty.IsNegative() {
		return envelope.Line{}, inputError(field(keyQuantity), "must not be negative")
	}

	return envelope.Line{
		ItemCode:         itemCode,
		SupplierItemCode: supplierItem,
		QuantityOrdered:  qty,
	}, nil
}

// stringField returns the value of key as text. Numbers keep their JSON
// representation. A missing or null value reports false.
func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return fmt.Sprint(t), true
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case float64:
		return decimal.NewFromFloat(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", v)
	}
}
