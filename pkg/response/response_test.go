package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addOrderedPurchaseResponse = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <soap:Body>
    <AddOrderedPurchaseResponse xmlns="http://sherpa.sherpaan.nl/">
      <AddOrderedPurchaseResult>
        <ResponseTime>61</ResponseTime>
        <ResponseValue>600010</ResponseValue>
      </AddOrderedPurchaseResult>
    </AddOrderedPurchaseResponse>
  </soap:Body>
</soap:Envelope>`

func wrap(envelope, body, inner string) string {
	return `<` + envelope + ` xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:soap12="http://www.w3.org/2003/05/soap-envelope">` +
		`<` + body + `>` + inner + `</` + body + `>` +
		`</` + envelope + `>`
}

func TestParse_Body(t *testing.T) {
	tests := []struct {
		name     string
		envelope string
		body     string
	}{
		{"soap prefix", "soap:Envelope", "soap:Body"},
		{"soap12 prefix", "soap12:Envelope", "soap12:Body"},
		{"unqualified", "Envelope", "Body"},
		{"mixed", "soap12:Envelope", "Body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(wrap(tt.envelope, tt.body, "<X/>")))
			require.NoError(t, err)

			body, ok := doc.Body()
			require.True(t, ok)
			assert.Equal(t, tt.body, body.FullTag())
		})
	}
}

func TestParse_NoBody(t *testing.T) {
	tests := map[string]string{
		"unknown prefix": `<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"><s:Body><R><ResponseValue>600010</ResponseValue></R></s:Body></s:Envelope>`,
		"no envelope":    `<Response><ResponseValue>600010</ResponseValue></Response>`,
		"no body":        `<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope"><soap:Header/></soap:Envelope>`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			doc, err := Parse([]byte(data))
			require.NoError(t, err, "missing body is not a parse error")

			_, ok := doc.Body()
			assert.False(t, ok)

			_, ok = doc.Result()
			assert.False(t, ok)

			_, ok = doc.OrderNumber()
			assert.False(t, ok)

			assert.Equal(t, []byte(data), doc.Raw())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte(`<Envelope attr=unquoted><Body/></Envelope>`))
	assert.Error(t, err)

	_, err = Parse([]byte(`<Envelope><Body>&bogus;</Body></Envelope>`))
	assert.Error(t, err)
}

func TestParse_RejectsDoctype(t *testing.T) {
	external := `<?xml version="1.0"?>
<!DOCTYPE Envelope [<!ENTITY xxe SYSTEM "file:///etc/passwd">]>
<Envelope><Body><R><ResponseValue>&xxe;</ResponseValue></R></Body></Envelope>`

	_, err := Parse([]byte(external))
	assert.Error(t, err)

	internal := `<?xml version="1.0"?>
<!DOCTYPE Envelope [<!ENTITY n "600010">]>
<Envelope><Body><R><ResponseValue>1</ResponseValue></R></Body></Envelope>`

	_, err = Parse([]byte(internal))
	assert.ErrorIs(t, err, ErrDoctype)
}

func TestOrderNumber_AddOrderedPurchase(t *testing.T) {
	doc, err := Parse([]byte(addOrderedPurchaseResponse))
	require.NoError(t, err)

	number, ok := doc.OrderNumber()
	require.True(t, ok)
	assert.Equal(t, "600010", number)
}

func TestOrderNumber_NeverResponseTime(t *testing.T) {
	tests := map[string]string{
		"flat, time first":     `<ResponseTime>61</ResponseTime><ResponseValue>600010</ResponseValue>`,
		"flat, value first":    `<ResponseValue>600010</ResponseValue><ResponseTime>61</ResponseTime>`,
		"nested":               `<R><ResponseTime>61</ResponseTime><ResponseValue>600010</ResponseValue></R>`,
		"numeric leaf":         `<ResponseTime>61</ResponseTime><Number>600010</Number>`,
		"deeply nested":        `<A><B><ResponseTime>61</ResponseTime><C><ResponseValue>600010</ResponseValue></C></B></A>`,
		"alternate field":      `<Result><ResponseTime>61</ResponseTime><PurchaseNumber>600010</PurchaseNumber></Result>`,
		"candidate precedence": `<ResponseTime>61</ResponseTime><Other>7</Other><orderNumber>600010</orderNumber>`,
	}

	for name, inner := range tests {
		t.Run(name, func(t *testing.T) {
			number, ok := ExtractOrderNumber([]byte(wrap("soap:Envelope", "soap:Body", inner)))
			require.True(t, ok)
			assert.Equal(t, "600010", number)
		})
	}
}

func TestOrderNumber_NotFound(t *testing.T) {
	tests := map[string]string{
		"only response time": `<ResponseTime>61</ResponseTime>`,
		"nested time only":   `<R><ResponseTime>61</ResponseTime></R>`,
		"non numeric":        `<R><Status>ok</Status></R><Message>created</Message>`,
		"empty body":         ``,
		"empty value":        `<R><ResponseValue></ResponseValue><ResponseTime>61</ResponseTime></R>`,
	}

	for name, inner := range tests {
		t.Run(name, func(t *testing.T) {
			number, ok := ExtractOrderNumber([]byte(wrap("soap:Envelope", "soap:Body", inner)))
			assert.False(t, ok)
			assert.Empty(t, number)
		})
	}

	_, ok := ExtractOrderNumber([]byte("<<<"))
	assert.False(t, ok)
}

func TestOrderNumber_NonNumericResponseValue(t *testing.T) {
	// A nested ResponseValue wins even when it is not numeric.
	number, ok := ExtractOrderNumber([]byte(wrap("soap:Envelope", "soap:Body",
		`<R><ResponseValue>PO-42</ResponseValue></R>`)))
	require.True(t, ok)
	assert.Equal(t, "PO-42", number)

	// A top-level alternate field must be numeric.
	_, ok = ExtractOrderNumber([]byte(wrap("soap:Envelope", "soap:Body",
		`<OrderNumber>PO-42</OrderNumber>`)))
	assert.False(t, ok)
}

func TestResult(t *testing.T) {
	t.Run("Result element", func(t *testing.T) {
		doc, err := Parse([]byte(wrap("soap:Envelope", "soap:Body",
			`<ChangePurchase2Response><Result><Code>0</Code></Result></ChangePurchase2Response>`)))
		require.NoError(t, err)

		el, ok := doc.Result()
		require.True(t, ok)
		assert.Equal(t, "Result", el.Tag)
	})

	t.Run("ResponseValue element", func(t *testing.T) {
		doc, err := Parse([]byte(wrap("soap:Envelope", "soap:Body",
			`<Something><ResponseValue>1</ResponseValue></Something>`)))
		require.NoError(t, err)

		el, ok := doc.Result()
		require.True(t, ok)
		assert.Equal(t, "ResponseValue", el.Tag)
		assert.Equal(t, "1", el.Text())
	})

	t.Run("Response wrapper fallback", func(t *testing.T) {
		doc, err := Parse([]byte(addOrderedPurchaseResponse))
		require.NoError(t, err)

		el, ok := doc.Result()
		require.True(t, ok)
		assert.Equal(t, "AddOrderedPurchaseResponse", el.Tag)
	})

	t.Run("key match beats wrapper", func(t *testing.T) {
		doc, err := Parse([]byte(wrap("soap:Envelope", "soap:Body",
			`<FirstResponse><X>1</X></FirstResponse><Second><Result>2</Result></Second>`)))
		require.NoError(t, err)

		el, ok := doc.Result()
		require.True(t, ok)
		assert.Equal(t, "Result", el.Tag)
		assert.Equal(t, "2", el.Text())
	})

	t.Run("leaf children ignored", func(t *testing.T) {
		doc, err := Parse([]byte(wrap("soap:Envelope", "soap:Body",
			`<ResponseTime>61</ResponseTime>`)))
		require.NoError(t, err)

		_, ok := doc.Result()
		assert.False(t, ok)
	})
}
