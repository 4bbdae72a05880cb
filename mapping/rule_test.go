package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func mustCompile(t *testing.T, fr FieldRule) EngineRule {
	t.Helper()
	er, err := compileRule("test", 1, fr)
	if err != nil {
		t.Fatalf("compile rule: %v", err)
	}
	return er
}

func TestParseMethodSpellings(t *testing.T) {
	for spelling, want := range map[string]Method{
		"Regex":        MethodRegex,
		"Next Number":  MethodNextNumber,
		"NextNumber":   MethodNextNumber,
		"Next Date":    MethodNextDate,
		"NextDate":     MethodNextDate,
		"Amount After": MethodAmountAfter,
		"AmountAfter":  MethodAmountAfter,
	} {
		got, err := ParseMethod(spelling)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("Fuzzy Guess")
	assert.Error(t, err)
}

func TestFieldKey(t *testing.T) {
	assert.Equal(t, "bill_no", FieldKey("Bill No"))
	assert.Equal(t, "account_no", FieldKey("Account Number"))
	assert.Equal(t, "vat_amount", FieldKey("VAT Amount"))
	// free-text labels become snake case
	assert.Equal(t, "meter_reading", FieldKey("Meter Reading"))
	assert.Equal(t, "bill_no", FieldKey(" bill_no "))
}

func TestNextNumberCapturesAfterLabel(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No"})

	raw, ok := r.capture("Invoice\nBill No: 12345\nTotal 9.000", nil)
	assert.True(t, ok)
	assert.Equal(t, "12345", raw)
}

func TestNextNumberElasticLabelWhitespace(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Bill No", Method: "Next Number", Label: "Bill No"})

	raw, ok := r.capture("Bill   No - 778899", nil)
	assert.True(t, ok)
	assert.Equal(t, "778899", raw)
}

func TestNextDateShapes(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Bill Date", Method: "NextDate", Label: "Bill Date"})

	for text, want := range map[string]string{
		"Bill Date: 12 Apr 2025": "12 Apr 2025",
		"Bill Date 12/04/2025":   "12/04/2025",
		"Bill Date - 2025-04-12": "2025-04-12",
	} {
		raw, ok := r.capture(text, nil)
		assert.True(t, ok, text)
		assert.Equal(t, want, raw)
	}
}

func TestAmountAfterToleratesParenthesesAndThousands(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Amount", Method: "AmountAfter", Label: "Total Due"})

	raw, ok := r.capture("Total Due (BD) 1,234.500", nil)
	assert.True(t, ok)
	assert.Equal(t, "1,234.500", raw)

	raw, ok = r.capture("Total Due 15.400", nil)
	assert.True(t, ok)
	assert.Equal(t, "15.400", raw)
}

func TestRegexPatternUsedVerbatim(t *testing.T) {
	r := mustCompile(t, FieldRule{
		Field:      "Account Number",
		Method:     "Regex",
		Pattern:    `Account\s+(ID|No)\s*:\s*([A-Z0-9]+)`,
		GroupIndex: 2,
	})

	raw, ok := r.capture("Account No: AB1234", nil)
	assert.True(t, ok)
	assert.Equal(t, "AB1234", raw)
	assert.Equal(t, `Account\s+(ID|No)\s*:\s*([A-Z0-9]+)`, r.Pattern)
}

func TestMatchingIsCaseInsensitive(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No"})

	raw, ok := r.capture("BILL NO: 445566", nil)
	assert.True(t, ok)
	assert.Equal(t, "445566", raw)
}

func TestGroupIndexCoercion(t *testing.T) {
	r := mustCompile(t, FieldRule{Field: "Bill No", Method: "Regex", Pattern: `No\s+(\d+)`})
	assert.Equal(t, 1, r.GroupIndex)

	// derived patterns always use group 1 no matter what is configured
	r = mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No", GroupIndex: 3})
	assert.Equal(t, 1, r.GroupIndex)
}

func TestCompileRuleConfigurationErrors(t *testing.T) {
	cases := []FieldRule{
		{Field: "Bill No", Method: "Sideways"},                      // unsupported method
		{Field: "", Method: "Regex", Pattern: `\d+`},                // missing field
		{Field: "Bill No", Method: "Regex"},                         // missing pattern
		{Field: "Bill No", Method: "NextNumber"},                    // missing label
		{Field: "Bill No", Method: "Regex", Pattern: `([`},          // invalid regex
		{Field: "Bill No", Method: "Regex", Pattern: `\d`, Postprocess: "shout"}, // unknown postprocess
	}
	for _, fr := range cases {
		_, err := compileRule("test", 1, fr)
		assert.Error(t, err)
		var cfgErr *ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	}
}

func TestConfigurationErrorMessage(t *testing.T) {
	_, err := compileRule("beyon", 3, FieldRule{Field: "Bill No", Method: "NextNumber"})
	assert.EqualError(t, err, `mapping "beyon" rule 3: label is required when method is "Next Number"`)
}
