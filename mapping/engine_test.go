package mapping

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplyRulesCapturesAndRecordsHit(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No", Required: true}),
	}

	fields, hits, errs := ApplyRules(rules, "Bill No: 12345", nil)

	assert.Equal(t, "12345", fields["bill_no"])
	assert.Equal(t, []string{"hit:bill_no:12345"}, hits)
	assert.Empty(t, errs)
}

func TestApplyRulesPageScopeLast(t *testing.T) {
	pages := []string{
		"Bill No: 11111",
		"carried forward",
		"Bill No: 33333",
	}
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No", PageScope: "last"}),
	}

	fields, _, _ := ApplyRules(rules, strings.Join(pages, "\n"), pages)

	assert.Equal(t, "33333", fields["bill_no"])
}

func TestApplyRulesPageScopeNumeric(t *testing.T) {
	pages := []string{"Bill No: 11111", "Bill No: 22222"}
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No", PageScope: "2"}),
	}

	fields, _, _ := ApplyRules(rules, strings.Join(pages, "\n"), pages)

	assert.Equal(t, "22222", fields["bill_no"])
}

func TestApplyRulesPageScopeOutOfRangeFallsBackToAll(t *testing.T) {
	pages := []string{"Bill No: 11111"}
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No", PageScope: "2"}),
	}

	fields, _, errs := ApplyRules(rules, pages[0], pages)

	assert.Equal(t, "11111", fields["bill_no"])
	assert.Empty(t, errs)
}

func TestApplyRulesFirstMatchOnly(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No"}),
	}

	fields, hits, _ := ApplyRules(rules, "Bill No: 111\nBill No: 222", nil)

	assert.Equal(t, "111", fields["bill_no"])
	assert.Len(t, hits, 1)
}

func TestApplyRulesNoMatchDiagnostics(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "NextNumber", Label: "Bill No"}),
		mustCompile(t, FieldRule{Field: "Amount", Method: "AmountAfter", Label: "Total Due", Required: true}),
	}

	fields, hits, errs := ApplyRules(rules, "nothing relevant here", nil)

	assert.Empty(t, fields)
	assert.Empty(t, hits)
	assert.Len(t, errs, 3)
	assert.True(t, strings.HasPrefix(errs[0], "no_match:bill_no:Next Number:Bill No::"))
	assert.True(t, strings.HasPrefix(errs[1], "no_match:amount:"))
	assert.Equal(t, "Missing required field: amount", errs[2])
}

func TestApplyRulesLastWriteWins(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "Regex", Pattern: `Invoice\s+(\d+)`}),
		mustCompile(t, FieldRule{Field: "Bill No", Method: "Regex", Pattern: `Reference\s+(\d+)`}),
	}

	fields, hits, _ := ApplyRules(rules, "Invoice 100 Reference 200", nil)

	assert.Equal(t, "200", fields["bill_no"])
	assert.Len(t, hits, 2)
}

func TestApplyRulesAmountPostprocess(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Amount", Method: "AmountAfter", Label: "Total Due", Postprocess: "amount"}),
	}

	fields, _, errs := ApplyRules(rules, "Total Due (BD) 1,234.500", nil)

	assert.Empty(t, errs)
	amount, ok := fields["amount"].(decimal.Decimal)
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromFloat(1234.5)))
}

func TestApplyRulesAmountPostprocessFailureUnsetsField(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Amount", Method: "Regex", Pattern: `Total:\s*(\S+)`, Postprocess: "amount"}),
	}

	fields, hits, errs := ApplyRules(rules, "Total: N/A", nil)

	_, present := fields["amount"]
	assert.False(t, present)
	assert.Empty(t, hits)
	assert.Equal(t, []string{"Cannot parse amount for field: amount"}, errs)
}

func TestApplyRulesDatePostprocessFailureKeepsRaw(t *testing.T) {
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill Date", Method: "Regex", Pattern: `Dated\s+(\w+)`, Postprocess: "date"}),
	}

	fields, hits, errs := ApplyRules(rules, "Dated someday", nil)

	assert.Equal(t, "someday", fields["bill_date"])
	assert.Len(t, hits, 1)
	assert.Equal(t, []string{"Cannot parse date for field: bill_date"}, errs)
}

func TestApplyRulesSkipsNonParticipatingGroup(t *testing.T) {
	// group 2 participates only in the second alternative; page one's first
	// match leaves it empty, so the scan moves to the next page
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Account Number", Method: "Regex", Pattern: `(Ref)\s+\d+|Acct\s+(\d+)`, GroupIndex: 2}),
	}
	pages := []string{"Ref 900", "Acct 123456"}

	fields, _, _ := ApplyRules(rules, strings.Join(pages, "\n"), pages)

	assert.Equal(t, "123456", fields["account_no"])
}

func TestApplyRulesHitPreviewTruncated(t *testing.T) {
	long := strings.Repeat("7", 60)
	rules := []EngineRule{
		mustCompile(t, FieldRule{Field: "Bill No", Method: "Regex", Pattern: `No:\s*(\d+)`}),
	}

	_, hits, _ := ApplyRules(rules, "No: "+long, nil)

	assert.Len(t, hits, 1)
	assert.Equal(t, "hit:bill_no:"+strings.Repeat("7", 40)+"…", hits[0])
}

func TestScopeTextsWithoutPagesUsesFullText(t *testing.T) {
	texts := scopeTexts("all", "only text", nil)
	assert.Equal(t, []string{"only text"}, texts)

	texts = scopeTexts("last", "only text", nil)
	assert.Equal(t, []string{"only text"}, texts)
}
