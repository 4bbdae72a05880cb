package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestKeywordsListNormalization(t *testing.T) {
	p := Profile{Keywords: "Beyon, BATELCO\nbeyon\n telecom ,"}

	assert.Equal(t, []string{"beyon", "batelco", "telecom"}, p.KeywordsList())
}

func TestKeywordsListEmpty(t *testing.T) {
	p := Profile{}
	assert.Empty(t, p.KeywordsList())
}

func TestNormalizeDefaults(t *testing.T) {
	p := Profile{Name: "beyon", Supplier: " Beyon "}

	err := p.Normalize()

	assert.NoError(t, err)
	assert.Equal(t, "Beyon", p.Supplier)
	assert.Equal(t, FlexInt(10), p.Priority)
	assert.True(t, p.IsActive())
}

func TestNormalizeRequiresSupplier(t *testing.T) {
	p := Profile{Name: "anon"}

	err := p.Normalize()

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "anon", cfgErr.Profile)
}

func TestNormalizeCompilesRules(t *testing.T) {
	p := Profile{
		Name:     "beyon",
		Supplier: "Beyon",
		Rules: []FieldRule{
			{Field: "Bill No", Method: "NextNumber", Label: "Bill No"},
			{Field: "Amount", Method: "AmountAfter", Label: "Total Due", Postprocess: "amount"},
		},
	}

	err := p.Normalize()

	assert.NoError(t, err)
	assert.Len(t, p.EngineRules(), 2)
	assert.Equal(t, "bill_no", p.EngineRules()[0].Field)
	assert.Equal(t, MethodAmountAfter, p.EngineRules()[1].Method)
}

func TestNormalizeReportsRulePosition(t *testing.T) {
	p := Profile{
		Name:     "beyon",
		Supplier: "Beyon",
		Rules: []FieldRule{
			{Field: "Bill No", Method: "NextNumber", Label: "Bill No"},
			{Field: "Amount", Method: "AmountAfter"}, // missing label
		},
	}

	err := p.Normalize()

	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 2, cfgErr.Rule)
}

func TestProfileYAMLDecoding(t *testing.T) {
	doc := `
supplier: Beyon
priority: "7"
active: true
keywords:
  - Beyon
  - Batelco
rules:
  - field: Bill No
    method: NextNumber
    label: Bill No
    group_index: "2"
`
	var p Profile
	err := yaml.Unmarshal([]byte(doc), &p)

	assert.NoError(t, err)
	assert.Equal(t, FlexInt(7), p.Priority)
	assert.Equal(t, []string{"beyon", "batelco"}, p.KeywordsList())
	assert.Equal(t, FlexInt(2), p.Rules[0].GroupIndex)
}

func TestFlexIntGarbageCollapsesToZero(t *testing.T) {
	var f FlexInt
	err := yaml.Unmarshal([]byte(`"soon"`), &f)
	assert.NoError(t, err)
	assert.Equal(t, FlexInt(0), f)
}
