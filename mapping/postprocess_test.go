package mapping

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePostprocess(t *testing.T) {
	for _, s := range []string{"", "none", "None", " strip ", "date", "AMOUNT"} {
		_, err := ParsePostprocess(s)
		assert.NoError(t, err, s)
	}
	_, err := ParsePostprocess("uppercase")
	assert.Error(t, err)
}

func TestApplyStrip(t *testing.T) {
	v, keep, diag := Apply(PostprocessStrip, "bill_no", "  INV-100  ")
	assert.Equal(t, "INV-100", v)
	assert.True(t, keep)
	assert.Empty(t, diag)
}

func TestApplyNonePassesThrough(t *testing.T) {
	v, keep, diag := Apply(PostprocessNone, "bill_no", "  raw  ")
	assert.Equal(t, "  raw  ", v)
	assert.True(t, keep)
	assert.Empty(t, diag)
}

func TestApplyAmount(t *testing.T) {
	v, keep, diag := Apply(PostprocessAmount, "amount", "1,234.500")
	assert.True(t, keep)
	assert.Empty(t, diag)
	assert.True(t, v.(decimal.Decimal).Equal(decimal.NewFromFloat(1234.5)))

	v, keep, diag = Apply(PostprocessAmount, "amount", "15.400")
	assert.True(t, keep)
	assert.True(t, v.(decimal.Decimal).Equal(decimal.NewFromFloat(15.4)))
	assert.Empty(t, diag)
}

func TestApplyAmountFailure(t *testing.T) {
	v, keep, diag := Apply(PostprocessAmount, "amount", "gratis")
	assert.Nil(t, v)
	assert.False(t, keep)
	assert.Equal(t, "Cannot parse amount for field: amount", diag)
}

func TestApplyDate(t *testing.T) {
	for raw, want := range map[string]string{
		"12 Apr 2025": "2025-04-12",
		"2025-04-12":  "2025-04-12",
		"12/04/2025":  "2025-04-12",
	} {
		v, keep, diag := Apply(PostprocessDate, "bill_date", raw)
		assert.True(t, keep)
		assert.Empty(t, diag, raw)
		assert.Equal(t, want, v, raw)
	}
}

func TestApplyDateFailureKeepsRaw(t *testing.T) {
	v, keep, diag := Apply(PostprocessDate, "due_date", "whenever suits")
	assert.Equal(t, "whenever suits", v)
	assert.True(t, keep)
	assert.Equal(t, "Cannot parse date for field: due_date", diag)
}

func TestParseAmountStripsSeparators(t *testing.T) {
	d, err := ParseAmount(" 1,000,000.250 ")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1000000.250")))
}

func TestParseDateISODayFirst(t *testing.T) {
	iso, err := ParseDateISO("03/04/2025")
	assert.NoError(t, err)
	assert.Equal(t, "2025-04-03", iso)
}
