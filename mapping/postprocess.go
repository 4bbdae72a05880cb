package mapping

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// Postprocess is the closed set of value normalization kinds.
type Postprocess string

const (
	PostprocessNone   Postprocess = ""
	PostprocessStrip  Postprocess = "strip"
	PostprocessDate   Postprocess = "date"
	PostprocessAmount Postprocess = "amount"
)

func ParsePostprocess(s string) (Postprocess, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PostprocessNone, nil
	case "strip":
		return PostprocessStrip, nil
	case "date":
		return PostprocessDate, nil
	case "amount":
		return PostprocessAmount, nil
	}
	return "", fmt.Errorf("unsupported postprocess: %q", s)
}

// Apply normalizes a raw captured string under the given kind. It returns
// the value to store, whether the field should be stored at all, and an
// error diagnostic when normalization failed. Amount failures drop the
// field; date failures keep the raw string.
func Apply(kind Postprocess, field, raw string) (any, bool, string) {
	switch kind {
	case PostprocessStrip:
		return strings.TrimSpace(raw), true, ""
	case PostprocessAmount:
		dec, err := ParseAmount(raw)
		if err != nil {
			return nil, false, "Cannot parse amount for field: " + field
		}
		return dec, true, ""
	case PostprocessDate:
		iso, err := ParseDateISO(raw)
		if err != nil {
			return raw, true, "Cannot parse date for field: " + field
		}
		return iso, true, ""
	}
	return raw, true, ""
}

// ParseAmount parses a captured amount string into a decimal, tolerating
// thousands separators and surrounding whitespace.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	return decimal.NewFromString(s)
}

// ParseDateISO parses a captured date string into ISO YYYY-MM-DD form.
// Ambiguous numeric dates are read day-first, matching the regional
// invoices this system handles.
func ParseDateISO(raw string) (string, error) {
	t, err := dateparse.ParseAny(strings.TrimSpace(raw), dateparse.PreferMonthFirst(false))
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
