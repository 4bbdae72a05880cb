package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
	"github.com/aplabs-bh/ocr-invoice-extraction/mapping"
)

// Vendor-specific parsers for suppliers whose bill layouts resist the
// generic label/value rule model. Each parser works line-wise over
// whitespace-normalized text and tolerates common OCR breakage.

// Token shapes shared by all vendor parsers.
const (
	numToken  = `[A-Z0-9][A-Z0-9,.\-/]*`
	amtToken  = `[0-9]+(?:[0-9,]{0,12})?(?:\.\d{1,3})?`
	dateToken = `[0-3]?\d[\s/\-](?:[A-Za-z]{3,}|0?\d)[\s/\-]\d{2,4}`
)

func rx(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + pattern)
}

var (
	numTokenRx    = rx(`(` + numToken + `)`)
	amtTokenRx    = rx(`(` + amtToken + `)`)
	dateTokenRx   = rx(`(` + dateToken + `)`)
	currencyAmtRx = rx(`(?:(?:BD|BHD)\s*)?(` + amtToken + `)`)

	spaceRunRx  = regexp.MustCompile(`\s+`)
	isoDateRx   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	amountSubRx = regexp.MustCompile(`([0-9]+(?:\.[0-9]{1,3})?)`)
)

// normalizedLines collapses runs of whitespace and drops blank lines.
func normalizedLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(spaceRunRx.ReplaceAllString(ln, " "))
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

// findAfter locates a label line and returns the first token match on the
// remainder of that line or within lookAhead subsequent lines. The token
// classes are case-insensitive, so the same-line search starts after the
// label to keep label words from matching as values.
func findAfter(lines []string, label, token *regexp.Regexp, lookAhead int) (string, bool) {
	for i, ln := range lines {
		loc := label.FindStringIndex(ln)
		if loc == nil {
			continue
		}
		if m := token.FindStringSubmatch(ln[loc[1]:]); m != nil {
			return m[1], true
		}
		for j := 1; j <= lookAhead && i+j < len(lines); j++ {
			if m := token.FindStringSubmatch(lines[i+j]); m != nil {
				return m[1], true
			}
		}
	}
	return "", false
}

// firstAfter tries a list of label variants in order.
func firstAfter(lines []string, labels []*regexp.Regexp, token *regexp.Regexp, lookAhead int) (string, bool) {
	for _, label := range labels {
		if v, ok := findAfter(lines, label, token, lookAhead); ok {
			return v, true
		}
	}
	return "", false
}

// searchAcross scans every line with a combined label+token pattern.
func searchAcross(lines []string, combined *regexp.Regexp) (string, bool) {
	for _, ln := range lines {
		if m := combined.FindStringSubmatch(ln); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func normAmount(s string) (decimal.Decimal, bool) {
	t := strings.ReplaceAll(s, " ", " ")
	t = strings.TrimSpace(t)
	t = strings.ReplaceAll(t, ",", "")

	m := amountSubRx.FindStringSubmatch(t)
	if m == nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func normDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if isoDateRx.MatchString(s) {
		return s, true
	}
	norm, err := mapping.ParseDateISO(s)
	if err != nil {
		return "", false
	}
	return norm, true
}

// Beyon / Batelco

var (
	beyonProfileLabels = []*regexp.Regexp{
		rx(`bill\W*pro\W*file`),
		rx(`bill\s*profile\s*(?:no\.?|number)?`),
		rx(`profile\s*(?:id|no\.?|number)?`),
	}
	beyonBillNoLabels = []*regexp.Regexp{
		rx(`B[i1]ll?\s*No\.?`),
		rx(`Invoice\s*(?:No\.?|Number)`),
		rx(`Reference\s*(?:No\.?|Number)`),
	}
	beyonBillDateLabels = []*regexp.Regexp{
		rx(`Bill\s*Issue\s*Date`),
		rx(`Bill\s*Date`),
		rx(`Invoice\s*Date`),
	}
	beyonDueDateLabels = []*regexp.Regexp{
		rx(`Due\s*Date`),
		rx(`Payment\s*Due\s*Date`),
		rx(`Due\s*by`),
	}
	beyonAmountLabels = []*regexp.Regexp{
		rx(`Total\s*Due(?:\s*\((?:BD|BHD)\)|\s+(?:BD|BHD))?`),
		rx(`Total\s*Amount\s*Due`),
		rx(`Amount\s*Payable`),
		rx(`Total\s*Payable`),
		rx(`Total\s*Amount\s*Payable`),
	}
	beyonVATLabels = []*regexp.Regexp{
		rx(`VAT\s*on\s*Current\s*Charges`),
		rx(`VAT\s*(?:Amount|Total)?`),
	}
)

// ParseBeyonText extracts bill fields from Beyon/Batelco telecom bills.
// The label variants cover both the legacy Batelco layout and the rebranded
// Beyon layout, with tolerance for OCR breaks inside "Bill Profile".
func ParseBeyonText(fullText string) map[string]any {
	out := make(map[string]any)
	lines := normalizedLines(fullText)

	if v, ok := firstAfter(lines, beyonProfileLabels, numTokenRx, 2); ok {
		out[dto.FieldBillProfile] = v
	}

	if v, ok := firstAfter(lines, beyonBillNoLabels, numTokenRx, 2); ok {
		out[dto.FieldBillNo] = v
	}

	if v, ok := firstAfter(lines, beyonBillDateLabels, dateTokenRx, 2); ok {
		if norm, ok := normDate(v); ok {
			out[dto.FieldBillDate] = norm
		}
	}

	if v, ok := firstAfter(lines, beyonDueDateLabels, dateTokenRx, 2); ok {
		if norm, ok := normDate(v); ok {
			out[dto.FieldDueDate] = norm
		}
	}

	if v, ok := firstAfter(lines, beyonAmountLabels, currencyAmtRx, 1); ok {
		if amt, ok := normAmount(v); ok {
			out[dto.FieldAmount] = amt
		}
	}

	if v, ok := firstAfter(lines, beyonVATLabels, amtTokenRx, 1); ok {
		if vat, ok := normAmount(v); ok {
			out[dto.FieldVATAmount] = vat
		}
	}

	return out
}

// EWA (Electricity & Water Authority)

var (
	ewaAccountLabel  = rx(`(?:Account|A/c)\s*(?:No\.?|Number)?`)
	ewaBillNoLabel   = rx(`Bill\s*No\.?`)
	ewaBillDateLabel = rx(`Bill\s*Date`)
	ewaDueDateLabel  = rx(`Due\s*Date`)
	ewaAmountLabel   = rx(`(?:Total\s*Due|Amount\s*Payable)`)
	ewaVATLabel      = rx(`(?:VAT|Tax)\s*(?:Amount|Total)?`)

	ewaAccountAcross  = rx(`\b(?:Account|A/c)\s*(?:No\.?|Number)?\b\W*(` + numToken + `)`)
	ewaBillNoAcross   = rx(`\bBill\s*No\.?\b\W*(` + numToken + `)`)
	ewaBillDateAcross = rx(`\bBill\s*Date\b\W*(` + dateToken + `)`)
	ewaDueDateAcross  = rx(`\bDue\s*Date\b\W*(` + dateToken + `)`)
	ewaAmountAcross   = rx(`\b(?:Total\s*Due|Amount\s*Payable)\b\W*(` + amtToken + `)`)
	ewaVATAcross      = rx(`\b(?:VAT|Tax)\s*(?:Amount|Total)?\b\W*(` + amtToken + `)`)
)

// ParseEWAText extracts bill fields from EWA utility bills. Each field is
// looked up near its label first, then with a whole-line sweep as fallback.
func ParseEWAText(fullText string) map[string]any {
	out := make(map[string]any)
	lines := normalizedLines(fullText)

	v, ok := findAfter(lines, ewaAccountLabel, numTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaAccountAcross)
	}
	if ok {
		out[dto.FieldAccountNo] = v
	}

	v, ok = findAfter(lines, ewaBillNoLabel, numTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaBillNoAcross)
	}
	if ok {
		out[dto.FieldBillNo] = v
	}

	v, ok = findAfter(lines, ewaBillDateLabel, dateTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaBillDateAcross)
	}
	if ok {
		if norm, ok := normDate(v); ok {
			out[dto.FieldBillDate] = norm
		}
	}

	v, ok = findAfter(lines, ewaDueDateLabel, dateTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaDueDateAcross)
	}
	if ok {
		if norm, ok := normDate(v); ok {
			out[dto.FieldDueDate] = norm
		}
	}

	v, ok = findAfter(lines, ewaAmountLabel, amtTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaAmountAcross)
	}
	if ok {
		if amt, ok := normAmount(v); ok {
			out[dto.FieldAmount] = amt
		}
	}

	v, ok = findAfter(lines, ewaVATLabel, amtTokenRx, 2)
	if !ok {
		v, ok = searchAcross(lines, ewaVATAcross)
	}
	if ok {
		if vat, ok := normAmount(v); ok {
			out[dto.FieldVATAmount] = vat
		}
	}

	return out
}

// Registry / resolver

var (
	beyonSupplierTokens = []string{"beyon", "batelco", "s0032"}
	ewaSupplierTokens   = []string{"ewa", "electricity", "water"}

	beyonTextRx = rx(`\bbeyon\b|\bbatelco\b`)
	ewaTextRx   = rx(`\bewa\b|\belectricity\b`)

	vendorParsers = map[string]func(string) map[string]any{
		"beyon": ParseBeyonText,
		"ewa":   ParseEWAText,
	}
)

// ResolveVendorKey identifies a known vendor from the supplier hint or,
// failing that, from vendor-identifying tokens in the document text.
func ResolveVendorKey(supplierHint, fullText string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(supplierHint))
	t := strings.ToLower(fullText)

	if containsAny(s, beyonSupplierTokens) || beyonTextRx.MatchString(t) {
		return "beyon", true
	}
	if containsAny(s, ewaSupplierTokens) || ewaTextRx.MatchString(t) {
		return "ewa", true
	}
	return "", false
}

// ParseVendorFields runs the registered parser for a resolved vendor key.
func ParseVendorFields(key, fullText string) map[string]any {
	parser, ok := vendorParsers[key]
	if !ok {
		return nil
	}
	return parser(fullText)
}

func containsAny(s string, tokens []string) bool {
	if s == "" {
		return false
	}
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
