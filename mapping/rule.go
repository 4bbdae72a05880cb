package mapping

import (
	"fmt"
	"regexp"
	"strings"
)

// Method is the closed set of rule extraction methods.
type Method string

const (
	MethodRegex       Method = "Regex"
	MethodNextNumber  Method = "Next Number"
	MethodNextDate    Method = "Next Date"
	MethodAmountAfter Method = "Amount After"
)

// ParseMethod normalizes a configured method name. Both the spaced and the
// compact spellings are accepted.
func ParseMethod(s string) (Method, error) {
	switch strings.TrimSpace(s) {
	case "Regex":
		return MethodRegex, nil
	case "Next Number", "NextNumber":
		return MethodNextNumber, nil
	case "Next Date", "NextDate":
		return MethodNextDate, nil
	case "Amount After", "AmountAfter":
		return MethodAmountAfter, nil
	}
	return "", fmt.Errorf("unsupported method: %q", s)
}

// fieldKeyMap maps configuration field labels to canonical engine keys.
var fieldKeyMap = map[string]string{
	"Bill No":        "bill_no",
	"Bill Date":      "bill_date",
	"Due Date":       "due_date",
	"Amount":         "amount",
	"Bill Profile":   "bill_profile",
	"Account Number": "account_no",
	"VAT Amount":     "vat_amount",
}

// FieldKey normalizes a configured field label to its engine key. Labels
// without a canonical mapping become lower-cased snake case.
func FieldKey(label string) string {
	ui := strings.TrimSpace(label)
	if mapped, ok := fieldKeyMap[ui]; ok {
		return mapped
	}
	return strings.ReplaceAll(strings.ToLower(ui), " ", "_")
}

// FieldRule is one extraction instruction as written in a mapping profile
// document. Pattern is used only by the Regex method; Label anchors the
// derived patterns of the other three.
type FieldRule struct {
	Field       string  `yaml:"field" json:"field"`
	Method      string  `yaml:"method" json:"method"`
	Pattern     string  `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Label       string  `yaml:"label,omitempty" json:"label,omitempty"`
	GroupIndex  FlexInt `yaml:"group_index,omitempty" json:"group_index,omitempty"`
	Required    bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Postprocess string  `yaml:"postprocess,omitempty" json:"postprocess,omitempty"`
	PageScope   string  `yaml:"page_scope,omitempty" json:"page_scope,omitempty"`
}

// EngineRule is the effective, compiled form of a FieldRule. For non-Regex
// methods Pattern is derived from the label and the group index is always 1.
type EngineRule struct {
	Field       string
	Pattern     string
	Flags       string
	GroupIndex  int
	Required    bool
	Postprocess Postprocess
	PageScope   string
	Method      Method
	Label       string

	re *regexp.Regexp
}

// Matching is case-insensitive for every method.
const defaultFlags = "i"

// Value shapes appended to escaped labels by the non-Regex methods, and the
// punctuation bridge tolerated between a label and its value.
const (
	labelBridge = `\s*[\.:\-–—]?\s*`
	numberValue = `([0-9][0-9,\.\-\/]*)`
	dateDMonY   = `[0-9]{1,2}\s+[A-Za-z]{3,}\s+[0-9]{2,4}`
	dateDMY     = `[0-9]{1,2}[\/\-][0-9]{1,2}[\/\-][0-9]{2,4}`
	dateYMD     = `[0-9]{4}[\/\-][0-9]{1,2}[\/\-][0-9]{1,2}`
	amountValue = `([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{1,3})?|[0-9]+(?:\.[0-9]{1,3})?)`
)

// escapeLabel quotes a label for use in a derived pattern, making the
// whitespace between its words elastic.
func escapeLabel(label string) string {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func effectivePattern(method Method, label string) string {
	esc := escapeLabel(label)
	switch method {
	case MethodNextNumber:
		return esc + labelBridge + numberValue
	case MethodNextDate:
		return esc + labelBridge + "(" + dateDMonY + "|" + dateDMY + "|" + dateYMD + ")"
	case MethodAmountAfter:
		return esc + labelBridge + `(?:\(.*?\))?\s*` + amountValue
	}
	return ""
}

func applyFlags(pattern, flags string) string {
	if strings.Contains(flags, "i") {
		return "(?i)" + pattern
	}
	return pattern
}

// compileRule converts a configured rule into its engine form. All
// validation of the rule happens here, at load time; idx is the 1-based
// rule position used in error reports.
func compileRule(profile string, idx int, fr FieldRule) (EngineRule, error) {
	method, err := ParseMethod(fr.Method)
	if err != nil {
		return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: err.Error()}
	}

	field := FieldKey(fr.Field)
	if field == "" {
		return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: "field is required"}
	}

	post, err := ParsePostprocess(fr.Postprocess)
	if err != nil {
		return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: err.Error()}
	}

	group := int(fr.GroupIndex)
	if group < 1 {
		group = 1
	}

	label := strings.TrimSpace(fr.Label)
	var pattern string
	switch method {
	case MethodRegex:
		if strings.TrimSpace(fr.Pattern) == "" {
			return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: "pattern is required when method is Regex"}
		}
		pattern = fr.Pattern
	default:
		if label == "" {
			return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: fmt.Sprintf("label is required when method is %q", method)}
		}
		pattern = effectivePattern(method, label)
		// derived patterns carry exactly one capture group
		group = 1
	}

	re, err := regexp.Compile(applyFlags(pattern, defaultFlags))
	if err != nil {
		return EngineRule{}, &ConfigurationError{Profile: profile, Rule: idx, Reason: fmt.Sprintf("invalid pattern: %v", err)}
	}

	return EngineRule{
		Field:       field,
		Pattern:     pattern,
		Flags:       defaultFlags,
		GroupIndex:  group,
		Required:    fr.Required,
		Postprocess: post,
		PageScope:   strings.TrimSpace(fr.PageScope),
		Method:      method,
		Label:       label,
		re:          re,
	}, nil
}
