package mapping

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports an invalid profile or rule, surfaced at load
// time rather than during extraction.
type ConfigurationError struct {
	Profile string
	Rule    int // 1-based rule position, 0 for profile-level problems
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Rule > 0 {
		return fmt.Sprintf("mapping %q rule %d: %s", e.Profile, e.Rule, e.Reason)
	}
	return fmt.Sprintf("mapping %q: %s", e.Profile, e.Reason)
}

// Profile is a named, prioritized rule set bound to one supplier. Profiles
// are read-only to the pipeline once loaded.
type Profile struct {
	Name     string        `yaml:"name,omitempty" json:"name,omitempty"`
	Supplier string        `yaml:"supplier" json:"supplier"`
	Priority FlexInt       `yaml:"priority,omitempty" json:"priority,omitempty"`
	Active   *bool         `yaml:"active,omitempty" json:"active,omitempty"`
	Keywords KeywordSource `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Rules    []FieldRule   `yaml:"rules" json:"rules"`

	// Modified is the source document's modification time, set by the
	// store. Recency breaks priority ties during selection.
	Modified time.Time `yaml:"-" json:"-"`

	engineRules []EngineRule
}

// IsActive reports whether the profile participates in selection. Profiles
// that do not say are active.
func (p *Profile) IsActive() bool {
	return p.Active == nil || *p.Active
}

// KeywordsList returns the profile's keywords lower-cased, trimmed and
// de-duplicated, preserving first-seen order. Comma and newline separators
// are both accepted in the source.
func (p *Profile) KeywordsList() []string {
	text := strings.ReplaceAll(string(p.Keywords), ",", "\n")
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(text, "\n") {
		kw := strings.ToLower(strings.TrimSpace(line))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

// Normalize validates the profile and compiles every rule into its engine
// form. The first problem found is returned as a ConfigurationError.
func (p *Profile) Normalize() error {
	p.Name = strings.TrimSpace(p.Name)
	p.Supplier = strings.TrimSpace(p.Supplier)
	if p.Supplier == "" {
		return &ConfigurationError{Profile: p.Name, Reason: "supplier is required"}
	}
	if p.Priority == 0 {
		p.Priority = 10
	}
	p.Keywords = KeywordSource(strings.TrimSpace(string(p.Keywords)))

	p.engineRules = make([]EngineRule, 0, len(p.Rules))
	for i, fr := range p.Rules {
		er, err := compileRule(p.Name, i+1, fr)
		if err != nil {
			return err
		}
		p.engineRules = append(p.engineRules, er)
	}
	return nil
}

// EngineRules returns the compiled rules produced by Normalize.
func (p *Profile) EngineRules() []EngineRule {
	return p.engineRules
}

// FlexInt tolerates the loose typing of hand-edited profile documents:
// numbers, numeric strings and blanks all decode, anything else collapses
// to zero so the caller's defaulting applies.
type FlexInt int

func (f *FlexInt) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = FlexInt(n)
			return nil
		}
	}
	*f = 0
	return nil
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*f = FlexInt(n)
			return nil
		}
	}
	*f = 0
	return nil
}

// KeywordSource accepts either a comma/newline separated string or a plain
// list in profile documents.
type KeywordSource string

func (k *KeywordSource) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*k = KeywordSource(strings.Join(items, "\n"))
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*k = KeywordSource(s)
	return nil
}

func (k *KeywordSource) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err == nil {
		*k = KeywordSource(strings.Join(items, "\n"))
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*k = KeywordSource(s)
	return nil
}
