package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyRules runs each compiled rule against the document text and returns
// the captured fields plus hit and error diagnostics. Rules are applied
// independently; a later rule targeting the same field key overwrites the
// earlier value. Error entries use distinct prefixes so callers can filter
// by severity: "no_match:" for a miss, "Missing required field:" when the
// miss was on a required rule.
func ApplyRules(rules []EngineRule, fullText string, pages []string) (map[string]any, []string, []string) {
	result := make(map[string]any)
	var hits, errs []string

	for _, r := range rules {
		if r.Field == "" || r.re == nil {
			continue
		}

		raw, found := r.capture(fullText, pages)
		if !found {
			errs = append(errs, noMatchDiag(r))
			if r.Required {
				errs = append(errs, "Missing required field: "+r.Field)
			}
			continue
		}

		value, keep, diag := Apply(r.Postprocess, r.Field, raw)
		if diag != "" {
			errs = append(errs, diag)
		}
		if !keep {
			continue
		}

		result[r.Field] = value
		hits = append(hits, fmt.Sprintf("hit:%s:%s", r.Field, truncate(fmt.Sprint(value), 40)))
	}

	return result, hits, errs
}

// capture searches the rule's page scope in order and returns the first
// match's requested group. Only the first match per candidate text is
// examined; if the requested group did not participate in it, the scan
// moves on to the next candidate.
func (r EngineRule) capture(fullText string, pages []string) (string, bool) {
	for _, text := range scopeTexts(r.PageScope, fullText, pages) {
		m := r.re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		g := r.GroupIndex
		if 2*g+1 >= len(m) || m[2*g] < 0 {
			continue
		}
		return text[m[2*g]:m[2*g+1]], true
	}
	return "", false
}

// scopeTexts resolves a page scope to the ordered candidate texts.
// Unresolvable scopes, including out-of-range page numbers, fall back to
// every page.
func scopeTexts(scope, fullText string, pages []string) []string {
	all := pages
	if len(all) == 0 {
		all = []string{fullText}
	}
	scope = strings.TrimSpace(scope)
	if scope == "" || scope == "all" {
		return all
	}
	if scope == "last" && len(pages) > 0 {
		return pages[len(pages)-1:]
	}
	if n, err := strconv.Atoi(scope); err == nil && n >= 1 && n <= len(pages) {
		return pages[n-1 : n]
	}
	return all
}

func noMatchDiag(r EngineRule) string {
	return fmt.Sprintf("no_match:%s:%s:%s::%s", r.Field, r.Method, r.Label, truncate(r.Pattern, 60))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
