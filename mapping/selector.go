package mapping

import (
	"sort"
	"strings"
)

// ProfileSource is the store view the selector queries: active profiles
// for an exact supplier, and all active profiles for keyword scoring.
type ProfileSource interface {
	ActiveBySupplier(supplier string) []*Profile
	Active() []*Profile
}

// Selector picks the mapping profile to apply to a document.
type Selector struct {
	source ProfileSource
}

func NewSelector(source ProfileSource) *Selector {
	return &Selector{source: source}
}

// Select resolves the profile for a document in two phases: an exact
// supplier-hint match ranked by (priority asc, recency desc), otherwise
// keyword scoring over every active profile. A matching hint never falls
// through to scoring. Returns nil when nothing matches.
func (s *Selector) Select(supplierHint, fullText string) *Profile {
	if hint := strings.TrimSpace(supplierHint); hint != "" {
		if p := s.bySupplier(hint); p != nil {
			return p
		}
	}
	return s.byKeywords(fullText)
}

func (s *Selector) bySupplier(hint string) *Profile {
	recs := s.source.ActiveBySupplier(hint)
	if len(recs) == 0 {
		return nil
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority < recs[j].Priority
		}
		return recs[i].Modified.After(recs[j].Modified)
	})
	return recs[0]
}

func (s *Selector) byKeywords(fullText string) *Profile {
	textLC := strings.ToLower(fullText)

	type scored struct {
		hits int
		p    *Profile
	}
	var candidates []scored
	for _, p := range s.source.Active() {
		kws := p.KeywordsList()
		if len(kws) == 0 {
			continue
		}
		hits := 0
		for _, kw := range kws {
			if strings.Contains(textLC, kw) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		candidates = append(candidates, scored{hits: hits, p: p})
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.hits != b.hits {
			return a.hits > b.hits
		}
		if a.p.Priority != b.p.Priority {
			return a.p.Priority < b.p.Priority
		}
		return a.p.Name < b.p.Name
	})
	return candidates[0].p
}
