package service

import (
	"strings"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
)

// Duplicate-cue rules. The default matches on supplier, bill number and
// bill date; the fingerprint rule flags byte-identical uploads.
const (
	DupRuleSupplierBillNoDate = "Supplier + Bill No + Bill Date"
	DupRuleSupplierBillNo     = "Supplier + Bill No"
	DupRuleSHA1               = "File Fingerprint (SHA1)"
)

// RunCache holds state scoped to one batch run. A fresh cache is built per
// run and discarded with it, so nothing accumulates across the lifetime of
// the process.
type RunCache struct {
	seen map[string]struct{}
}

func NewRunCache() *RunCache {
	return &RunCache{seen: make(map[string]struct{})}
}

// MarkSeen records a duplicate-cue key and reports whether an earlier row
// in the same run already produced it.
func (c *RunCache) MarkSeen(key string) bool {
	if _, ok := c.seen[key]; ok {
		return true
	}
	c.seen[key] = struct{}{}
	return false
}

// duplicateKey derives the cue key for a parsed row under the given rule.
// Rows lacking the fields the rule needs are never flagged.
func duplicateKey(rule string, row *dto.BatchRow) (string, bool) {
	switch rule {
	case DupRuleSHA1:
		if row.SHA1 == "" {
			return "", false
		}
		return "sha1|" + row.SHA1, true
	default:
		if row.Supplier == "" || row.BillNo == "" {
			return "", false
		}
		key := "bill|" + strings.ToLower(row.Supplier) + "|" + row.BillNo
		if rule == DupRuleSupplierBillNoDate && row.BillDate != "" {
			key += "|" + row.BillDate
		}
		return key, true
	}
}
