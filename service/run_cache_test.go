package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aplabs-bh/ocr-invoice-extraction/dto"
)

func TestRunCacheMarkSeen(t *testing.T) {
	c := NewRunCache()

	assert.False(t, c.MarkSeen("k"))
	assert.True(t, c.MarkSeen("k"))
	assert.False(t, c.MarkSeen("other"))
}

func TestDuplicateKeyRules(t *testing.T) {
	row := &dto.BatchRow{
		Supplier: "Beyon",
		BillNo:   "777",
		BillDate: "2025-01-05",
		SHA1:     "abc123",
	}

	key, ok := duplicateKey(DupRuleSupplierBillNoDate, row)
	assert.True(t, ok)
	assert.Equal(t, "bill|beyon|777|2025-01-05", key)

	key, ok = duplicateKey(DupRuleSupplierBillNo, row)
	assert.True(t, ok)
	assert.Equal(t, "bill|beyon|777", key)

	key, ok = duplicateKey(DupRuleSHA1, row)
	assert.True(t, ok)
	assert.Equal(t, "sha1|abc123", key)
}

func TestDuplicateKeyMissingFields(t *testing.T) {
	_, ok := duplicateKey(DupRuleSupplierBillNoDate, &dto.BatchRow{BillNo: "777"})
	assert.False(t, ok)

	_, ok = duplicateKey(DupRuleSupplierBillNo, &dto.BatchRow{Supplier: "Beyon"})
	assert.False(t, ok)

	_, ok = duplicateKey(DupRuleSHA1, &dto.BatchRow{})
	assert.False(t, ok)
}
