package core_test

import (
	"testing"

	"billing-service/internal/core"

	"github.com/stretchr/testify/assert"
)

func set(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestAllocateID(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		next     int
		existing map[string]struct{}
		wantID   string
		wantUsed int
	}{
		{"skips existing ids", "FAC", 1, set("FAC-0001", "FAC-0002"), "FAC-0003", 3},
		{"first free candidate", "FAC", 5, set("FAC-0001"), "FAC-0005", 5},
		{"empty snapshot", "COT", 1, nil, "COT-0001", 1},
		{"gap is not backfilled", "FAC", 2, set("FAC-0002", "FAC-0004"), "FAC-0003", 3},
		{"other prefixes do not collide", "GAS", 1, set("FAC-0001"), "GAS-0001", 1},
		{"non-positive start is clamped", "FAC", 0, nil, "FAC-0001", 1},
		{"wider than four digits", "FAC", 10000, nil, "FAC-10000", 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, used := core.AllocateID(tt.prefix, tt.next, tt.existing)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantUsed, used)
		})
	}
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, "FAC", core.DefaultPrefix(core.TypeInvoice))
	assert.Equal(t, "COT", core.DefaultPrefix(core.TypeQuote))
	assert.Equal(t, "GAS", core.DefaultPrefix(core.TypeExpense))
}
