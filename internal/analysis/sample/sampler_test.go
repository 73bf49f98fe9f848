package sample

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datasleuth/server/internal/analysis/model"
)

func makeRecords(n int) []model.Record {
	records := make([]model.Record, n)
	for i := 0; i < n; i++ {
		records[i] = model.Record{"seq": fmt.Sprintf("%d", i)}
	}
	return records
}

func TestTakeIdentityWhenSmall(t *testing.T) {
	records := makeRecords(5)

	got := Take(records, 10, Stratified)

	require.Len(t, got, 5)
	assert.Equal(t, records, got)

	// The returned slice must not alias the source backing array.
	got[0]["seq"] = "mutated"
	got = append(got, model.Record{"seq": "extra"})
	assert.Len(t, records, 5)
}

func TestTakeStratifiedSizeAndOrder(t *testing.T) {
	records := makeRecords(1000)

	got := Take(records, 100, Stratified)

	require.Len(t, got, 100)
	assertSubsetInOrder(t, records, got)

	// Boundary rows survive sampling.
	assert.Equal(t, "0", got[0]["seq"])
	assert.Equal(t, "999", got[len(got)-1]["seq"])
}

func TestTakeSystematicSizeAndOrder(t *testing.T) {
	records := makeRecords(1003)

	got := Take(records, 100, Systematic)

	require.Len(t, got, 100)
	assertSubsetInOrder(t, records, got)
}

func TestTakeRandomSize(t *testing.T) {
	records := makeRecords(250)

	got := Take(records, 40, Random)

	require.Len(t, got, 40)
	seen := make(map[string]bool)
	for _, r := range got {
		require.False(t, seen[r["seq"]], "duplicate record %v", r)
		seen[r["seq"]] = true
	}
}

func TestTakeZeroTarget(t *testing.T) {
	assert.Empty(t, Take(makeRecords(3), 0, Stratified))
}

// assertSubsetInOrder checks every sampled record comes from the source and
// that relative order is preserved.
func assertSubsetInOrder(t *testing.T, source, got []model.Record) {
	t.Helper()
	last := -1
	index := make(map[string]int, len(source))
	for i, r := range source {
		index[r["seq"]] = i
	}
	for _, r := range got {
		pos, ok := index[r["seq"]]
		require.True(t, ok, "record %v not drawn from source", r)
		require.Greater(t, pos, last, "order not preserved at %v", r)
		last = pos
	}
}
