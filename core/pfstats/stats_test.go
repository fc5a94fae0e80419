package pfstats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryStartsZero(t *testing.T) {
	r := New()
	require.Equal(t, Stats{}, r.Snapshot())
}

func TestIncrementsAndReset(t *testing.T) {
	r := New()
	r.IncLogicalRead()
	r.IncLogicalWrite()
	r.IncPhysicalRead()
	r.IncPhysicalWrite()
	r.IncPageFix()
	r.IncDirtyMark()

	got := r.Snapshot()
	require.Equal(t, uint64(1), got.LogicalReads)
	require.Equal(t, uint64(1), got.LogicalWrites)
	require.Equal(t, uint64(1), got.PhysicalReads)
	require.Equal(t, uint64(1), got.PhysicalWrites)
	require.Equal(t, uint64(1), got.InputCount)
	require.Equal(t, uint64(1), got.OutputCount)
	require.Equal(t, uint64(1), got.PageFixes)
	require.Equal(t, uint64(1), got.DirtyMarks)

	r.Reset()
	require.Equal(t, Stats{}, r.Snapshot())
}

func TestPhysicalIOAliasesInputOutput(t *testing.T) {
	r := New()
	for i := 0; i < 5; i++ {
		r.IncPhysicalRead()
	}
	for i := 0; i < 3; i++ {
		r.IncPhysicalWrite()
	}
	got := r.Snapshot()
	require.Equal(t, got.PhysicalReads, got.InputCount)
	require.Equal(t, got.PhysicalWrites, got.OutputCount)
}

func TestPrintToContainsAllCounters(t *testing.T) {
	r := New()
	r.IncLogicalRead()
	var sb strings.Builder
	r.PrintTo(&sb)
	out := sb.String()
	for _, label := range []string{
		"logical reads", "logical writes", "physical reads", "physical writes",
		"input count", "output count", "page fixes", "dirty marks",
	} {
		require.Contains(t, out, label)
	}
}
