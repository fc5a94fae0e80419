package amindex

import (
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
)

const testPageSize = 512

func newTestIndex(t *testing.T, capacity int) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx.0")
	pool := buffer.NewDefaultPool(capacity, testPageSize, buffer.LRU)
	ix, err := Create(pool, path, nil)
	require.NoError(t, err)
	return ix
}

func TestInsertAndFindSingle(t *testing.T) {
	ix := newTestIndex(t, 16)
	defer ix.Close()

	require.NoError(t, ix.Insert(42, 1001))
	val, found, err := ix.Find(42)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1001), val)

	_, found, err = ix.Find(99)
	require.NoError(t, err)
	require.False(t, found)
}

func TestInsertManyKeysForcesSplitsAndGrowsHeight(t *testing.T) {
	ix := newTestIndex(t, 32)
	defer ix.Close()

	const n = 2000
	for i := int64(0); i < n; i++ {
		require.NoError(t, ix.Insert(i, i*10))
	}
	require.Greater(t, ix.Height(), int32(1), "enough keys should force at least one root split")

	for i := int64(0); i < n; i++ {
		val, found, err := ix.Find(i)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, i*10, val)
	}
}

func TestFindMissingKeyIsNotAnError(t *testing.T) {
	ix := newTestIndex(t, 16)
	defer ix.Close()
	for i := int64(0); i < 50; i++ {
		require.NoError(t, ix.Insert(i*2, i))
	}
	_, found, err := ix.Find(3)
	require.NoError(t, err)
	require.False(t, found)
}

// TestBuildOrderingsAreSemanticallyEquivalent reproduces spec scenario 4:
// building the same key set via ascending, descending, and random
// insertion orders yields the same found/not-found verdict for every
// query key across all three.
func TestBuildOrderingsAreSemanticallyEquivalent(t *testing.T) {
	const n = 500
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i)
	}

	sorted := append([]int64(nil), keys...)
	descending := append([]int64(nil), keys...)
	sort.Slice(descending, func(i, j int) bool { return descending[i] > descending[j] })
	random := append([]int64(nil), keys...)
	rand.New(rand.NewSource(7)).Shuffle(len(random), func(i, j int) { random[i], random[j] = random[j], random[i] })

	build := func(order []int64) *Index {
		ix := newTestIndex(t, 32)
		for _, k := range order {
			require.NoError(t, ix.Insert(k, k*100))
		}
		return ix
	}

	sortedIdx := build(sorted)
	defer sortedIdx.Close()
	descIdx := build(descending)
	defer descIdx.Close()
	randIdx := build(random)
	defer randIdx.Close()

	queries := []int64{-1, 0, 1, 250, 499, 500, 10000}
	for _, q := range queries {
		_, sortedFound, err := sortedIdx.Find(q)
		require.NoError(t, err)
		_, descFound, err := descIdx.Find(q)
		require.NoError(t, err)
		_, randFound, err := randIdx.Find(q)
		require.NoError(t, err)
		require.Equal(t, sortedFound, descFound, "query %d", q)
		require.Equal(t, sortedFound, randFound, "query %d", q)
	}
}

