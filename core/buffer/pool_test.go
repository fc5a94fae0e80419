package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
)

// memStore is an in-memory PageStore fake, letting tests count physical
// I/O without touching disk.
type memStore struct {
	pageSize int
	pages    map[uint64][]byte
	reads    int
	writes   int
}

func newMemStore(pageSize int) *memStore {
	return &memStore{pageSize: pageSize, pages: make(map[uint64][]byte)}
}

func (m *memStore) ReadPage(pageNumber uint64, buf []byte) error {
	m.reads++
	data, ok := m.pages[pageNumber]
	if !ok {
		data = make([]byte, m.pageSize)
	}
	copy(buf, data)
	return nil
}

func (m *memStore) WritePage(pageNumber uint64, buf []byte) error {
	m.writes++
	cp := make([]byte, m.pageSize)
	copy(cp, buf)
	m.pages[pageNumber] = cp
	return nil
}

func newTestPool(t *testing.T, capacity int, policy Policy) (*Pool, *memStore, FileID) {
	t.Helper()
	stats := pfstats.New()
	pool := NewPool(capacity, 64, policy, stats, nil)
	store := newMemStore(64)
	fid := pool.RegisterFile(store)
	return pool, store, fid
}

func getUnfix(t *testing.T, pool *Pool, fid FileID, page uint64, policy Policy) {
	t.Helper()
	f, err := pool.Get(fid, page, policy)
	require.NoError(t, err)
	require.NoError(t, pool.Unfix(f, false))
}

// TestSequentialReplaySecondPassAllMisses matches spec §8's LRU scenario:
// a 3-frame pool scanning pages 0..5 sequentially, unfixing immediately,
// then rescanning 0..5, sees a fresh miss on every page of the second
// pass because the working set never fits.
func TestSequentialReplaySecondPassAllMisses(t *testing.T) {
	pool, store, fid := newTestPool(t, 3, LRU)
	for p := uint64(0); p < 6; p++ {
		getUnfix(t, pool, fid, p, LRU)
	}
	require.Equal(t, 6, store.reads)

	for p := uint64(0); p < 6; p++ {
		getUnfix(t, pool, fid, p, LRU)
	}
	require.Equal(t, 12, store.reads)
}

// TestMRUAntiPathology matches spec §8: switching the same workload to
// MRU with buffers = pages-1 lets the last page fetched each pass survive
// into the next, cutting misses roughly in half versus LRU's full replay.
func TestMRUAntiPathology(t *testing.T) {
	pool, store, fid := newTestPool(t, 5, MRU)
	for p := uint64(0); p < 6; p++ {
		getUnfix(t, pool, fid, p, MRU)
	}
	require.Equal(t, 6, store.reads)

	for p := uint64(0); p < 6; p++ {
		getUnfix(t, pool, fid, p, MRU)
	}
	// Under MRU, filling 5 frames with pages 0..4 costs no eviction; page
	// 5 evicts whichever page was touched most recently (page 4). On the
	// second pass, pages 0..3 and 5 are all still resident; only page 4
	// misses again. One miss instead of LRU's full six-page replay.
	require.Equal(t, 7, store.reads)
}

func TestBufferExhaustedWhenAllPinned(t *testing.T) {
	pool, _, fid := newTestPool(t, 1, LRU)
	f, err := pool.Get(fid, 0, LRU)
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = pool.Get(fid, 1, LRU)
	require.ErrorIs(t, err, ErrBufferExhausted)
}

func TestDoubleUnfixIsAnError(t *testing.T) {
	pool, _, fid := newTestPool(t, 2, LRU)
	f, err := pool.Get(fid, 0, LRU)
	require.NoError(t, err)
	require.NoError(t, pool.Unfix(f, false))
	require.ErrorIs(t, pool.Unfix(f, false), ErrDoubleUnfix)
}

func TestFlushFileReportsLeakedPin(t *testing.T) {
	pool, store, fid := newTestPool(t, 2, LRU)
	f, err := pool.Get(fid, 0, LRU)
	require.NoError(t, err)
	require.NoError(t, pool.MarkDirty(f))

	err = pool.FlushFile(fid)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrPinLeaked))
	// The leaked frame stays resident and dirty rather than force-evicted.
	require.Equal(t, 0, store.writes)

	require.NoError(t, pool.Unfix(f, false))
	require.NoError(t, pool.FlushFile(fid))
	require.Equal(t, 1, store.writes)
}

func TestDirtyVictimIsWrittenBackBeforeEviction(t *testing.T) {
	pool, store, fid := newTestPool(t, 1, LRU)
	f, err := pool.Get(fid, 0, LRU)
	require.NoError(t, err)
	require.NoError(t, pool.Unfix(f, true))
	require.Equal(t, 0, store.writes)

	_, err = pool.Get(fid, 1, LRU)
	require.NoError(t, err)
	require.Equal(t, 1, store.writes)
}

func TestAllocDoesNotIssuePhysicalRead(t *testing.T) {
	pool, store, fid := newTestPool(t, 1, LRU)
	f, err := pool.Alloc(fid, 0, LRU)
	require.NoError(t, err)
	require.Equal(t, 0, store.reads)
	require.NoError(t, pool.Unfix(f, false))
}

func TestSetCapacityRejectedWhenNotEmpty(t *testing.T) {
	pool, _, fid := newTestPool(t, 2, LRU)
	f, err := pool.Get(fid, 0, LRU)
	require.NoError(t, err)
	require.ErrorIs(t, pool.SetCapacity(4), ErrPoolNotEmpty)
	require.NoError(t, pool.Unfix(f, false))
}
