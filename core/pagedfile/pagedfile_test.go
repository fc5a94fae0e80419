package pagedfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
)

const testPageSize = 256

func newTestFile(t *testing.T, capacity int) (*File, *buffer.Pool, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, Create(path, testPageSize))
	pool := buffer.NewDefaultPool(capacity, testPageSize, buffer.LRU)
	f, err := Open(pool, path, nil)
	require.NoError(t, err)
	return f, pool, path
}

func TestCreateRejectsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.db")
	require.NoError(t, Create(path, testPageSize))
	require.ErrorIs(t, Create(path, testPageSize), ErrFileExists)
}

func TestDestroyMissingFile(t *testing.T) {
	require.ErrorIs(t, Destroy(filepath.Join(t.TempDir(), "nope.db")), ErrFileNotFound)
}

func TestAllocPageAppendsThenReusesFreeList(t *testing.T) {
	f, _, _ := newTestFile(t, 8)
	defer f.Close()

	p1, _, err := f.AllocPage()
	require.NoError(t, err)
	require.Equal(t, uint64(1), p1)
	require.NoError(t, f.UnfixPage(p1, true))

	p2, _, err := f.AllocPage()
	require.NoError(t, err)
	require.Equal(t, uint64(2), p2)
	require.NoError(t, f.UnfixPage(p2, true))

	require.NoError(t, f.DisposePage(p1))

	p3, _, err := f.AllocPage()
	require.NoError(t, err)
	require.Equal(t, uint64(1), p3, "disposed page should be reused before extending the file")
	require.NoError(t, f.UnfixPage(p3, true))
}

func TestGetThisPageOnDisposedPageFails(t *testing.T) {
	f, _, _ := newTestFile(t, 8)
	defer f.Close()

	p, _, err := f.AllocPage()
	require.NoError(t, err)
	require.NoError(t, f.UnfixPage(p, true))
	require.NoError(t, f.DisposePage(p))

	_, err = f.GetThisPage(p)
	require.ErrorIs(t, err, ErrPageFreed)
}

func TestGetThisPageAlreadyPinnedIsRecoverable(t *testing.T) {
	f, _, _ := newTestFile(t, 8)
	defer f.Close()

	p, _, err := f.AllocPage()
	require.NoError(t, err)
	require.NoError(t, f.UnfixPage(p, false))

	_, err = f.GetThisPage(p)
	require.NoError(t, err)

	_, err = f.GetThisPage(p)
	require.ErrorIs(t, err, ErrPageAlreadyPinned)

	require.NoError(t, f.UnfixPage(p, false))
}

func TestDisposeRejectsPinnedPage(t *testing.T) {
	f, _, _ := newTestFile(t, 8)
	defer f.Close()

	p, _, err := f.AllocPage()
	require.NoError(t, err)
	require.ErrorIs(t, f.DisposePage(p), ErrPageStillPinned)
	require.NoError(t, f.UnfixPage(p, false))
}

func TestIteratorSkipsDisposedPages(t *testing.T) {
	f, _, _ := newTestFile(t, 8)
	defer f.Close()

	var pages []uint64
	for i := 0; i < 4; i++ {
		p, _, err := f.AllocPage()
		require.NoError(t, err)
		require.NoError(t, f.UnfixPage(p, true))
		pages = append(pages, p)
	}
	require.NoError(t, f.DisposePage(pages[1]))

	var seen []uint64
	page, _, err := f.GetFirstPage()
	for err == nil {
		seen = append(seen, page)
		require.NoError(t, f.UnfixPage(page, false))
		page, _, err = f.GetNextPage(page)
	}
	require.ErrorIs(t, err, ErrEndOfPages)
	require.Equal(t, []uint64{pages[0], pages[2], pages[3]}, seen)
}

func TestFreeListSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	require.NoError(t, Create(path, testPageSize))
	pool := buffer.NewDefaultPool(4, testPageSize, buffer.LRU)

	f, err := Open(pool, path, nil)
	require.NoError(t, err)
	p, _, err := f.AllocPage()
	require.NoError(t, err)
	require.NoError(t, f.UnfixPage(p, true))
	require.NoError(t, f.DisposePage(p))
	require.NoError(t, f.Close())

	f2, err := Open(pool, path, nil)
	require.NoError(t, err)
	defer f2.Close()

	_, err = f2.GetThisPage(p)
	require.ErrorIs(t, err, ErrPageFreed)

	reused, _, err := f2.AllocPage()
	require.NoError(t, err)
	require.Equal(t, p, reused)
	require.NoError(t, f2.UnfixPage(reused, true))
}
