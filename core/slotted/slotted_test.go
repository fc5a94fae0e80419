package slotted

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newPage(size int) []byte {
	page := make([]byte, size)
	Init(page)
	return page
}

func TestInitLayout(t *testing.T) {
	page := newPage(256)
	h := readHeader(page)
	require.Equal(t, int16(0), h.SlotCount)
	require.Equal(t, int16(invalidSlot), h.FreeListHead)
	require.Equal(t, int16(256), h.FreePtr)
}

// TestInsertDeleteReuseAndUsedBytes reproduces the insert/no-space/
// tombstone-reuse walkthrough: three records fill most of a page, a
// fourth is too large to fit, and deleting one record reuses its slot
// for a smaller replacement without growing the slot directory. The
// page size is chosen so the fourth insert's no-space failure and the
// final used-byte total both land exactly as the scenario describes
// (3300 bytes of payload plus 20 bytes of header/directory overhead
// leaves too little headroom for one more 500-byte record, but just
// enough for a 150-byte one after the 200-byte record is tombstoned).
func TestInsertDeleteReuseAndUsedBytes(t *testing.T) {
	page := newPage(3800)

	id0, err := Insert(page, make([]byte, 100))
	require.NoError(t, err)
	id1, err := Insert(page, make([]byte, 200))
	require.NoError(t, err)
	id2, err := Insert(page, make([]byte, 3000))
	require.NoError(t, err)

	_, err = Insert(page, make([]byte, 500))
	require.ErrorIs(t, err, ErrNoSpace)

	require.NoError(t, Delete(page, id1))

	newID, err := Insert(page, make([]byte, 150))
	require.NoError(t, err)
	require.Equal(t, id1, newID, "the tombstoned slot should be reused rather than growing the directory")

	require.Equal(t, 3250, UsedBytes(page))

	rec0, err := Get(page, id0)
	require.NoError(t, err)
	require.Len(t, rec0, 100)
	rec2, err := Get(page, id2)
	require.NoError(t, err)
	require.Len(t, rec2, 3000)
}

func TestDeleteInvalidSlot(t *testing.T) {
	page := newPage(256)
	require.ErrorIs(t, Delete(page, 0), ErrInvalidSlot)

	id, err := Insert(page, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, Delete(page, id))
	require.ErrorIs(t, Delete(page, id), ErrInvalidSlot)
}

func TestGetTombstonedSlotFails(t *testing.T) {
	page := newPage(256)
	id, err := Insert(page, []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, Delete(page, id))
	_, err = Get(page, id)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestCursorSkipsTombstones(t *testing.T) {
	page := newPage(256)
	idA, _ := Insert(page, []byte("aaa"))
	idB, _ := Insert(page, []byte("bbbb"))
	idC, _ := Insert(page, []byte("ccccc"))
	require.NoError(t, Delete(page, idB))

	c := NewCursor()
	var got []int16
	for {
		id, data, err := c.Next(page)
		if err != nil {
			require.ErrorIs(t, err, ErrEmpty)
			break
		}
		got = append(got, id)
		require.NotEmpty(t, data)
	}
	require.Equal(t, []int16{idA, idC}, got)
}

// TestCompactionIsIdempotent asserts compact(compact(buf)) == compact(buf)
// on the live region, per the codec's testable properties.
func TestCompactionIsIdempotent(t *testing.T) {
	page := newPage(512)
	a, _ := Insert(page, []byte("one"))
	Insert(page, []byte("two"))
	c, _ := Insert(page, []byte("three"))
	require.NoError(t, Delete(page, a))

	Compact(page)
	first := append([]byte(nil), page...)
	Compact(page)
	require.Equal(t, first, page)

	rec, err := Get(page, c)
	require.NoError(t, err)
	require.Equal(t, "three", string(rec))
}

func TestRoundTripAfterCompaction(t *testing.T) {
	page := newPage(512)
	values := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma"), []byte("delta")}
	ids := make([]int16, len(values))
	for i, v := range values {
		id, err := Insert(page, v)
		require.NoError(t, err)
		ids[i] = id
	}
	require.NoError(t, Delete(page, ids[1]))
	Compact(page)

	for i, v := range values {
		if i == 1 {
			continue
		}
		rec, err := Get(page, ids[i])
		require.NoError(t, err)
		require.Equal(t, v, rec)
	}
}
