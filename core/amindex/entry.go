package amindex

import (
	"encoding/binary"
	"sort"

	"github.com/Aashcharya1/toydb-storage-engine/core/slotted"
)

// entry is one (key, value) pair. In a leaf, value is a record ID; in an
// internal node, value is a child page number. Both are stored in the
// same fixed 16-byte shape so a single split routine serves either kind
// of node.
type entry struct {
	key int64
	val int64
}

const entrySize = 16

func encodeEntry(e entry) []byte {
	buf := make([]byte, entrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.key))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.val))
	return buf
}

func decodeEntry(buf []byte) entry {
	return entry{
		key: int64(binary.LittleEndian.Uint64(buf[0:8])),
		val: int64(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

// decodeAll returns every live entry on a node page, sorted by key.
func decodeAll(page []byte) []entry {
	var entries []entry
	c := slotted.NewCursor()
	for {
		_, data, err := c.Next(page)
		if err != nil {
			break
		}
		entries = append(entries, decodeEntry(data))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}

// sortEntries orders entries by key in place, used after appending a
// single new entry to an already-sorted slice from decodeAll.
func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
}

// rewritePage clears a node page and reinserts entries in order,
// preserving its leaf/internal tag.
func rewritePage(page []byte, isLeaf bool, entries []entry) {
	slotted.Init(page)
	if !isLeaf {
		slotted.SetAttr(page, attrInternal)
	}
	for _, e := range entries {
		if _, err := slotted.Insert(page, encodeEntry(e)); err != nil {
			// maxEntriesPerNode is sized to always leave headroom for
			// exactly this many 16-byte entries; a failure here means
			// the caller's split arithmetic is wrong.
			panic("amindex: rewritePage: entry set does not fit, split threshold miscalculated")
		}
	}
}

// maxEntriesPerNode is the split threshold: the largest number of
// 16-byte entries guaranteed to fit on a freshly initialized page,
// leaving the whole slot-directory-plus-heap budget available.
func maxEntriesPerNode(pageSize int) int {
	return (pageSize - 8) / (entrySize + 4)
}

// findChildIndex returns the index of the entry whose subtree covers
// key: the last entry whose key is <= key, or 0 if key precedes every
// entry (covering the leftmost subtree).
func findChildIndex(entries []entry, key int64) int {
	idx := 0
	for i, e := range entries {
		if e.key <= key {
			idx = i
		} else {
			break
		}
	}
	return idx
}
