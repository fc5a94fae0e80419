// Package slotted implements the slotted-page record layout: a fixed
// header, a slot directory growing downward from it, and a record heap
// growing upward from the page's end, with in-place compaction when a
// new record's demand for contiguous space can only be met by squeezing
// out the gaps tombstoned deletions have left behind.
//
// It is purely a codec over a page-sized byte buffer — no I/O, no
// knowledge of the buffer pool or paged-file layer above it — grounded
// directly on the reference slotted-page implementation's byte layout
// (header, then a downward-growing slot directory of (offset, length)
// pairs, then upward-growing record data).
package slotted

import (
	"encoding/binary"
	"sort"
)

const (
	headerSize    = 8 // slotCount, freeListHead, freePtr, attrLength: four int16 fields
	slotEntrySize = 4 // offset, length: two int16 fields
	invalidSlot   = -1
)

// Header is a decoded view of a slotted page's fixed header fields.
type Header struct {
	SlotCount    int16
	FreeListHead int16
	FreePtr      int16
	AttrLength   int16
}

func readHeader(page []byte) Header {
	return Header{
		SlotCount:    readInt16(page, 0),
		FreeListHead: readInt16(page, 2),
		FreePtr:      readInt16(page, 4),
		AttrLength:   readInt16(page, 6),
	}
}

func writeHeader(page []byte, h Header) {
	writeInt16(page, 0, h.SlotCount)
	writeInt16(page, 2, h.FreeListHead)
	writeInt16(page, 4, h.FreePtr)
	writeInt16(page, 6, h.AttrLength)
}

func readInt16(page []byte, off int) int16 {
	return int16(binary.LittleEndian.Uint16(page[off : off+2]))
}

func writeInt16(page []byte, off int, v int16) {
	binary.LittleEndian.PutUint16(page[off:off+2], uint16(v))
}

func slotOffset(idx int16) int {
	return headerSize + int(idx)*slotEntrySize
}

type slotEntry struct {
	offset int16
	length int16
}

func readSlot(page []byte, idx int16) slotEntry {
	off := slotOffset(idx)
	return slotEntry{offset: readInt16(page, off), length: readInt16(page, off+2)}
}

func writeSlot(page []byte, idx int16, s slotEntry) {
	off := slotOffset(idx)
	writeInt16(page, off, s.offset)
	writeInt16(page, off+2, s.length)
}

// maxSlots is the largest slot count the directory can hold before it
// would collide with the record heap if the heap were empty.
func maxSlots(pageSize int) int16 {
	return int16((pageSize - headerSize) / slotEntrySize)
}

// Init zeroes the page and sets up an empty slotted page: no slots, an
// empty tombstone free list, and a heap pointer at the page's end.
func Init(page []byte) {
	for i := range page {
		page[i] = 0
	}
	writeHeader(page, Header{SlotCount: 0, FreeListHead: invalidSlot, FreePtr: int16(len(page)), AttrLength: 0})
}

// Attr returns the page's attrLength header field. The reference codec
// never assigns it meaning beyond zero-initialization; callers above
// this package (core/amindex) repurpose it as a small tag distinguishing
// node kinds on an otherwise uniform page.
func Attr(page []byte) int16 { return readHeader(page).AttrLength }

// SetAttr overwrites the page's attrLength header field.
func SetAttr(page []byte, v int16) {
	h := readHeader(page)
	h.AttrLength = v
	writeHeader(page, h)
}

// FreeSpace returns the number of bytes available between the end of the
// slot directory and the start of the record heap.
func FreeSpace(page []byte) int {
	h := readHeader(page)
	used := headerSize + int(h.SlotCount)*slotEntrySize
	return int(h.FreePtr) - used
}

// UsedBytes returns the total length of every live (non-tombstoned)
// record on the page.
func UsedBytes(page []byte) int {
	h := readHeader(page)
	total := 0
	for i := int16(0); i < h.SlotCount; i++ {
		s := readSlot(page, i)
		if s.length > 0 {
			total += int(s.length)
		}
	}
	return total
}

func reserveSlot(page []byte) (int16, error) {
	h := readHeader(page)
	if h.FreeListHead != invalidSlot {
		id := h.FreeListHead
		s := readSlot(page, id)
		h.FreeListHead = s.offset
		writeHeader(page, h)
		return id, nil
	}
	if h.SlotCount >= maxSlots(len(page)) {
		return 0, ErrNoSpace
	}
	id := h.SlotCount
	h.SlotCount++
	writeHeader(page, h)
	return id, nil
}

func ensureSpace(page []byte, needed int) error {
	if FreeSpace(page) >= needed {
		return nil
	}
	Compact(page)
	if FreeSpace(page) >= needed {
		return nil
	}
	return ErrNoSpace
}

// Insert copies data onto the page's record heap and reserves a slot
// directory entry for it, compacting first if necessary. Returns the new
// record's slot ID.
func Insert(page []byte, data []byte) (int16, error) {
	if len(data) <= 0 || len(data) > 1<<15-1 {
		return 0, ErrNoSpace
	}
	length := int16(len(data))
	h := readHeader(page)

	needSlotBytes := 0
	if h.FreeListHead == invalidSlot {
		needSlotBytes = slotEntrySize
	}
	if err := ensureSpace(page, int(length)+needSlotBytes); err != nil {
		return 0, err
	}

	h = readHeader(page)
	dest := h.FreePtr - length
	if int(dest) < headerSize {
		return 0, ErrNoSpace
	}
	copy(page[dest:int(dest)+len(data)], data)
	h.FreePtr = dest
	writeHeader(page, h)

	id, err := reserveSlot(page)
	if err != nil {
		return 0, err
	}
	writeSlot(page, id, slotEntry{offset: dest, length: length})
	return id, nil
}

// Delete tombstones a slot, threading it onto the page's in-page free
// list of reusable slot IDs. The record's bytes are left in place until
// the next compaction.
func Delete(page []byte, slotID int16) error {
	h := readHeader(page)
	if slotID < 0 || slotID >= h.SlotCount {
		return ErrInvalidSlot
	}
	s := readSlot(page, slotID)
	if s.length <= 0 {
		return ErrInvalidSlot
	}
	writeSlot(page, slotID, slotEntry{offset: h.FreeListHead, length: -1})
	h.FreeListHead = slotID
	writeHeader(page, h)
	return nil
}

// Get returns a view onto a live record's bytes. The returned slice
// aliases the page buffer; callers that need the data to outlive the
// page's next mutation must copy it.
func Get(page []byte, slotID int16) ([]byte, error) {
	h := readHeader(page)
	if slotID < 0 || slotID >= h.SlotCount {
		return nil, ErrInvalidSlot
	}
	s := readSlot(page, slotID)
	if s.length <= 0 {
		return nil, ErrInvalidSlot
	}
	return page[s.offset : int(s.offset)+int(s.length)], nil
}

// Cursor is a resumable, forward-only walk over a single page's live
// records, in slot order.
type Cursor struct {
	pos int16
}

// NewCursor returns a cursor positioned before the first slot.
func NewCursor() *Cursor {
	return &Cursor{pos: invalidSlot}
}

// Next advances the cursor to the next live record on the page,
// returning its slot ID and a view of its bytes. Returns ErrEmpty once
// exhausted; the cursor is then reusable from the start via a fresh
// NewCursor.
func (c *Cursor) Next(page []byte) (int16, []byte, error) {
	h := readHeader(page)
	start := c.pos + 1
	for i := start; i < h.SlotCount; i++ {
		s := readSlot(page, i)
		if s.length > 0 {
			c.pos = i
			return i, page[s.offset : int(s.offset)+int(s.length)], nil
		}
	}
	c.pos = invalidSlot
	return 0, nil, ErrEmpty
}

// Compact repacks live records against the end of the page in
// descending order of their current offset (a stable order that never
// requires moving one live record twice), reclaiming every byte the
// tombstoned deletions since the last compaction left behind.
func Compact(page []byte) {
	h := readHeader(page)
	type live struct {
		id int16
		s  slotEntry
	}
	active := make([]live, 0, h.SlotCount)
	for i := int16(0); i < h.SlotCount; i++ {
		s := readSlot(page, i)
		if s.length > 0 {
			active = append(active, live{id: i, s: s})
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].s.offset > active[j].s.offset })

	freePtr := int16(len(page))
	for _, l := range active {
		freePtr -= l.s.length
		if int(freePtr) < headerSize {
			freePtr = headerSize
		}
		if l.s.offset != freePtr {
			copy(page[freePtr:int(freePtr)+int(l.s.length)], page[l.s.offset:int(l.s.offset)+int(l.s.length)])
		}
		writeSlot(page, l.id, slotEntry{offset: freePtr, length: l.s.length})
	}
	h.FreePtr = freePtr
	writeHeader(page, h)
}
