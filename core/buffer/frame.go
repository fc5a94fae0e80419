package buffer

import "container/list"

// FileID identifies one paged file registered with a Pool. Pools are
// parameterized rather than global (design note, §9): a caller obtains a
// FileID from Pool.RegisterFile when it opens a file, not from a
// process-wide table.
type FileID uint32

// InvalidFileID never names a registered file.
const InvalidFileID FileID = 0

// PageID is the (file, page number) pair a frame is keyed on. Two frames
// are never assigned the same PageID at once (invariant 2).
type PageID struct {
	File FileID
	Page uint64
}

// Frame is a fixed-size slot holding one page in memory. Its Data buffer
// is reused across residencies; only the metadata changes on eviction.
type Frame struct {
	id       PageID
	empty    bool
	pinCount int
	dirty    bool
	Data     []byte

	elem *list.Element // this frame's node in the pool's usage-order list
}

func newFrame(pageSize int) *Frame {
	return &Frame{
		empty: true,
		Data:  make([]byte, pageSize),
	}
}

// ID returns the frame's current (file, page) identity. Meaningless when
// the frame is empty.
func (f *Frame) ID() PageID { return f.id }

// PinCount returns the frame's current pin count.
func (f *Frame) PinCount() int { return f.pinCount }

// Dirty reports whether the frame has unwritten modifications.
func (f *Frame) Dirty() bool { return f.dirty }

func (f *Frame) reset() {
	f.empty = true
	f.pinCount = 0
	f.dirty = false
	f.id = PageID{}
	for i := range f.Data {
		f.Data[i] = 0
	}
}
