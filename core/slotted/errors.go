package slotted

import "errors"

var (
	// ErrNoSpace is returned by Insert when a record does not fit even
	// after compaction, and by the slot-directory allocator when the
	// maximum slot count for this page size has been reached.
	ErrNoSpace = errors.New("slotted: no space for record")
	// ErrInvalidSlot is returned by Get/Delete for a slot ID outside
	// [0, slotCount) or one that names a tombstone.
	ErrInvalidSlot = errors.New("slotted: invalid or deleted slot")
	// ErrEmpty is returned by cursor iteration once no live record
	// remains at or after the cursor.
	ErrEmpty = errors.New("slotted: no more records")
)
