package buffer

import "errors"

var (
	// ErrBufferExhausted is returned by Get/Alloc when every frame is
	// pinned and none can be chosen as a victim.
	ErrBufferExhausted = errors.New("buffer: exhausted, no unpinned frame available")
	// ErrPageAlreadyPinned is returned when a forced eviction would have
	// to evict a pinned frame. Victim selection must never let this
	// happen (invariant 1); reaching this error indicates a caller
	// bypassed the pool's own bookkeeping.
	ErrPageAlreadyPinned = errors.New("buffer: page already pinned")
	// ErrDoubleUnfix is returned by Unfix on a frame with pin count 0.
	ErrDoubleUnfix = errors.New("buffer: double-unfix of an already-unpinned frame")
	// ErrPoolNotEmpty is returned by SetCapacity/SetDefaultPolicy when
	// the pool holds resident frames; configuration is only permitted on
	// an empty pool (§5).
	ErrPoolNotEmpty = errors.New("buffer: pool is not empty")
	// ErrPinLeaked is returned by FlushFile when a frame belonging to
	// the flushed file is still pinned; the frame is left resident
	// rather than force-evicted.
	ErrPinLeaked = errors.New("buffer: pin leaked past close")
	// ErrFileNotRegistered is returned when an operation names a FileID
	// the pool has no backing store for.
	ErrFileNotRegistered = errors.New("buffer: file not registered with pool")
	// ErrPageNotResident names the page-not-in-pool condition. No Pool
	// method returns it at present: Unfix on a frame with no pins
	// reports ErrDoubleUnfix instead.
	ErrPageNotResident = errors.New("buffer: page not resident in pool")
)
