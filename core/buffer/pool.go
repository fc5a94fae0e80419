// Package buffer implements a fixed-capacity buffer pool with pin/unpin
// discipline and a selectable LRU/MRU replacement policy, sitting between
// the paged-file layer and the underlying disk files. It is the busiest
// component in the storage core (§2): every page fetch and release the
// harnesses issue flows through here. It records the physical I/O,
// page-fix and dirty-mark counters in core/pfstats; the paged-file layer
// above it records the logical read and write counters.
package buffer

import (
	"container/list"
	"fmt"

	"go.uber.org/zap"

	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
)

// PageStore is the disk-facing half of a registered file: whatever backs
// FileID must be able to read and write one page at a time. The paged-file
// layer implements this against an *os.File; tests can fake it entirely
// in memory.
type PageStore interface {
	ReadPage(pageNumber uint64, buf []byte) error
	WritePage(pageNumber uint64, buf []byte) error
}

// Pool is a fixed-capacity collection of frames, a hash index mapping
// (file,page) to frame, and a usage-order list whose head is the most
// recently touched frame and tail the least recently touched (§3). Pools
// are constructed explicitly and passed around rather than reached for as
// a global (design note, §9); NewDefaultPool exists purely as a
// convenience for callers that only ever need one.
type Pool struct {
	pageSize      int
	defaultPolicy Policy
	stats         *pfstats.Registry
	log           *zap.SugaredLogger

	frames []*Frame
	index  map[PageID]int
	order  *list.List // Value: frame index (int)

	stores     map[FileID]PageStore
	nextFileID FileID
}

// NewPool constructs a buffer pool with the given frame capacity, page
// size, and default replacement policy. A nil registry falls back to
// pfstats.Default; a nil logger produces no output.
func NewPool(capacity, pageSize int, defaultPolicy Policy, stats *pfstats.Registry, log *zap.Logger) *Pool {
	if stats == nil {
		stats = pfstats.Default
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pool{
		pageSize:      pageSize,
		defaultPolicy: defaultPolicy,
		stats:         stats,
		log:           log.Sugar(),
		index:         make(map[PageID]int),
		order:         list.New(),
		stores:        make(map[FileID]PageStore),
		nextFileID:    1, // 0 is InvalidFileID
	}
	p.frames = make([]*Frame, capacity)
	for i := range p.frames {
		p.frames[i] = newFrame(pageSize)
	}
	return p
}

// NewDefaultPool is the convenience constructor for callers that need
// only one pool and are content with pfstats.Default and no logging.
func NewDefaultPool(capacity, pageSize int, defaultPolicy Policy) *Pool {
	return NewPool(capacity, pageSize, defaultPolicy, nil, nil)
}

// PageSize returns the fixed page size frames in this pool hold.
func (p *Pool) PageSize() int { return p.pageSize }

// Capacity returns the total number of frames.
func (p *Pool) Capacity() int { return len(p.frames) }

// isEmpty reports whether no frame currently holds a page.
func (p *Pool) isEmpty() bool { return len(p.index) == 0 }

// SetCapacity changes the total number of frames. Only legal when the
// pool is empty.
func (p *Pool) SetCapacity(n int) error {
	if !p.isEmpty() {
		return ErrPoolNotEmpty
	}
	frames := make([]*Frame, n)
	for i := range frames {
		frames[i] = newFrame(p.pageSize)
	}
	p.frames = frames
	p.order = list.New()
	return nil
}

// SetDefaultPolicy changes the replacement policy used for newly-fetched
// pages whose caller does not override it. Only legal when the pool is
// empty (§5).
func (p *Pool) SetDefaultPolicy(policy Policy) error {
	if !p.isEmpty() {
		return ErrPoolNotEmpty
	}
	p.defaultPolicy = policy
	return nil
}

// DefaultPolicy returns the pool's current default replacement policy.
func (p *Pool) DefaultPolicy() Policy { return p.defaultPolicy }

// Stats returns the registry this pool reports its counters to, so
// layers above it (the paged-file layer's logical read/write counts)
// can share the exact same registry instance.
func (p *Pool) Stats() *pfstats.Registry { return p.stats }

// RegisterFile associates a FileID with the disk-facing store backing it,
// returning the newly minted FileID. Called by the paged-file layer's
// open/create.
func (p *Pool) RegisterFile(store PageStore) FileID {
	id := p.nextFileID
	p.nextFileID++
	p.stores[id] = store
	return id
}

// UnregisterFile drops the (file,store) association. The caller must have
// already flushed the file (FlushFile) so no frame still references it.
func (p *Pool) UnregisterFile(id FileID) {
	delete(p.stores, id)
}

// Get returns a pinned frame containing (fileID,pageNumber), either by
// locating it in the hash index (a hit) or by selecting a victim and
// reading the page from disk (a miss). See §4.2's miss protocol.
func (p *Pool) Get(fileID FileID, pageNumber uint64, policy Policy) (*Frame, error) {
	return p.fetch(fileID, pageNumber, policy, true)
}

// Alloc is identical to Get except no disk read is performed; the frame's
// contents are undefined until the caller initializes them. Used
// immediately after the paged-file layer has extended a file.
func (p *Pool) Alloc(fileID FileID, pageNumber uint64, policy Policy) (*Frame, error) {
	return p.fetch(fileID, pageNumber, policy, false)
}

func (p *Pool) fetch(fileID FileID, pageNumber uint64, policy Policy, doRead bool) (*Frame, error) {
	store, ok := p.stores[fileID]
	if !ok {
		return nil, ErrFileNotRegistered
	}
	id := PageID{File: fileID, Page: pageNumber}

	// 1. Hash lookup: hit.
	if idx, ok := p.index[id]; ok {
		f := p.frames[idx]
		p.order.MoveToFront(f.elem)
		f.pinCount++
		p.stats.IncPageFix()
		return f, nil
	}

	// 2. Miss: pick a frame to hold the new page, preferring a
	// genuinely empty one over evicting a resident page.
	idx, victimID, wasResident, err := p.selectFrame(policy)
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]

	if wasResident {
		// 3. Flush if dirty.
		if f.dirty {
			if err := p.stores[victimID.File].WritePage(victimID.Page, f.Data); err != nil {
				return nil, fmt.Errorf("buffer: writing back victim page %+v: %w", victimID, err)
			}
			p.stats.IncPhysicalWrite()
			f.dirty = false
		}
		// 4. Remove old identity.
		delete(p.index, victimID)
		p.order.Remove(f.elem)
		f.elem = nil
	}

	f.pinCount = 0
	f.dirty = false
	f.empty = true

	// 5. Read new page, unless this is an allocation.
	if doRead {
		if err := store.ReadPage(pageNumber, f.Data); err != nil {
			return nil, fmt.Errorf("buffer: reading page %d: %w", pageNumber, err)
		}
		p.stats.IncPhysicalRead()
	}

	// 6. Install new identity.
	f.id = id
	f.empty = false
	f.elem = p.order.PushFront(idx)
	p.index[id] = idx
	f.pinCount = 1
	p.stats.IncPageFix()
	return f, nil
}

// selectFrame returns the index of a frame to use for a new page: a truly
// empty frame if one exists, otherwise the victim chosen by policy among
// unpinned resident frames.
func (p *Pool) selectFrame(policy Policy) (idx int, evicted PageID, wasResident bool, err error) {
	for i, f := range p.frames {
		if f.empty {
			return i, PageID{}, false, nil
		}
	}

	switch policy {
	case MRU:
		for e := p.order.Front(); e != nil; e = e.Next() {
			i := e.Value.(int)
			if p.frames[i].pinCount == 0 {
				return i, p.frames[i].id, true, nil
			}
		}
	default: // LRU
		for e := p.order.Back(); e != nil; e = e.Prev() {
			i := e.Value.(int)
			if p.frames[i].pinCount == 0 {
				return i, p.frames[i].id, true, nil
			}
		}
	}
	return 0, PageID{}, false, ErrBufferExhausted
}

// Unfix decrements a frame's pin count, optionally marking it dirty.
// Releasing an already-unpinned frame is a programming error and reported
// as ErrDoubleUnfix.
func (p *Pool) Unfix(f *Frame, dirty bool) error {
	if f.pinCount <= 0 {
		return ErrDoubleUnfix
	}
	f.pinCount--
	if dirty {
		if !f.dirty {
			p.stats.IncDirtyMark()
		}
		f.dirty = true
	}
	return nil
}

// MarkDirty sets the dirty flag on a pinned frame without unpinning it.
func (p *Pool) MarkDirty(f *Frame) error {
	if !f.dirty {
		p.stats.IncDirtyMark()
	}
	f.dirty = true
	return nil
}

// FlushFile writes back every dirty frame belonging to fileID and evicts
// all of that file's frames. Called by the paged-file layer's close. A
// frame still pinned at flush time is left resident (invariant 1 forbids
// evicting it) and reported via ErrPinLeaked once every other frame has
// been processed.
func (p *Pool) FlushFile(fileID FileID) error {
	store, ok := p.stores[fileID]
	if !ok {
		return ErrFileNotRegistered
	}
	leaked := 0
	for _, f := range p.frames {
		if f.empty || f.id.File != fileID {
			continue
		}
		if f.pinCount > 0 {
			leaked++
			p.log.Warnw("pin leaked past flush", "page", f.id.Page, "pins", f.pinCount)
			continue
		}
		if f.dirty {
			if err := store.WritePage(f.id.Page, f.Data); err != nil {
				return fmt.Errorf("buffer: flushing page %d: %w", f.id.Page, err)
			}
			p.stats.IncPhysicalWrite()
		}
		delete(p.index, f.id)
		p.order.Remove(f.elem)
		f.elem = nil
		f.reset()
	}
	if leaked > 0 {
		return fmt.Errorf("%w: %d frame(s) for file %d", ErrPinLeaked, leaked, fileID)
	}
	return nil
}
