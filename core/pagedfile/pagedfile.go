// Package pagedfile implements the per-file layer above the buffer pool:
// create/destroy/open/close, page allocation and disposal against an
// on-disk free list, and the pinned-page iterators the benchmark
// harnesses drive directly.
package pagedfile

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
	"github.com/Aashcharya1/toydb-storage-engine/core/pfstats"
)

// Create writes a fresh header page (firstFree = -1, numPages = 1) to a
// new file at path. Fails with ErrFileExists if the path is already
// occupied.
func Create(path string, pageSize int) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrFileExists
		}
		return fmt.Errorf("pagedfile: creating %s: %w", path, err)
	}
	defer f.Close()

	page := make([]byte, pageSize)
	header{firstFree: -1, numPages: 1}.encode(page)
	if _, err := f.WriteAt(page, 0); err != nil {
		return fmt.Errorf("pagedfile: writing header of %s: %w", path, err)
	}
	return nil
}

// Destroy removes a paged file from persistent storage.
func Destroy(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("pagedfile: destroying %s: %w", path, err)
	}
	return nil
}

// File is an open-file entry: the underlying handle, the cached header,
// the replacement policy used for pages fetched through it, and the set
// of pages this handle currently holds pinned.
type File struct {
	path     string
	pageSize int
	pool     *buffer.Pool
	fid      buffer.FileID
	osFile   *os.File
	policy   buffer.Policy
	stats    *pfstats.Registry
	log      *zap.SugaredLogger

	hdr         header
	headerFrame *buffer.Frame
	headerDirty bool

	fixed    map[uint64]*buffer.Frame
	disposed map[uint64]bool
}

// Open installs an open-file entry using the pool's current default
// policy.
func Open(pool *buffer.Pool, path string, log *zap.Logger) (*File, error) {
	return OpenWithPolicy(pool, path, pool.DefaultPolicy(), log)
}

// OpenWithPolicy installs an open-file entry with an explicit
// replacement policy, pinning and caching the header page until Close.
func OpenWithPolicy(pool *buffer.Pool, path string, policy buffer.Policy, log *zap.Logger) (*File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	osFile, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("pagedfile: opening %s: %w", path, err)
	}

	store := &diskStore{f: osFile, pageSize: pool.PageSize()}
	fid := pool.RegisterFile(store)

	headerFrame, err := pool.Get(fid, 0, policy)
	if err != nil {
		osFile.Close()
		return nil, fmt.Errorf("pagedfile: reading header of %s: %w", path, err)
	}
	hdr, err := decodeHeader(headerFrame.Data)
	if err != nil {
		pool.Unfix(headerFrame, false)
		osFile.Close()
		return nil, err
	}

	f := &File{
		path:        path,
		pageSize:    pool.PageSize(),
		pool:        pool,
		fid:         fid,
		osFile:      osFile,
		policy:      policy,
		stats:       pool.Stats(),
		log:         log.Sugar(),
		hdr:         hdr,
		headerFrame: headerFrame,
		fixed:       make(map[uint64]*buffer.Frame),
		disposed:    make(map[uint64]bool),
	}
	if err := f.seedFreeList(); err != nil {
		pool.Unfix(headerFrame, false)
		osFile.Close()
		return nil, err
	}
	return f, nil
}

// seedFreeList walks the on-disk free-list chain rooted at the header so
// pages disposed in a previous session are recognized by GetThisPage and
// skipped by the iterators.
func (f *File) seedFreeList() error {
	next := f.hdr.firstFree
	for next != -1 {
		page := uint64(next)
		f.disposed[page] = true
		frame, err := f.pool.Get(f.fid, page, f.policy)
		if err != nil {
			return fmt.Errorf("pagedfile: walking free list at page %d: %w", page, err)
		}
		next = decodeFreeNext(frame.Data)
		f.pool.Unfix(frame, false)
	}
	return nil
}

// Path returns the filesystem path this handle was opened against.
func (f *File) Path() string { return f.path }

// PageSize returns the fixed page size of this file's backing pool.
func (f *File) PageSize() int { return f.pageSize }

// NumPages returns the total number of pages, including the header and
// any pages currently on the free list.
func (f *File) NumPages() uint64 { return f.hdr.numPages }

// SetFilePolicy overrides the replacement policy used for pages fetched
// through this handle from this point on.
func (f *File) SetFilePolicy(policy buffer.Policy) { f.policy = policy }

// Close flushes and evicts every frame belonging to this file, writing
// back the header if it changed, and releases the open-file entry. A
// page a caller forgot to unfix is reported via buffer.ErrPinLeaked
// rather than force-evicted.
func (f *File) Close() error {
	if f.headerDirty {
		f.hdr.encode(f.headerFrame.Data)
	}
	if err := f.pool.Unfix(f.headerFrame, f.headerDirty); err != nil {
		return fmt.Errorf("pagedfile: releasing header of %s: %w", f.path, err)
	}

	flushErr := f.pool.FlushFile(f.fid)
	f.pool.UnregisterFile(f.fid)
	closeErr := f.osFile.Close()

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// AllocPage returns a pinned frame for a fresh page: the head of the
// free list if one exists, otherwise a page appended to the end of the
// file. Contents are undefined until the caller initializes them.
func (f *File) AllocPage() (uint64, *buffer.Frame, error) {
	var page uint64
	var frame *buffer.Frame
	var err error

	if f.hdr.firstFree != -1 {
		page = uint64(f.hdr.firstFree)
		frame, err = f.pool.Get(f.fid, page, f.policy)
		if err != nil {
			return 0, nil, err
		}
		f.hdr.firstFree = decodeFreeNext(frame.Data)
		delete(f.disposed, page)
	} else {
		page = f.hdr.numPages
		f.hdr.numPages++
		frame, err = f.pool.Alloc(f.fid, page, f.policy)
		if err != nil {
			return 0, nil, err
		}
	}

	f.headerDirty = true
	f.fixed[page] = frame
	return page, frame, nil
}

// DisposePage pushes an unpinned page onto the free list. Subsequent
// GetThisPage calls on it fail with ErrPageFreed.
func (f *File) DisposePage(page uint64) error {
	if page == 0 {
		return ErrInvalidPage
	}
	if _, pinned := f.fixed[page]; pinned {
		return ErrPageStillPinned
	}
	frame, err := f.pool.Alloc(f.fid, page, f.policy)
	if err != nil {
		return err
	}
	encodeFreeNext(frame.Data, f.hdr.firstFree)
	if err := f.pool.Unfix(frame, true); err != nil {
		return err
	}
	f.hdr.firstFree = int64(page)
	f.disposed[page] = true
	f.headerDirty = true
	return nil
}

// GetThisPage fetches the specified page. Fetching a page already
// pinned through this handle is reported, not fatal (§11): the existing
// pin is left untouched.
func (f *File) GetThisPage(page uint64) (*buffer.Frame, error) {
	if page == 0 || page >= f.hdr.numPages {
		return nil, ErrInvalidPage
	}
	if f.disposed[page] {
		return nil, ErrPageFreed
	}
	if _, already := f.fixed[page]; already {
		return nil, ErrPageAlreadyPinned
	}
	frame, err := f.pool.Get(f.fid, page, f.policy)
	if err != nil {
		return nil, err
	}
	f.fixed[page] = frame
	f.stats.IncLogicalRead()
	return frame, nil
}

// GetFirstPage returns the lowest-numbered live user page.
func (f *File) GetFirstPage() (uint64, *buffer.Frame, error) {
	return f.scanFrom(1)
}

// GetNextPage returns the next live user page strictly after prev. The
// caller may unfix prev before or after this call.
func (f *File) GetNextPage(prev uint64) (uint64, *buffer.Frame, error) {
	return f.scanFrom(prev + 1)
}

func (f *File) scanFrom(start uint64) (uint64, *buffer.Frame, error) {
	for page := start; page < f.hdr.numPages; page++ {
		if f.disposed[page] {
			continue
		}
		if _, already := f.fixed[page]; already {
			continue
		}
		frame, err := f.pool.Get(f.fid, page, f.policy)
		if err != nil {
			return 0, nil, err
		}
		f.fixed[page] = frame
		f.stats.IncLogicalRead()
		return page, frame, nil
	}
	return 0, nil, ErrEndOfPages
}

// UnfixPage releases a page previously returned by GetThisPage/
// GetFirstPage/GetNextPage/AllocPage.
func (f *File) UnfixPage(page uint64, dirty bool) error {
	frame, ok := f.fixed[page]
	if !ok {
		return ErrPageNotPinned
	}
	if err := f.pool.Unfix(frame, dirty); err != nil {
		return err
	}
	delete(f.fixed, page)
	if dirty {
		f.stats.IncLogicalWrite()
	}
	return nil
}

// MarkDirty sets the dirty flag on a pinned page without releasing it.
func (f *File) MarkDirty(page uint64) error {
	frame, ok := f.fixed[page]
	if !ok {
		return ErrPageNotPinned
	}
	return f.pool.MarkDirty(frame)
}
