// Package amindex implements the minimal ordered index the index-build
// comparator harness needs: a single-key, single-value B+-tree-lite
// whose nodes are slotted pages holding fixed 16-byte (key, value)
// entries, reusing core/slotted rather than a bespoke node codec. Its
// internal page-splitting strategy is not the subject of the storage
// core's contract; what matters is that it issues the same create,
// open, alloc, get-this, unfix(dirty), close calls a real access method
// would, so the Stats Registry observes representative behavior.
package amindex

import (
	"math"

	"go.uber.org/zap"

	"github.com/Aashcharya1/toydb-storage-engine/core/buffer"
	"github.com/Aashcharya1/toydb-storage-engine/core/pagedfile"
	"github.com/Aashcharya1/toydb-storage-engine/core/slotted"
)

const (
	attrLeaf     = int16(0)
	attrInternal = int16(1)
)

// Index is an open ordered index backed by one paged file.
type Index struct {
	pool *buffer.Pool
	file *pagedfile.File
	log  *zap.SugaredLogger

	root       uint64
	height     int32
	maxEntries int
}

// Create initializes a new, empty index file at path: a metadata page,
// and a single empty leaf as the root.
func Create(pool *buffer.Pool, path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := pagedfile.Create(path, pool.PageSize()); err != nil {
		return nil, err
	}
	f, err := pagedfile.Open(pool, path, log)
	if err != nil {
		return nil, err
	}

	metaPage, metaFrame, err := f.AllocPage()
	if err != nil {
		f.Close()
		return nil, err
	}
	if metaPage != metaPageNumber {
		f.Close()
		return nil, ErrCorruptMeta
	}

	rootPage, rootFrame, err := f.AllocPage()
	if err != nil {
		f.UnfixPage(metaPage, false)
		f.Close()
		return nil, err
	}
	slotted.Init(rootFrame.Data)
	if err := f.UnfixPage(rootPage, true); err != nil {
		f.Close()
		return nil, err
	}

	encodeMeta(metaFrame.Data, meta{root: rootPage, height: 1})
	if err := f.UnfixPage(metaPage, true); err != nil {
		f.Close()
		return nil, err
	}

	return &Index{
		pool:       pool,
		file:       f,
		log:        log.Sugar(),
		root:       rootPage,
		height:     1,
		maxEntries: maxEntriesPerNode(pool.PageSize()),
	}, nil
}

// Open reopens an existing index file.
func Open(pool *buffer.Pool, path string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := pagedfile.Open(pool, path, log)
	if err != nil {
		return nil, err
	}
	frame, err := f.GetThisPage(metaPageNumber)
	if err != nil {
		f.Close()
		return nil, err
	}
	m := decodeMeta(frame.Data)
	if err := f.UnfixPage(metaPageNumber, false); err != nil {
		f.Close()
		return nil, err
	}
	return &Index{
		pool:       pool,
		file:       f,
		log:        log.Sugar(),
		root:       m.root,
		height:     m.height,
		maxEntries: maxEntriesPerNode(pool.PageSize()),
	}, nil
}

// Close releases the underlying file. The root/height metadata needs no
// write here: Insert persists it each time the root splits.
func (ix *Index) Close() error {
	return ix.file.Close()
}

// Height reports the current tree height, for diagnostics.
func (ix *Index) Height() int32 { return ix.height }

// SetPolicy overrides the replacement policy used for pages fetched
// through this index's underlying paged file from this point on.
func (ix *Index) SetPolicy(policy buffer.Policy) { ix.file.SetFilePolicy(policy) }

// Insert adds (key, recordID) to the index, splitting nodes bottom-up as
// needed and growing the tree's height when the root itself splits.
func (ix *Index) Insert(key, recordID int64) error {
	promotedKey, newPage, err := ix.insertInto(ix.root, entry{key: key, val: recordID})
	if err != nil {
		return err
	}
	if newPage == 0 {
		return nil
	}

	newRoot, frame, err := ix.file.AllocPage()
	if err != nil {
		return err
	}
	rewritePage(frame.Data, false, []entry{
		{key: math.MinInt64, val: int64(ix.root)},
		{key: promotedKey, val: int64(newPage)},
	})
	if err := ix.file.UnfixPage(newRoot, true); err != nil {
		return err
	}

	ix.root = newRoot
	ix.height++
	return ix.persistMeta()
}

func (ix *Index) persistMeta() error {
	frame, err := ix.file.GetThisPage(metaPageNumber)
	if err != nil {
		return err
	}
	encodeMeta(frame.Data, meta{root: ix.root, height: ix.height})
	return ix.file.UnfixPage(metaPageNumber, true)
}

// insertInto recursively inserts e into the subtree rooted at page,
// returning a promoted separator key and new sibling page number if
// page split, or (0, 0, nil) if it did not.
func (ix *Index) insertInto(page uint64, e entry) (int64, uint64, error) {
	frame, err := ix.file.GetThisPage(page)
	if err != nil {
		return 0, 0, err
	}

	if slotted.Attr(frame.Data) == attrLeaf {
		entries := append(decodeAll(frame.Data), e)
		return ix.settle(page, frame, true, entries)
	}

	entries := decodeAll(frame.Data)
	child := uint64(entries[findChildIndex(entries, e.key)].val)
	if err := ix.file.UnfixPage(page, false); err != nil {
		return 0, 0, err
	}

	promoted, newChild, err := ix.insertInto(child, e)
	if err != nil {
		return 0, 0, err
	}
	if newChild == 0 {
		return 0, 0, nil
	}

	frame, err = ix.file.GetThisPage(page)
	if err != nil {
		return 0, 0, err
	}
	entries = append(decodeAll(frame.Data), entry{key: promoted, val: int64(newChild)})
	return ix.settle(page, frame, false, entries)
}

// settle rewrites frame's page with entries, splitting it into two
// nodes and allocating a sibling page if entries exceeds the per-node
// threshold.
func (ix *Index) settle(page uint64, frame *buffer.Frame, isLeaf bool, entries []entry) (int64, uint64, error) {
	sortEntries(entries)

	if len(entries) <= ix.maxEntries {
		rewritePage(frame.Data, isLeaf, entries)
		return 0, 0, ix.file.UnfixPage(page, true)
	}

	mid := len(entries) / 2
	left, right := entries[:mid], entries[mid:]

	rewritePage(frame.Data, isLeaf, left)
	if err := ix.file.UnfixPage(page, true); err != nil {
		return 0, 0, err
	}

	newPage, newFrame, err := ix.file.AllocPage()
	if err != nil {
		return 0, 0, err
	}
	rewritePage(newFrame.Data, isLeaf, right)
	if err := ix.file.UnfixPage(newPage, true); err != nil {
		return 0, 0, err
	}

	return right[0].key, newPage, nil
}

// Find performs an equality lookup, descending from the root. A miss
// reports found=false rather than an error: the index-benchmark harness
// treats a not-found key as a diagnostic outcome, not a failure.
func (ix *Index) Find(key int64) (int64, bool, error) {
	page := ix.root
	for {
		frame, err := ix.file.GetThisPage(page)
		if err != nil {
			return 0, false, err
		}
		entries := decodeAll(frame.Data)
		isLeaf := slotted.Attr(frame.Data) == attrLeaf
		if err := ix.file.UnfixPage(page, false); err != nil {
			return 0, false, err
		}

		if isLeaf {
			for _, e := range entries {
				if e.key == key {
					return e.val, true, nil
				}
			}
			return 0, false, nil
		}
		page = uint64(entries[findChildIndex(entries, key)].val)
	}
}
