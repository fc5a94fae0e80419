package pagedfile

import (
	"fmt"
	"os"
)

// diskStore adapts an *os.File to buffer.PageStore, translating page
// numbers into byte offsets. Grounded on the teacher's btree diskmanager
// (ReadAt/WriteAt at pageNumber*pageSize), trimmed to the paged-file
// layer's needs: no header caching here, that belongs to File.
type diskStore struct {
	f        *os.File
	pageSize int
}

func (d *diskStore) ReadPage(pageNumber uint64, buf []byte) error {
	off := int64(pageNumber) * int64(d.pageSize)
	n, err := d.f.ReadAt(buf, off)
	if err != nil && n != len(buf) {
		return fmt.Errorf("pagedfile: reading page %d: %w", pageNumber, err)
	}
	return nil
}

func (d *diskStore) WritePage(pageNumber uint64, buf []byte) error {
	off := int64(pageNumber) * int64(d.pageSize)
	if _, err := d.f.WriteAt(buf, off); err != nil {
		return fmt.Errorf("pagedfile: writing page %d: %w", pageNumber, err)
	}
	return nil
}
