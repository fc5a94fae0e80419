package pagedfile

import "errors"

var (
	// ErrFileExists is returned by Create when the target path already
	// exists.
	ErrFileExists = errors.New("pagedfile: file already exists")
	// ErrFileNotFound is returned by Destroy/OpenWithPolicy when the
	// target path does not exist.
	ErrFileNotFound = errors.New("pagedfile: file not found")
	// ErrInvalidPage is returned for a page number outside [1, numPages).
	ErrInvalidPage = errors.New("pagedfile: invalid page number")
	// ErrPageFreed is returned by GetThisPage when the requested page is
	// on the free list.
	ErrPageFreed = errors.New("pagedfile: page has been disposed")
	// ErrPageAlreadyPinned is returned by GetThisPage when the requested
	// page is already fixed through this handle (GetFirstPage/GetNextPage
	// skip such pages instead). Always recoverable: the existing pin is
	// left untouched and the caller may retry after unfixing it (§11 of
	// the design doc).
	ErrPageAlreadyPinned = errors.New("pagedfile: page already pinned")
	// ErrPageNotPinned is returned by UnfixPage/MarkDirty for a page
	// this handle does not currently hold pinned.
	ErrPageNotPinned = errors.New("pagedfile: page not pinned")
	// ErrPageStillPinned is returned by DisposePage on a page this
	// handle still holds pinned.
	ErrPageStillPinned = errors.New("pagedfile: cannot dispose a pinned page")
	// ErrHeaderCorrupt is returned when the header page cannot be
	// decoded into a sane firstFree/numPages pair.
	ErrHeaderCorrupt = errors.New("pagedfile: corrupt header page")
	// ErrEndOfPages is returned by GetFirstPage/GetNextPage once no
	// further user page exists.
	ErrEndOfPages = errors.New("pagedfile: no more pages")
)
