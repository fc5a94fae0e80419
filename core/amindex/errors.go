package amindex

import "errors"

var (
	// ErrCorruptMeta is returned by Create when the first page allocated
	// in the new file is not the fixed metadata page number.
	ErrCorruptMeta = errors.New("amindex: corrupt index metadata page")
)
