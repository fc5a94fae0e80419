package pagedfile

import "encoding/binary"

// header is the on-disk layout of page 0: the free-list head (-1 when
// empty) and the total page count, including the header page itself.
// Endianness and field order are frozen once a file has been created.
type header struct {
	firstFree int64
	numPages  uint64
}

const headerEncodedSize = 8 + 8

func (h header) encode(page []byte) {
	binary.LittleEndian.PutUint64(page[0:8], uint64(h.firstFree))
	binary.LittleEndian.PutUint64(page[8:16], h.numPages)
}

func decodeHeader(page []byte) (header, error) {
	if len(page) < headerEncodedSize {
		return header{}, ErrHeaderCorrupt
	}
	return header{
		firstFree: int64(binary.LittleEndian.Uint64(page[0:8])),
		numPages:  binary.LittleEndian.Uint64(page[8:16]),
	}, nil
}

// freeNext is the on-disk layout of a free-list node: its first 8 bytes
// hold the next free page number, or -1 for the list's tail.
func encodeFreeNext(page []byte, next int64) {
	binary.LittleEndian.PutUint64(page[0:8], uint64(next))
}

func decodeFreeNext(page []byte) int64 {
	return int64(binary.LittleEndian.Uint64(page[0:8]))
}
