package amindex

import "encoding/binary"

// metaPageNumber is fixed: every index file's second page (the first
// user page after the paged-file layer's own header) holds the index's
// root pointer and height. It is a raw page, not a slotted one — there
// is exactly one fixed-width record and no need for a directory.
const metaPageNumber = 1

type meta struct {
	root   uint64
	height int32
}

func encodeMeta(page []byte, m meta) {
	binary.LittleEndian.PutUint64(page[0:8], m.root)
	binary.LittleEndian.PutUint32(page[8:12], uint32(m.height))
}

func decodeMeta(page []byte) meta {
	return meta{
		root:   binary.LittleEndian.Uint64(page[0:8]),
		height: int32(binary.LittleEndian.Uint32(page[8:12])),
	}
}
