package msg

import "github.com/scigolib/nc4/internal/bytesink"

// DataspaceBody builds the raw dataspace message body (version 2).
// dims == nil means "no data" (a variable that only ever carries
// attributes); dims with length 0 means scalar; otherwise dims gives the
// current size of each axis, row-major, last axis varying fastest.
func DataspaceBody(dims []uint64) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(2) // version

	var spaceType uint8
	switch {
	case dims == nil:
		spaceType = 2 // null
	case len(dims) == 0:
		spaceType = 0 // scalar
	default:
		spaceType = 1 // simple
	}

	rank := len(dims)
	s.PutU8(uint8(rank)) //nolint:gosec // variable rank is always small in practice
	s.PutU8(0)            // flags: max-sizes not present
	s.PutU8(spaceType)

	for _, d := range dims {
		s.PutU64(d)
	}

	return s.Bytes()
}
