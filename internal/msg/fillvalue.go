package msg

import "github.com/scigolib/nc4/internal/bytesink"

const (
	spaceAllocEarly  = 1
	fillWriteAlloc   = 2
)

// FillValueBody builds a version-2 fill value message body. If defined is
// false, fillBytes must be empty: the variable has no declared fill
// value.
func FillValueBody(defined bool, fillBytes []byte) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(2) // version
	s.PutU8(spaceAllocEarly)
	s.PutU8(fillWriteAlloc)
	if defined {
		s.PutU8(1)
		s.PutU32(uint32(len(fillBytes))) //nolint:gosec // fill values are small
		s.PutBytes(fillBytes)
	} else {
		s.PutU8(0)
	}
	return s.Bytes()
}
