package msg

import "github.com/scigolib/nc4/internal/bytesink"

// ModTimeBody builds a version-1 modification time message body: a
// 32-bit seconds-since-epoch timestamp.
func ModTimeBody(seconds uint32) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(1) // version
	s.PutU8(0)
	s.PutU16(0) // 3 reserved bytes total
	s.PutU32(seconds)
	return s.Bytes()
}
