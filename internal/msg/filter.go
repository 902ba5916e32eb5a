package msg

import "github.com/scigolib/nc4/internal/bytesink"

// FilterDeflateID is the HDF5 registered filter identifier for DEFLATE,
// the only filter this module ever emits.
const FilterDeflateID = 1

// FilterPipelineBody builds a version-2 filter pipeline message body
// describing a single DEFLATE filter at the given compression level.
func FilterPipelineBody(level int) []byte {
	s := bytesink.NewGrowSink()
	s.PutU8(2) // version
	s.PutU8(1) // one filter
	s.PutU16(FilterDeflateID)
	// Version 2 omits the name-length field for filter ids below 256.
	s.PutU16(0) // flags
	s.PutU16(1) // one client data value
	s.PutU32(uint32(level)) //nolint:gosec // compression level is 0..9
	return s.Bytes()
}
