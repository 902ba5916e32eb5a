package btree

import (
	"testing"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/stretchr/testify/require"
)

func TestFormatWritesTreeSignatureAndCounts(t *testing.T) {
	size := uint32(24)
	addr := uint64(512)
	idx := New([]Entry{
		{Offsets: []uint64{0, 0, 0}, Size: &size, Addr: &addr},
	})

	sink := bytesink.NewGrowSink()
	idx.Format(sink)

	b := sink.Bytes()
	require.Equal(t, []byte("TREE"), b[0:4])
	require.Equal(t, byte(1), b[4]) // raw-data-chunk node type
	require.Equal(t, byte(0), b[5]) // leaf level
}

func TestFormatEntryCountInHeader(t *testing.T) {
	s1, a1 := uint32(8), uint64(100)
	s2, a2 := uint32(8), uint64(200)
	idx := New([]Entry{
		{Offsets: []uint64{0, 0}, Size: &s1, Addr: &a1},
		{Offsets: []uint64{1, 0}, Size: &s2, Addr: &a2},
	})
	sink := bytesink.NewGrowSink()
	idx.Format(sink)
	// entry count is a little-endian uint16 at byte offset 6
	b := sink.Bytes()
	count := uint16(b[6]) | uint16(b[7])<<8
	require.Equal(t, uint16(2), count)
}

func TestFormatReadsAddrAtCallTime(t *testing.T) {
	size := uint32(16)
	addr := uint64(0) // unresolved, as in pass 1
	idx := New([]Entry{{Offsets: []uint64{0, 0}, Size: &size, Addr: &addr}})

	addr = 4096 // resolved before Format is actually called, as in pass 2
	sink := bytesink.NewGrowSink()
	idx.Format(sink)

	// header(4+1+1+2+8+8=24) + key(size4+mask4+offsets*8=8+16=24) = addr at byte 48
	b := sink.Bytes()
	got := uint64(0)
	for i := 0; i < 8; i++ {
		got |= uint64(b[48+i]) << (8 * i)
	}
	require.Equal(t, addr, got)
}

func TestFormatSetsBlkPositionAligned(t *testing.T) {
	size := uint32(16)
	addr := uint64(64)
	idx := New([]Entry{{Offsets: []uint64{0}, Size: &size, Addr: &addr}})

	sink := bytesink.NewGrowSink()
	sink.PutU8(1) // shift off offset 0
	idx.Format(sink)
	require.Equal(t, uint64(8), idx.BlkPosition)
}
