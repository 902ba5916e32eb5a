package heap

import (
	"testing"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/stretchr/testify/require"
)

func TestPutAssignsMonotonicOneBasedIndices(t *testing.T) {
	h := New()
	require.Equal(t, uint32(1), h.Put([]byte("a")))
	require.Equal(t, uint32(2), h.Put([]byte("bb")))
	require.Equal(t, uint32(3), h.Put([]byte("ccc")))
	require.Equal(t, 3, h.Len())
}

func TestClearResetsItems(t *testing.T) {
	h := New()
	h.Put([]byte("x"))
	h.Put([]byte("y"))
	h.Clear()
	require.Equal(t, 0, h.Len())
	require.Equal(t, uint32(1), h.Put([]byte("z")))
}

func TestSizeMatchesFormattedLength(t *testing.T) {
	h := New()
	h.Put([]byte("abc"))   // 3 bytes, pads to 8
	h.Put([]byte("abcdefgh")) // already 8-aligned

	want := h.Size()
	sink := bytesink.NewGrowSink()
	h.Format(sink)
	require.Equal(t, want, sink.Offset())
}

func TestFormatWritesGCOLSignatureAndVersion(t *testing.T) {
	h := New()
	h.Put([]byte("payload"))
	sink := bytesink.NewGrowSink()
	h.Format(sink)

	b := sink.Bytes()
	require.Equal(t, []byte("GCOL"), b[0:4])
	require.Equal(t, byte(1), b[4])
}

func TestFormatSetsBlkPosition(t *testing.T) {
	h := New()
	h.Put([]byte("item"))
	sink := bytesink.NewGrowSink()
	sink.PutU8(0xff) // shift the heap off offset 0
	h.Format(sink)
	require.Equal(t, uint64(8), h.BlkPosition) // aligned up from offset 1
}

func TestFormatDeterministicAcrossPasses(t *testing.T) {
	build := func() []byte {
		h := New()
		h.Put([]byte("alpha"))
		h.Put([]byte("beta"))
		sink := bytesink.NewGrowSink()
		h.Format(sink)
		return sink.Bytes()
	}
	require.Equal(t, build(), build())
}

func TestEmptyHeapSizeIsHeaderPlusClosingMarker(t *testing.T) {
	h := New()
	require.Equal(t, uint64(16+16), h.Size())
}
