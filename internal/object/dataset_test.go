package object

import (
	"testing"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/msg"
	"github.com/stretchr/testify/require"
)

type memWriterAt struct {
	buf []byte
}

func (m *memWriterAt) WriteAt(p []byte, off int64) (int, error) {
	end := int(off) + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[off:end], p)
	return len(p), nil
}

func TestNewRejectsChunkedScalar(t *testing.T) {
	_, err := New("s", dtype.I32, 0, []uint64{}, []uint32{1}, 0)
	require.Error(t, err)
}

func TestNewRejectsChunkRankMismatch(t *testing.T) {
	_, err := New("v", dtype.I32, 0, []uint64{4, 4}, []uint32{2}, 0)
	require.Error(t, err)
}

func TestNewRejectsChunkedVlenString(t *testing.T) {
	_, err := New("v", dtype.StrVar, 0, []uint64{4}, []uint32{2}, 0)
	require.Error(t, err)
}

func TestNewRejectsChunkDimOutOfRange(t *testing.T) {
	_, err := New("v", dtype.I32, 0, []uint64{4}, []uint32{0}, 0)
	require.Error(t, err)

	_, err = New("v", dtype.I32, 0, []uint64{4}, []uint32{5}, 0)
	require.Error(t, err)
}

func TestNewRejectsCompressionWithoutChunking(t *testing.T) {
	_, err := New("v", dtype.I32, 0, []uint64{4}, nil, 3)
	require.Error(t, err)
}

func TestNewRejectsCompressionLevelOutOfRange(t *testing.T) {
	_, err := New("v", dtype.I32, 0, []uint64{4}, []uint32{2}, 10)
	require.Error(t, err)
}

func TestNewRejectsCompressionOnVlenString(t *testing.T) {
	_, err := New("v", dtype.StrVar, 0, []uint64{4}, nil, 1)
	require.Error(t, err)
	_, err = New("v", dtype.StrVar, 0, []uint64{4}, []uint32{2}, 1)
	require.Error(t, err)
}

func TestNewBuildsChunkTableInRowMajorOrder(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{4, 6}, []uint32{2, 3}, 0)
	require.NoError(t, err)
	require.Len(t, d.chunks, 4) // 2x2 grid of chunks
	require.Equal(t, []uint64{0, 0}, d.chunks[0].Start)
	require.Equal(t, []uint64{0, 3}, d.chunks[1].Start)
	require.Equal(t, []uint64{2, 0}, d.chunks[2].Start)
	require.Equal(t, []uint64{2, 3}, d.chunks[3].Start)
}

func TestWriteContiguousScalar(t *testing.T) {
	d, err := New("scalar", dtype.I32, 0, []uint64{}, nil, 0)
	require.NoError(t, err)

	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, nil, int32(42)))
	require.True(t, d.written)
	require.Equal(t, uint64(4), d.DataSize)
	got := int32(w.buf[0]) | int32(w.buf[1])<<8 | int32(w.buf[2])<<16 | int32(w.buf[3])<<24
	require.Equal(t, int32(42), got)
}

func TestWriteContiguousTwiceErrors(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{1}, nil, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, nil, []int32{1}))
	require.Error(t, d.WriteChunk(w, &eof, nil, []int32{2}))
}

func TestWriteChunkedRejectsMisalignedStart(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{4}, []uint32{2}, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	err = d.WriteChunk(w, &eof, []uint64{1}, []int32{1, 2})
	require.Error(t, err)
}

func TestWriteChunkedRejectsDoubleWrite(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{4}, []uint32{2}, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, []uint64{0}, []int32{1, 2}))
	require.Error(t, d.WriteChunk(w, &eof, []uint64{0}, []int32{3, 4}))
}

func TestWriteChunkedEdgePadding1D(t *testing.T) {
	// 5 elements, chunk size 2: chunks at [0,2) [2,4) [4,6) with the last
	// chunk only 1 valid element and 1 padded.
	d, err := New("v", dtype.I32, 0, []uint64{5}, []uint32{2}, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, []uint64{4}, []int32{99}))

	chunk := d.chunks[2]
	require.Equal(t, uint32(8), chunk.Size) // full 2-element chunk on disk
	b := w.buf[chunk.Addr : chunk.Addr+8]
	got := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
	require.Equal(t, int32(99), got)
	for _, fb := range b[4:8] {
		require.Equal(t, byte(bytesink.AlignFill), fb)
	}
}

func TestWriteChunkedEdgePadding2DBothAxesClipped(t *testing.T) {
	// 3x3 dataset, 2x2 chunks: bottom-right chunk is clipped on both axes
	// to a single valid row/col (1x1 valid out of a 2x2 full rectangle).
	d, err := New("v", dtype.I32, 0, []uint64{3, 3}, []uint32{2, 2}, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, []uint64{2, 2}, []int32{7}))

	chunk := d.chunks[3] // bottom-right
	require.Equal(t, uint32(16), chunk.Size) // full 2x2 chunk = 4 elements * 4 bytes
	b := w.buf[chunk.Addr : chunk.Addr+16]
	// row-major full rectangle: [valid, pad, pad, pad]
	got := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16 | int32(b[3])<<24
	require.Equal(t, int32(7), got)
	for _, fb := range b[4:16] {
		require.Equal(t, byte(bytesink.AlignFill), fb)
	}
}

func TestWriteElementsRejectsWrongKind(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{1}, nil, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	err = d.WriteChunk(w, &eof, nil, []float32{1.0})
	require.Error(t, err)
}

func TestWriteElementsRejectsWrongElementCount(t *testing.T) {
	d, err := New("v", dtype.I32, 0, []uint64{4}, []uint32{2}, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	err = d.WriteChunk(w, &eof, []uint64{0}, []int32{1, 2, 3})
	require.Error(t, err)
}

func TestWriteVlenStringsContiguous(t *testing.T) {
	d, err := New("names", dtype.StrVar, 0, []uint64{2}, nil, 0)
	require.NoError(t, err)
	w := &memWriterAt{}
	var eof uint64
	require.NoError(t, d.WriteChunk(w, &eof, nil, []string{"alpha", "b"}))
	require.True(t, d.written)
	require.Greater(t, d.DataSize, uint64(0))
}

func TestFormatContiguousDataset(t *testing.T) {
	d, err := New("temp", dtype.F32, 0, []uint64{2, 2}, nil, 0)
	require.NoError(t, err)
	d.FillDefined = true
	d.FillBytes = []byte{0, 0, 0, 0}

	sink := bytesink.NewGrowSink()
	require.NoError(t, d.Format(sink, 1700000000))

	b := sink.Bytes()
	require.Equal(t, []byte("OHDR"), b[d.BlkPosition:d.BlkPosition+4])
}

func TestFormatChunkedDatasetWritesIndexBeforeHeader(t *testing.T) {
	d, err := New("cube", dtype.I32, 0, []uint64{4, 4}, []uint32{2, 2}, 0)
	require.NoError(t, err)

	sink := bytesink.NewGrowSink()
	require.NoError(t, d.Format(sink, 0))

	require.Less(t, d.index.BlkPosition, d.BlkPosition)
	b := sink.Bytes()
	require.Equal(t, []byte("TREE"), b[d.index.BlkPosition:d.index.BlkPosition+4])
}

func TestFormatWithCompressionAddsFilterMessage(t *testing.T) {
	d, err := New("z", dtype.I32, 0, []uint64{4}, []uint32{2}, 5)
	require.NoError(t, err)
	sink := bytesink.NewGrowSink()
	require.NoError(t, d.Format(sink, 0))
	b := sink.Bytes()
	require.Contains(t, string(b[d.BlkPosition:]), string([]byte{byte(msg.TypeFilterPipeline)}))
}
