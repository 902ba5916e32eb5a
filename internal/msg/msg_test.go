package msg

import (
	"testing"

	"github.com/scigolib/nc4/internal/bytesink"
	"github.com/scigolib/nc4/internal/dtype"
	"github.com/scigolib/nc4/internal/heap"
	"github.com/stretchr/testify/require"
)

func TestWrapEncodesTypeLengthAndBody(t *testing.T) {
	sink := bytesink.NewGrowSink()
	Wrap(sink, TypeModTime, 0, false, 0, []byte{1, 2, 3})
	b := sink.Bytes()
	require.Equal(t, byte(TypeModTime), b[0])
	require.Equal(t, uint16(3), uint16(b[1])|uint16(b[2])<<8)
	require.Equal(t, []byte{1, 2, 3}, b[4:7])
}

func TestWrapWithCreationOrder(t *testing.T) {
	sink := bytesink.NewGrowSink()
	Wrap(sink, TypeLink, 0, true, 7, []byte{9})
	b := sink.Bytes()
	// type(1) + length(2) + flags(1) + order(2) + body(1)
	require.Len(t, b, 7)
	require.Equal(t, uint16(7), uint16(b[4])|uint16(b[5])<<8)
}

func TestDataspaceBodyKinds(t *testing.T) {
	require.Equal(t, uint8(2), DataspaceBody(nil)[3])
	require.Equal(t, uint8(0), DataspaceBody([]uint64{})[3])
	require.Equal(t, uint8(1), DataspaceBody([]uint64{3, 4})[3])
	require.Equal(t, uint8(2), DataspaceBody([]uint64{3, 4})[1]) // rank
}

func TestDatatypeBodyNumericSizes(t *testing.T) {
	for tag, wantSize := range map[dtype.Tag]uint32{
		dtype.I8: 1, dtype.U8: 1, dtype.I16: 2, dtype.I32: 4,
		dtype.I64: 8, dtype.F32: 4, dtype.F64: 8,
	} {
		body, err := DatatypeBody(tag, 0)
		require.NoError(t, err)
		size := uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24
		require.Equal(t, wantSize, size, tag.String())
	}
}

func TestDatatypeBodyStrFixedUsesFixedLen(t *testing.T) {
	body, err := DatatypeBody(dtype.StrFixed, 12)
	require.NoError(t, err)
	size := uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24
	require.Equal(t, uint32(12), size)
}

func TestDatatypeBodyStrFixedRequiresPositiveLen(t *testing.T) {
	_, err := DatatypeBody(dtype.StrFixed, 0)
	require.Error(t, err)
}

func TestFillValueBodyDefinedVsUndefined(t *testing.T) {
	defined := FillValueBody(true, []byte{1, 2, 3, 4})
	require.Equal(t, byte(1), defined[3])

	undefined := FillValueBody(false, nil)
	require.Equal(t, byte(0), undefined[3])
}

func TestFilterPipelineBodyEncodesLevel(t *testing.T) {
	body := FilterPipelineBody(6)
	level := uint32(body[8]) | uint32(body[9])<<8 | uint32(body[10])<<16 | uint32(body[11])<<24
	require.Equal(t, uint32(6), level)
	id := uint16(body[2]) | uint16(body[3])<<8
	require.Equal(t, uint16(FilterDeflateID), id)
}

func TestModTimeBodyEncodesSeconds(t *testing.T) {
	body := ModTimeBody(1700000000)
	got := uint32(body[4]) | uint32(body[5])<<8 | uint32(body[6])<<16 | uint32(body[7])<<24
	require.Equal(t, uint32(1700000000), got)
}

func TestContiguousLayoutBodyEncodesAddrAndSize(t *testing.T) {
	body := ContiguousLayoutBody(512, 1024)
	require.Equal(t, byte(3), body[0])
	addr := uint64(0)
	for i := 0; i < 8; i++ {
		addr |= uint64(body[2+i]) << (8 * i)
	}
	require.Equal(t, uint64(512), addr)
}

func TestChunkedLayoutBodyDimensionality(t *testing.T) {
	body := ChunkedLayoutBody(256, []uint32{4, 4}, 4)
	require.Equal(t, byte(3), body[0])
	require.Equal(t, uint8(3), body[2]) // rank 2 + 1 pseudo-dim
}

func TestLinkBodyRoundtripsName(t *testing.T) {
	body := LinkBody("temperature", 4096, 2)
	nameLen := uint16(body[11]) | uint16(body[12])<<8
	require.Equal(t, uint16(len("temperature")), nameLen)
	require.Equal(t, "temperature", string(body[13:13+nameLen]))
}

func TestLinkInfoBodyTrackOrderGrowsBody(t *testing.T) {
	require.Less(t, len(LinkInfoBody(false)), len(LinkInfoBody(true)))
}

func TestBTreeKValuesBodyFixedShape(t *testing.T) {
	body := BTreeKValuesBody()
	require.Len(t, body, 1+2+2+2)
}

func TestAttributeBodyScalarInt32(t *testing.T) {
	av := AttrValue{Tag: dtype.I32, Dims: []uint64{}, Numeric: []int32{42}}
	body, err := AttributeBody("answer", av)
	require.NoError(t, err)
	require.Equal(t, byte(3), body[0]) // version
}

func TestAttributeBodyVlenStringRequiresHeap(t *testing.T) {
	av := AttrValue{Tag: dtype.StrVar, Dims: []uint64{1}, VarStrings: []string{"x"}}
	_, err := AttributeBody("bad", av)
	require.Error(t, err)
}

func TestWriteVlenStringsRecordsHeapItemAndLength(t *testing.T) {
	gh := heap.New()
	sink := bytesink.NewGrowSink()
	WriteVlenStrings(sink, gh, []string{"abc", "de"})
	require.Equal(t, 2, gh.Len())
	b := sink.Bytes()
	length0 := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	require.Equal(t, uint32(3), length0)
}

type fakeAddr struct{ addr uint64 }

func (f fakeAddr) Addr() uint64 { return f.addr }

func TestWriteRefsWritesResolvedAddresses(t *testing.T) {
	sink := bytesink.NewGrowSink()
	WriteRefs(sink, []Addressable{fakeAddr{100}, fakeAddr{200}})
	b := sink.Bytes()
	require.Len(t, b, 16)
	first := uint64(0)
	for i := 0; i < 8; i++ {
		first |= uint64(b[i]) << (8 * i)
	}
	require.Equal(t, uint64(100), first)
}

func TestWriteVlenOfRefRowsOneHeapItemPerRow(t *testing.T) {
	gh := heap.New()
	sink := bytesink.NewGrowSink()
	rows := [][]Addressable{{fakeAddr{1}, fakeAddr{2}}, {fakeAddr{3}}}
	WriteVlenOfRefRows(sink, gh, rows)
	require.Equal(t, 2, gh.Len())
}

func TestWriteFixedStringsTruncatesAndPads(t *testing.T) {
	sink := bytesink.NewGrowSink()
	WriteFixedStrings(sink, []string{"ab", "abcdef"}, 4)
	b := sink.Bytes()
	require.Len(t, b, 8)
	require.Equal(t, []byte{'a', 'b', 0, 0}, b[0:4])
	require.Equal(t, []byte{'a', 'b', 'c', 'd'}, b[4:8])
}
