// Package bytesink provides the little-endian, self-growing write buffers
// used by every layer of the nc4 serializer. A Sink is either a pure
// in-memory GrowSink (used for the two metadata layout passes) or a
// ChannelSink that flushes fixed-size blocks to an underlying io.WriterAt,
// optionally through a DEFLATE encoder (used for per-chunk raw data).
package bytesink

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// AlignFill is the sentinel byte used to pad alignment gaps and short
// trailing-edge chunk slots. It carries no meaning beyond being a stable,
// recognizable filler.
const AlignFill = 0x77

// Sink is the common write surface used by message and object-header
// serializers. Implementations need not be safe for concurrent use.
type Sink interface {
	Offset() uint64
	PutU8(v uint8)
	PutU16(v uint16)
	PutU32(v uint32)
	PutU64(v uint64)
	PutF32(v float32)
	PutF64(v float64)
	PutBytes(b []byte)
	Align8()
	// Bytes returns the full backing slice written so far. Only meaningful
	// for in-memory sinks; callers must not hold the slice past further
	// writes.
	Bytes() []byte
}

// GrowSink is an auto-growing, pure in-memory Sink. It backs both metadata
// layout passes: pass 1 sizes the tree, pass 2 emits the final bytes.
type GrowSink struct {
	buf []byte
}

// NewGrowSink returns an empty GrowSink with a small initial capacity.
func NewGrowSink() *GrowSink {
	return &GrowSink{buf: make([]byte, 0, 4096)}
}

// Offset returns the current write position, equal to len(buf).
func (s *GrowSink) Offset() uint64 { return uint64(len(s.buf)) }

// Bytes returns the accumulated buffer.
func (s *GrowSink) Bytes() []byte { return s.buf }

func (s *GrowSink) grow(n int) []byte {
	start := len(s.buf)
	s.buf = append(s.buf, make([]byte, n)...)
	return s.buf[start : start+n]
}

// PutU8 appends a single byte.
func (s *GrowSink) PutU8(v uint8) { s.buf = append(s.buf, v) }

// PutU16 appends a little-endian uint16.
func (s *GrowSink) PutU16(v uint16) {
	binary.LittleEndian.PutUint16(s.grow(2), v)
}

// PutU32 appends a little-endian uint32.
func (s *GrowSink) PutU32(v uint32) {
	binary.LittleEndian.PutUint32(s.grow(4), v)
}

// PutU64 appends a little-endian uint64.
func (s *GrowSink) PutU64(v uint64) {
	binary.LittleEndian.PutUint64(s.grow(8), v)
}

// PutF32 appends a little-endian IEEE-754 float32.
func (s *GrowSink) PutF32(v float32) {
	s.PutU32(math.Float32bits(v))
}

// PutF64 appends a little-endian IEEE-754 float64.
func (s *GrowSink) PutF64(v float64) {
	s.PutU64(math.Float64bits(v))
}

// PutBytes appends a raw byte slice verbatim.
func (s *GrowSink) PutBytes(b []byte) {
	s.buf = append(s.buf, b...)
}

// Align8 pads the buffer with AlignFill bytes until the offset is a
// multiple of 8.
func (s *GrowSink) Align8() {
	for len(s.buf)%8 != 0 {
		s.buf = append(s.buf, AlignFill)
	}
}

// Slice returns the bytes in [start,end), for re-reading already-written
// regions (e.g. to checksum an object header just emitted).
func (s *GrowSink) Slice(start, end uint64) []byte {
	return s.buf[start:end]
}

// PutSink appends the full contents of another Sink, for splicing a
// sub-formatted block (e.g. an attribute's nested datatype/dataspace
// messages) into a parent buffer.
func (s *GrowSink) PutSink(other Sink) {
	s.PutBytes(other.Bytes())
}

// offsetWriter adapts a io.WriterAt plus a running file offset into an
// io.Writer that appends sequentially starting at a fixed base address.
type offsetWriter struct {
	w      io.WriterAt
	base   int64
	cursor int64
}

func (o *offsetWriter) Write(p []byte) (int, error) {
	n, err := o.w.WriteAt(p, o.base+o.cursor)
	o.cursor += int64(n)
	if err != nil {
		return n, fmt.Errorf("chunk write at offset %d failed: %w", o.base+o.cursor, err)
	}
	return n, nil
}

// ChannelSink accumulates bytes in a resident buffer and flushes them,
// verbatim or through a DEFLATE (zlib) encoder, to an underlying
// io.WriterAt once the buffer reaches blockSize. It is used for writing a
// single chunk's raw data directly to the output file.
type ChannelSink struct {
	out       *offsetWriter
	blockSize int
	resident  []byte
	zw        *zlib.Writer
	err       error  // sticky: set by the first failed flush; later writes become no-ops
	offset    uint64 // logical write offset (uncompressed byte count)
}

// NewChannelSink creates a ChannelSink that writes starting at baseAddr in
// w. If level > 0, writes are passed through a zlib (DEFLATE) encoder
// before reaching w; level == 0 writes verbatim.
func NewChannelSink(w io.WriterAt, baseAddr uint64, blockSize int, level int) (*ChannelSink, error) {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	ow := &offsetWriter{w: w, base: int64(baseAddr)}
	cs := &ChannelSink{out: ow, blockSize: blockSize}
	if level > 0 {
		zw, err := zlib.NewWriterLevel(ow, level)
		if err != nil {
			return nil, fmt.Errorf("zlib writer init failed: %w", err)
		}
		cs.zw = zw
	}
	return cs, nil
}

// Offset returns the logical (uncompressed) offset written so far.
func (c *ChannelSink) Offset() uint64 { return c.offset }

func (c *ChannelSink) append(b []byte) {
	if c.err != nil {
		return
	}
	c.resident = append(c.resident, b...)
	c.offset += uint64(len(b))
	if len(c.resident) >= c.blockSize {
		c.flushResident()
	}
}

// flushResident writes the resident buffer out, recording the first
// failure in c.err. Once set, every later append and flushResident call
// becomes a no-op; Finish reports c.err instead of a bogus size.
func (c *ChannelSink) flushResident() {
	if c.err != nil || len(c.resident) == 0 {
		return
	}
	if c.zw != nil {
		if _, err := c.zw.Write(c.resident); err != nil {
			c.err = fmt.Errorf("zlib write failed: %w", err)
		}
	} else {
		if _, err := c.out.Write(c.resident); err != nil {
			c.err = err
		}
	}
	c.resident = c.resident[:0]
}

// PutU8 appends a single byte.
func (c *ChannelSink) PutU8(v uint8) { c.append([]byte{v}) }

// PutU16 appends a little-endian uint16.
func (c *ChannelSink) PutU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	c.append(b[:])
}

// PutU32 appends a little-endian uint32.
func (c *ChannelSink) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.append(b[:])
}

// PutU64 appends a little-endian uint64.
func (c *ChannelSink) PutU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	c.append(b[:])
}

// PutF32 appends a little-endian IEEE-754 float32.
func (c *ChannelSink) PutF32(v float32) { c.PutU32(math.Float32bits(v)) }

// PutF64 appends a little-endian IEEE-754 float64.
func (c *ChannelSink) PutF64(v float64) { c.PutU64(math.Float64bits(v)) }

// PutBytes appends a raw byte slice verbatim.
func (c *ChannelSink) PutBytes(b []byte) { c.append(b) }

// Align8 is a no-op for ChannelSink: chunk data does not need internal
// alignment, only its starting address does (handled by the caller before
// the sink is created).
func (c *ChannelSink) Align8() {}

// Bytes is unsupported for a channel-backed sink; it exists to satisfy
// Sink but callers writing chunk data must use Finish's returned size
// instead of reading bytes back.
func (c *ChannelSink) Bytes() []byte { return nil }

// Finish flushes any pending resident bytes, closes the DEFLATE stream (if
// any), and returns the total number of bytes written to the underlying
// writer (the on-disk chunk size, which may be smaller than Offset() when
// compressed). Any write failure recorded during this sink's lifetime
// (including one from a prior call) is returned here instead of a size.
func (c *ChannelSink) Finish() (uint64, error) {
	c.flushResident()
	if c.err != nil {
		return 0, c.err
	}
	if c.zw != nil {
		if err := c.zw.Close(); err != nil {
			c.err = fmt.Errorf("zlib finalize failed: %w", err)
			return 0, c.err
		}
	}
	return uint64(c.out.cursor), nil
}
