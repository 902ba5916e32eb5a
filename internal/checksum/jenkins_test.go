package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJenkins32Deterministic(t *testing.T) {
	data := []byte("OHDRsome object header bytes of arbitrary length")
	require.Equal(t, Jenkins32(data, 0), Jenkins32(data, 0))
}

func TestJenkins32SensitiveToInput(t *testing.T) {
	a := Jenkins32([]byte("hello world"), 0)
	b := Jenkins32([]byte("hello worle"), 0)
	require.NotEqual(t, a, b)
}

func TestJenkins32SensitiveToSeed(t *testing.T) {
	data := []byte("fixed payload")
	require.NotEqual(t, Jenkins32(data, 0), Jenkins32(data, 1))
}

func TestJenkins32EmptyInput(t *testing.T) {
	// Must not panic and must be deterministic even for a zero-length digest.
	require.Equal(t, Jenkins32(nil, 0), Jenkins32([]byte{}, 0))
}

func TestJenkins32AllLengthsUpTo32(t *testing.T) {
	// Exercises every fallthrough branch in the tail-handling switch.
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	seen := map[uint32]int{}
	for n := 0; n <= len(buf); n++ {
		h := Jenkins32(buf[:n], 0)
		seen[h]++
	}
	require.Greater(t, len(seen), len(buf)/2, "expected most prefix lengths to hash distinctly")
}

func TestAppendCallsPutWithDigest(t *testing.T) {
	data := []byte("object header body")
	var got uint32
	Append(data, func(v uint32) { got = v })
	require.Equal(t, Jenkins32(data, 0), got)
}
