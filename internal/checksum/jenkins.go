// Package checksum implements the 32-bit Jenkins lookup3 hash used by HDF5
// to checksum object headers and the superblock.
package checksum

import "encoding/binary"

func rot(x uint32, k uint) uint32 {
	return (x << k) | (x >> (32 - k))
}

func mix(a, b, c *uint32) {
	*a -= *c
	*a ^= rot(*c, 4)
	*c += *b
	*b -= *a
	*b ^= rot(*a, 6)
	*a += *c
	*c -= *b
	*c ^= rot(*b, 8)
	*b += *a
	*a -= *c
	*a ^= rot(*c, 16)
	*c += *b
	*b -= *a
	*b ^= rot(*a, 19)
	*a += *c
	*c -= *b
	*c ^= rot(*b, 4)
	*b += *a
}

func final(a, b, c *uint32) {
	*c ^= *b
	*c -= rot(*b, 14)
	*a ^= *c
	*a -= rot(*c, 11)
	*b ^= *a
	*b -= rot(*a, 25)
	*c ^= *b
	*c -= rot(*b, 16)
	*a ^= *c
	*a -= rot(*c, 4)
	*b ^= *a
	*b -= rot(*a, 14)
	*c ^= *b
	*c -= rot(*b, 24)
}

// Jenkins32 computes the lookup3 "hashlittle" 32-bit digest of data, using
// initval as the seed (HDF5 always seeds with 0). This is the digest
// appended, little-endian, to every object header and to the superblock.
func Jenkins32(data []byte, initval uint32) uint32 {
	length := len(data)
	a := uint32(0xdeadbeef) + uint32(length) + initval
	b := a
	c := a

	i := 0
	for length > 12 {
		a += binary.LittleEndian.Uint32(data[i : i+4])
		b += binary.LittleEndian.Uint32(data[i+4 : i+8])
		c += binary.LittleEndian.Uint32(data[i+8 : i+12])
		mix(&a, &b, &c)
		length -= 12
		i += 12
	}

	if length == 0 {
		return c
	}

	var k [12]byte
	copy(k[:], data[i:i+length])

	switch length {
	case 12:
		c += uint32(k[11]) << 24
		fallthrough
	case 11:
		c += uint32(k[10]) << 16
		fallthrough
	case 10:
		c += uint32(k[9]) << 8
		fallthrough
	case 9:
		c += uint32(k[8])
		fallthrough
	case 8:
		b += uint32(k[7]) << 24
		fallthrough
	case 7:
		b += uint32(k[6]) << 16
		fallthrough
	case 6:
		b += uint32(k[5]) << 8
		fallthrough
	case 5:
		b += uint32(k[4])
		fallthrough
	case 4:
		a += uint32(k[3]) << 24
		fallthrough
	case 3:
		a += uint32(k[2]) << 16
		fallthrough
	case 2:
		a += uint32(k[1]) << 8
		fallthrough
	case 1:
		a += uint32(k[0])
	}

	final(&a, &b, &c)
	return c
}

// Append computes the Jenkins32 digest of data and appends it,
// little-endian, to data's backing sink via put.
func Append(data []byte, put func(uint32)) {
	put(Jenkins32(data, 0))
}
