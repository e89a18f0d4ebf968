package elfhdr

import "encoding/binary"

// Field readers. Callers guarantee off+width <= len(b); the header buffer is
// always HeaderSize bytes and each entry buffer the layout's entry size
// before any field is read, so an out-of-range read is a programming error
// and panics.

// ReadU8 returns the byte at off.
func ReadU8(b []byte, off int) uint8 {
	return b[off]
}

// ReadU16 reads 2 bytes at off in the given byte order.
func ReadU16(order binary.ByteOrder, b []byte, off int) uint16 {
	return order.Uint16(b[off : off+2])
}

// ReadU32 reads 4 bytes at off in the given byte order.
func ReadU32(order binary.ByteOrder, b []byte, off int) uint32 {
	return order.Uint32(b[off : off+4])
}

// ReadU64 reads 8 bytes at off in the given byte order.
func ReadU64(order binary.ByteOrder, b []byte, off int) uint64 {
	return order.Uint64(b[off : off+8])
}

// ReadU16LE is ReadU16 with little-endian order.
func ReadU16LE(b []byte, off int) uint16 { return ReadU16(binary.LittleEndian, b, off) }

// ReadU32LE is ReadU32 with little-endian order.
func ReadU32LE(b []byte, off int) uint32 { return ReadU32(binary.LittleEndian, b, off) }

// ReadU64LE is ReadU64 with little-endian order.
func ReadU64LE(b []byte, off int) uint64 { return ReadU64(binary.LittleEndian, b, off) }
