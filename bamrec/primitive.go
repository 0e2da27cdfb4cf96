// Package bamrec implements the packed-byte-buffer alignment record codec:
// the fixed-offset core fields, CIGAR operations, 4-bit packed sequence,
// quality scores and auxiliary tags of a single BAM alignment record.
package bamrec

import (
	"encoding/binary"
	"math"
)

// Primitive accessors read and write fixed-width little-endian values at a
// caller-supplied offset within a byte buffer. They are total functions
// within a checked length: calling them with an out-of-range offset is a
// programmer error, not a recoverable failure, and simply panics via a
// slice index if violated.

func getU8(b []byte, off int) uint8 { return b[off] }

func putU8(b []byte, off int, v uint8) { b[off] = v }

func getI8(b []byte, off int) int8 { return int8(b[off]) }

func putI8(b []byte, off int, v int8) { b[off] = byte(v) }

func getU16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

func putU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

func getI16(b []byte, off int) int16 { return int16(getU16(b, off)) }

func putI16(b []byte, off int, v int16) { putU16(b, off, uint16(v)) }

func getU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func putU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

func getI32(b []byte, off int) int32 { return int32(getU32(b, off)) }

func putI32(b []byte, off int, v int32) { putU32(b, off, uint32(v)) }

func getF32(b []byte, off int) float32 {
	return math.Float32frombits(getU32(b, off))
}

func putF32(b []byte, off int, v float32) {
	putU32(b, off, math.Float32bits(v))
}
