// Package blockutil holds small, dependency-light helpers shared by the
// block assembler, the miners, and the Hive validator: varint and hex
// codecs, compact-target <-> big.Int conversion, and header hashing.
package blockutil

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// WriteVarInt encodes n as a Bitcoin-style CompactSize integer.
func WriteVarInt(n uint64) []byte {
	switch {
	case n < 0xfd:
		return []byte{byte(n)}
	case n <= 0xffff:
		b := make([]byte, 3)
		b[0] = 0xfd
		binary.LittleEndian.PutUint16(b[1:], uint16(n))
		return b
	case n <= 0xffffffff:
		b := make([]byte, 5)
		b[0] = 0xfe
		binary.LittleEndian.PutUint32(b[1:], uint32(n))
		return b
	default:
		b := make([]byte, 9)
		b[0] = 0xff
		binary.LittleEndian.PutUint64(b[1:], n)
		return b
	}
}

// ReadVarInt decodes a CompactSize integer from the front of b, returning the
// value and the number of bytes consumed.
func ReadVarInt(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("varint: empty input")
	}
	switch b[0] {
	case 0xfd:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("varint: truncated 0xfd prefix")
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case 0xfe:
		if len(b) < 5 {
			return 0, 0, fmt.Errorf("varint: truncated 0xfe prefix")
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	case 0xff:
		if len(b) < 9 {
			return 0, 0, fmt.Errorf("varint: truncated 0xff prefix")
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	default:
		return uint64(b[0]), 1, nil
	}
}

// HexToBytes decodes a hex string, rejecting odd-length input explicitly so
// callers get a consistent error instead of hex.ErrLength.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex: odd-length string %q", s)
	}
	return hex.DecodeString(s)
}

// ReverseBytes returns a new slice with b's bytes in reverse order, used to
// flip between internal (little-endian) and display (big-endian) hash byte
// order.
func ReverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
