// Package types holds the data model shared by the retargeting, assembler,
// miner, and Hive components: block headers and templates, mempool
// entries, and dwarf-lottery bookkeeping types.
package types

import (
	"encoding/binary"

	"github.com/sudo696/ring/internal/blockutil"
)

// Variant identifies which of the three block-production paths produced a
// given template or header.
type Variant int

const (
	VariantPoW Variant = iota
	VariantHive
	VariantPop
)

func (v Variant) String() string {
	switch v {
	case VariantPoW:
		return "pow"
	case VariantHive:
		return "hive"
	case VariantPop:
		return "pop"
	default:
		return "unknown"
	}
}

// BlockHeader is the 80-byte consensus header plus the out-of-band height
// and variant bookkeeping the core needs to carry alongside it.
type BlockHeader struct {
	Version       int32
	PrevBlockHash [32]byte
	MerkleRoot    [32]byte
	Time          uint32
	Bits          uint32
	Nonce         uint32

	Height  int32
	Variant Variant
}

// Serialize returns the 80-byte wire encoding of the header.
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, 80)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Time)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Hash returns the double-SHA256 block hash in internal (little-endian)
// byte order.
func (h *BlockHeader) Hash() [32]byte {
	return blockutil.DoubleSHA256(h.Serialize())
}

// IsHiveMined reports whether this header was produced via the dwarf
// lottery rather than nonce search.
func (h *BlockHeader) IsHiveMined() bool {
	return h.Variant == VariantHive
}

// IsPopMined reports whether this header was produced via a minimum
// difficulty proof block rather than nonce search.
func (h *BlockHeader) IsPopMined() bool {
	return h.Variant == VariantPop
}
