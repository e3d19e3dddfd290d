// Package hiveproof builds and parses the Hive proof script embedded in a
// Hive block's coinbase, and performs the compact-signature operations the
// proof carries.
package hiveproof

import (
	"encoding/hex"
	"fmt"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/types"
)

const (
	opReturn = 0x6a
	opDwarf  = 0xb4 // OP_NOP-range opcode repurposed to tag Hive proof scripts
	opTrue   = 0x51
	opFalse  = 0x00

	txidHexLen  = 64
	sigLen      = 65
)

// BuildScript assembles the 144-byte Hive proof script: OP_RETURN OP_DWARF
// followed by length-prefixed pushes for the dwarf nonce, the claimed DCT
// height, the community-contribution flag, the ASCII-hex txid, and the
// compact signature. Each push uses a single length-marker byte, mirroring
// how CScript's << operator auto-prefixes pushes under 76 bytes.
func BuildScript(sol *types.HiveSolution) ([]byte, error) {
	if sol == nil || sol.DCT == nil {
		return nil, fmt.Errorf("hiveproof: solution missing DCT reference")
	}
	if len(sol.Signature) != sigLen {
		return nil, fmt.Errorf("hiveproof: signature must be %d bytes, got %d", sigLen, len(sol.Signature))
	}

	txidHex := hex.EncodeToString(sol.DCT.Txid[:])
	if len(txidHex) != txidHexLen {
		return nil, fmt.Errorf("hiveproof: unexpected txid hex length %d", len(txidHex))
	}

	buf := make([]byte, 0, 144)
	buf = append(buf, opReturn, opDwarf)

	buf = append(buf, 4)
	buf = append(buf, le32(sol.DwarfNonce)...)

	buf = append(buf, 4)
	buf = append(buf, le32(uint32(sol.ClaimedHeight))...)

	if sol.Community {
		buf = append(buf, opTrue)
	} else {
		buf = append(buf, opFalse)
	}

	buf = append(buf, byte(txidHexLen))
	buf = append(buf, []byte(txidHex)...)

	buf = append(buf, byte(sigLen))
	buf = append(buf, sol.Signature...)

	return buf, nil
}

// ParsedProof is a Hive proof script decomposed back into its fields.
type ParsedProof struct {
	DwarfNonce    uint32
	ClaimedHeight int32
	Community     bool
	Txid          [32]byte
	Signature     []byte
}

// ParseScript reverses BuildScript, validating the exact byte layout.
func ParseScript(script []byte) (*ParsedProof, error) {
	if len(script) < 2 || script[0] != opReturn || script[1] != opDwarf {
		return nil, fmt.Errorf("hiveproof: not a Hive proof script")
	}
	pos := 2

	nonce, pos, err := readLenPrefixed(script, pos, 4)
	if err != nil {
		return nil, fmt.Errorf("hiveproof: dwarf nonce: %w", err)
	}

	heightBytes, pos, err := readLenPrefixed(script, pos, 4)
	if err != nil {
		return nil, fmt.Errorf("hiveproof: claimed height: %w", err)
	}

	if pos >= len(script) {
		return nil, fmt.Errorf("hiveproof: truncated before community flag")
	}
	var community bool
	switch script[pos] {
	case opTrue:
		community = true
	case opFalse:
		community = false
	default:
		return nil, fmt.Errorf("hiveproof: invalid community flag byte %#x", script[pos])
	}
	pos++

	txidHexBytes, pos, err := readLenPrefixed(script, pos, txidHexLen)
	if err != nil {
		return nil, fmt.Errorf("hiveproof: txid: %w", err)
	}
	txidBytes, err := blockutil.HexToBytes(string(txidHexBytes))
	if err != nil {
		return nil, fmt.Errorf("hiveproof: txid hex decode: %w", err)
	}
	var txid [32]byte
	copy(txid[:], txidBytes)

	sig, pos, err := readLenPrefixed(script, pos, sigLen)
	if err != nil {
		return nil, fmt.Errorf("hiveproof: signature: %w", err)
	}
	_ = pos

	return &ParsedProof{
		DwarfNonce:    le32ToUint(nonce),
		ClaimedHeight: int32(le32ToUint(heightBytes)),
		Community:     community,
		Txid:          txid,
		Signature:     sig,
	}, nil
}

func readLenPrefixed(script []byte, pos int, wantLen int) ([]byte, int, error) {
	if pos >= len(script) {
		return nil, pos, fmt.Errorf("truncated length marker")
	}
	l := int(script[pos])
	pos++
	if l != wantLen {
		return nil, pos, fmt.Errorf("length marker %d, want %d", l, wantLen)
	}
	if pos+l > len(script) {
		return nil, pos, fmt.Errorf("truncated field")
	}
	out := script[pos : pos+l]
	return out, pos + l, nil
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le32ToUint(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
