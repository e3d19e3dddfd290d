package blockutil

import "math/big"

// CompactToBig expands a Bitcoin-style compact difficulty encoding (nBits)
// into the big.Int target it represents. The encoding is a 3-byte mantissa
// with an 8-bit exponent: the mantissa is shifted left by 8*(exponent-3)
// bits. An encoding with the sign bit set collapses to zero; an overflowing
// encoding is shifted without any check (CompactToBigChecked reports both).
func CompactToBig(compact uint32) *big.Int {
	exponent := compact >> 24
	mantissa := compact & 0x007fffff

	if compact&0x00800000 != 0 {
		return new(big.Int)
	}

	result := new(big.Int).SetUint64(uint64(mantissa))
	if exponent <= 3 {
		result.Rsh(result, uint(8*(3-exponent)))
		return result
	}
	result.Lsh(result, uint(8*(exponent-3)))
	return result
}

// BigToCompact reduces a big.Int target to its compact (nBits) encoding,
// the inverse of CompactToBig.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	exponent := uint(len(n.Bytes()))
	var mantissa uint32

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0]) << uint(8*(3-exponent))
	} else {
		tmp := new(big.Int).Rsh(n, uint(8*(exponent-3)))
		mantissa = uint32(tmp.Uint64())
	}

	// If the high bit of the mantissa would be set, it would be interpreted
	// as a sign bit, so shift everything down a byte and bump the exponent.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent)<<24 | mantissa
}

// HashToBig interprets a 32-byte block hash (internal little-endian byte
// order) as a big.Int for target comparisons.
func HashToBig(hash [32]byte) *big.Int {
	rev := ReverseBytes(hash[:])
	return new(big.Int).SetBytes(rev)
}

// CompactToBigChecked expands compact's mantissa and exponent (ignoring the
// sign bit, so a negative encoding yields its magnitude rather than zero)
// and additionally reports whether the encoding was negative or overflowed,
// the two failure modes arith_uint256::SetCompact signals back to its
// caller.
func CompactToBigChecked(compact uint32) (target *big.Int, negative, overflow bool) {
	exponent := compact >> 24
	mantissa := compact & 0x007fffff
	negative = mantissa != 0 && compact&0x00800000 != 0

	result := new(big.Int).SetUint64(uint64(mantissa))
	if exponent <= 3 {
		result.Rsh(result, uint(8*(3-exponent)))
	} else {
		result.Lsh(result, uint(8*(exponent-3)))
	}

	overflow = mantissa != 0 && (exponent > 34 ||
		(mantissa > 0xff && exponent > 33) ||
		(mantissa > 0xffff && exponent > 32))

	return result, negative, overflow
}

// CheckProofOfWork reports whether hash satisfies the difficulty target
// encoded by bits, rejecting a negative, zero, or overflowing encoding and
// any target that exceeds powLimitInitial before comparing. Mirrors
// CheckProofOfWork's validity gate ahead of its hash/target comparison.
func CheckProofOfWork(hash [32]byte, bits, powLimitInitial uint32) bool {
	target, negative, overflow := CompactToBigChecked(bits)
	if negative || overflow || target.Sign() == 0 {
		return false
	}
	if target.Cmp(CompactToBig(powLimitInitial)) > 0 {
		return false
	}
	return HashToBig(hash).Cmp(target) <= 0
}
