package blockutil

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// DoubleSHA256 returns the double-SHA256 digest used for transaction ids and
// block hashes.
func DoubleSHA256(b []byte) [32]byte {
	return chainhash.DoubleHashH(b)
}

// HashHex renders a 32-byte hash in the conventional reversed (big-endian
// display) hex form.
func HashHex(hash [32]byte) string {
	h := chainhash.Hash(hash)
	return h.String()
}
