package hiveengine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// minotaurHashArbitrary is the consensus-critical keyed hash the dwarf
// lottery hashes candidate nonces against. It is built directly on
// crypto/sha256's HMAC construction: a keyed hash over an arbitrary byte
// string is exactly what HMAC is for.
func minotaurHashArbitrary(key, data []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// checkBinHash is the dwarf-lottery double hash: the first hash runs over
// the raw detRandString/txid/nonce bytes, the second runs over the first
// hash's hex string representation rather than its raw bytes.
func checkBinHash(detRandString string, txid [32]byte, nonce uint32) [32]byte {
	first := minotaurHashArbitrary([]byte(detRandString), append(txid[:], nonceBytes(nonce)...))
	firstHex := hex.EncodeToString(first[:])
	return minotaurHashArbitrary([]byte(detRandString), []byte(firstHex))
}

func nonceBytes(nonce uint32) []byte {
	return []byte{byte(nonce), byte(nonce >> 8), byte(nonce >> 16), byte(nonce >> 24)}
}
