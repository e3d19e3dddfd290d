package hiveproof

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160"
)

// SignDigest produces a 65-byte compact ECDSA signature over digest, the
// format the Hive proof script embeds and CheckProof recovers a reward
// pubkey from.
func SignDigest(privKey *btcec.PrivateKey, digest [32]byte) []byte {
	return ecdsa.SignCompact(privKey, digest[:], true)
}

// RecoverPubKeyHash recovers the compressed public key committed to by a
// compact signature over digest, and returns its HASH160 (as a P2WPKH
// reward script would encode it).
func RecoverPubKeyHash(sig []byte, digest [32]byte) ([]byte, error) {
	if len(sig) != sigLen {
		return nil, fmt.Errorf("hiveproof: compact signature must be %d bytes, got %d", sigLen, len(sig))
	}
	pubKey, _, err := ecdsa.RecoverCompact(sig, digest[:])
	if err != nil {
		return nil, fmt.Errorf("hiveproof: recover pubkey: %w", err)
	}
	return hash160(pubKey.SerializeCompressed()), nil
}

// hash160 is the scriptPubKey-style RIPEMD160(SHA256(x)) digest used to
// turn a recovered public key into a witness-program-comparable hash.
func hash160(b []byte) []byte {
	sha := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}
