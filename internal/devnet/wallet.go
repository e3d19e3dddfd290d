package devnet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/ripemd160"

	"github.com/sudo696/ring/internal/hiveproof"

	"crypto/sha256"
)

// Wallet is a single-key core.WalletFacade backed by an in-memory btcec
// key, standing in for a real wallet's key management.
type Wallet struct {
	priv   *btcec.PrivateKey
	script []byte
	keyID  string
}

// NewWallet generates a fresh key and derives a P2WPKH-style scriptPubKey
// for it.
func NewWallet() (*Wallet, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("devnet: generate key: %w", err)
	}
	h := hash160(priv.PubKey().SerializeCompressed())
	script := append([]byte{0x00, 0x14}, h...)
	return &Wallet{priv: priv, script: script, keyID: "devnet-key-0"}, nil
}

func (w *Wallet) ReserveCoinbaseScript(ctx context.Context) ([]byte, string, error) {
	return w.script, w.keyID, nil
}

func (w *Wallet) SignDigest(ctx context.Context, keyID string, digest [32]byte) ([]byte, error) {
	if keyID != w.keyID {
		return nil, fmt.Errorf("devnet: unknown key %q", keyID)
	}
	return hiveproof.SignDigest(w.priv, digest), nil
}

func (w *Wallet) RecoverPubKeyHash(sig []byte, digest [32]byte) ([]byte, error) {
	return hiveproof.RecoverPubKeyHash(sig, digest)
}

func (w *Wallet) KeyIDForScript(script []byte) (string, bool) {
	if len(script) != len(w.script) {
		return "", false
	}
	for i := range script {
		if script[i] != w.script[i] {
			return "", false
		}
	}
	return w.keyID, true
}

func hash160(b []byte) []byte {
	sh := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(sh[:])
	return r.Sum(nil)
}
