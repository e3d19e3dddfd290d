// Package core defines the narrow interfaces the block-production and
// proof-validation components use to reach every external collaborator:
// the wallet, the UTXO/historical block store, the peer-to-peer layer, and
// whatever owns relaying a freshly produced block. None of these
// interfaces is implemented by a full subsystem in this module — that
// belongs to a node built around this core.
package core

import (
	"context"

	"github.com/sudo696/ring/internal/types"
)

// TxOut is the minimal output shape the Hive validator needs when
// resolving a claimed DCT through the UTXO set.
type TxOut struct {
	Value  int64
	Script []byte
}

// WalletFacade is the only surface the core uses to reach key material: it
// never sees private keys directly, only script/signature operations.
type WalletFacade interface {
	// ReserveCoinbaseScript hands back a scriptPubKey this node controls,
	// along with an opaque key identifier SignDigest can use later.
	ReserveCoinbaseScript(ctx context.Context) (script []byte, keyID string, err error)

	// SignDigest produces a compact ECDSA signature over digest using the
	// key identified by keyID.
	SignDigest(ctx context.Context, keyID string, digest [32]byte) (sig []byte, err error)

	// RecoverPubKeyHash recovers the hashed public key committed to by a
	// compact signature over digest, without needing the signer's identity
	// up front. Used by the Hive validator to check the claimed reward
	// address against the DCT.
	RecoverPubKeyHash(sig []byte, digest [32]byte) (pubKeyHash []byte, err error)

	// KeyIDForScript looks up the key identifier controlling scriptPubKey,
	// if this wallet holds it. The Hive engine uses this to find the key
	// behind a winning DCT's reward script before signing its proof.
	KeyIDForScript(script []byte) (keyID string, ok bool)
}

// ChainReader is the two-tier read surface the retargeting, assembler, and
// Hive validator use to look at chain state: a fast path over recent
// headers and the live UTXO set, and a slow "deep drill" path over
// historical, possibly-pruned block data.
type ChainReader interface {
	TipHeader() (*types.BlockHeader, error)
	HeaderByHeight(height int32) (*types.BlockHeader, error)
	HeaderAncestors(from *types.BlockHeader, count int) ([]*types.BlockHeader, error)

	// FindUTXO resolves an unspent output through the live UTXO set. ok is
	// false if the output does not exist or has already been spent.
	FindUTXO(txid [32]byte, vout uint32) (out *TxOut, ok bool, err error)

	// FindDCT resolves a dwarf-creation transaction by its output, checking
	// the live DCT index first and falling back to historical block data —
	// the "deep drill" the Hive validator needs because a DCT can still be
	// claimed after its originating output has been spent for other
	// reasons. Unlike FindUTXO this always returns the full DCT record
	// (height, reward script, community flag) regardless of whether the
	// underlying output is still unspent.
	FindDCT(txid [32]byte, vout uint32) (dct *types.DwarfCreationTransaction, ok bool, err error)

	// MatureDCTs returns all dwarf-creation transactions mature at height,
	// for the Hive engine's binning pass.
	MatureDCTs(height int32, gestationBlocks, lifespanBlocks int32) ([]*types.DwarfCreationTransaction, error)
}

// PeerView answers the IBD/connectivity questions the PoW miner and Hive
// engine gate on before attempting to produce a block.
type PeerView interface {
	PeerCount() int
	IsInitialBlockDownload() bool
}

// BlockSolution is whatever a miner or the Hive engine found: a header
// ready to submit, paired with the template it came from.
type BlockSolution struct {
	Template *types.BlockTemplate
	Header   types.BlockHeader
}

// BlockSubmitter hands a freshly produced block to whatever owns consensus
// validation and relay. SubmitBlock returning a *BlockRejectedError means
// the block failed consensus rules and must not be retried; any other
// error is assumed transient.
type BlockSubmitter interface {
	SubmitBlock(ctx context.Context, solution BlockSolution) error
}

// BlockRejectedError wraps a terminal, non-retryable consensus rejection
// from a BlockSubmitter.
type BlockRejectedError struct {
	Reason string
}

func (e *BlockRejectedError) Error() string {
	return "block rejected: " + e.Reason
}
