// Package assembler builds block templates for the PoW, Hive, and Pop
// variants: coinbase construction, ancestor-feerate package selection, and
// header pre-fill ahead of nonce search or dwarf-lottery solving.
package assembler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/retarget"
	"github.com/sudo696/ring/internal/types"
)

// Assembler builds BlockTemplates against a ChainReader and a mempool
// view, the way BlockAssembler::CreateNewBlock did against the active
// chain and the node's mempool.
type Assembler struct {
	chain   core.ChainReader
	params  *consensus.Params
	builder *types.CoinbaseBuilder
	logger  *zap.Logger

	// Mempool is a pull-based view of currently eligible entries; kept as a
	// func rather than a concrete mempool type so tests and a real mempool
	// can both satisfy it.
	Mempool func() []*types.MempoolEntry
}

// New creates an Assembler for the given network.
func New(chain core.ChainReader, params *consensus.Params, logger *zap.Logger) *Assembler {
	return &Assembler{
		chain:   chain,
		params:  params,
		builder: types.NewCoinbaseBuilder(params.Network),
		logger:  logger,
		Mempool: func() []*types.MempoolEntry { return nil },
	}
}

// CreateNewBlock assembles a BlockTemplate for the requested variant. For
// Hive and Pop requests, dwarf-creation-transaction spends are excluded
// from package selection entirely, matching the original assembler's
// per-variant mempool filtering.
func (a *Assembler) CreateNewBlock(ctx context.Context, req types.BlockRequest) (*types.BlockTemplate, error) {
	tip, err := a.chain.TipHeader()
	if err != nil {
		return nil, fmt.Errorf("assembler: read tip: %w", err)
	}

	candidateTime := uint32(time.Now().Unix())
	if tip != nil && candidateTime <= tip.Time {
		candidateTime = tip.Time + 1
	}

	var bits uint32
	switch req.Variant {
	case types.VariantPoW:
		bits, err = retarget.NextPowWorkRequired(a.chain, a.params, candidateTime)
	case types.VariantHive:
		bits, err = retarget.NextHiveWorkRequired(a.chain, a.params)
	case types.VariantPop:
		bits = a.params.PowLimit // Pop blocks mine at minimum difficulty by design
	default:
		return nil, fmt.Errorf("assembler: unknown variant %v", req.Variant)
	}
	if err != nil {
		return nil, fmt.Errorf("assembler: retarget: %w", err)
	}

	entries := a.Mempool()
	if req.Variant != types.VariantPoW {
		entries = excludeDCTSpends(entries)
	}

	locktimeCutoff := time.Now().Unix() // BIP113: evaluated against MTP in a real chain reader
	// BlockMinTxFee is in satoshis/kvB; package selection compares against
	// MempoolEntry fee rates in satoshis per weight unit scaled by 1e6. One
	// kvB is 4000 weight units, so 1 sat/kvB is 250 on that scale.
	minFeeRate := a.params.BlockMinTxFee * 250
	selectedEntries := addPackageTxs(entries, a.params.BlockMaxWeight, minFeeRate, req.Height, locktimeCutoff, true)

	var totalFees, totalWeight int64
	txs := make([][]byte, 0, len(selectedEntries))
	hasWitness := false
	for _, e := range selectedEntries {
		txs = append(txs, e.Tx)
		totalFees += e.Fee
		totalWeight += e.Weight
		hasWitness = hasWitness || e.HasWitness
	}

	var witnessCommitment []byte
	if hasWitness && req.WitnessCommitment != "" {
		witnessCommitment, err = blockutil.HexToBytes(req.WitnessCommitment)
		if err != nil {
			return nil, fmt.Errorf("assembler: witness commitment: %w", err)
		}
	}

	proofScript := req.ProofScript

	coinbase, extranonceOffset, err := a.builder.BuildCoinbase(req.Height, req.Payouts, req.ExtraNonceSize, witnessCommitment, proofScript)
	if err != nil {
		return nil, fmt.Errorf("assembler: build coinbase: %w", err)
	}

	header := types.BlockHeader{
		Version: 4,
		Time:    candidateTime,
		Bits:    bits,
		Nonce:   nonceMarkerFor(req.Variant, a.params),
		Height:  req.Height,
		Variant: req.Variant,
	}
	if tip != nil {
		header.PrevBlockHash = tip.Hash()
	}

	tmpl := &types.BlockTemplate{
		Header:            header,
		Variant:           req.Variant,
		CoinbaseTx:        coinbase,
		ExtraNonceOffset:  extranonceOffset,
		Transactions:      txs,
		TotalFees:         totalFees,
		TotalWeight:       totalWeight,
		WitnessCommitment: witnessCommitment,
		ProofScript:       proofScript,
	}

	a.logger.Debug("assembled block template",
		zap.String("variant", req.Variant.String()),
		zap.Int32("height", req.Height),
		zap.Int("tx_count", len(txs)),
		zap.Int64("total_fees", totalFees),
		zap.Uint32("bits", bits),
	)

	return tmpl, nil
}

// nonceMarkerFor returns the header.Nonce sentinel a template's variant
// must carry: the Hive and Pop nonce markers for their respective variants,
// or zero for a real PoW block awaiting nonce search.
func nonceMarkerFor(variant types.Variant, params *consensus.Params) uint32 {
	switch variant {
	case types.VariantHive:
		return params.HiveNonceMarker
	case types.VariantPop:
		return params.PopNonceMarker
	default:
		return 0
	}
}

// excludeDCTSpends filters out any mempool entry that is, or spends, a
// dwarf-creation transaction, so Hive and Pop blocks never disturb the
// dwarf population accounting the lottery depends on.
func excludeDCTSpends(entries []*types.MempoolEntry) []*types.MempoolEntry {
	out := make([]*types.MempoolEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDCT {
			continue
		}
		out = append(out, e)
	}
	return out
}
