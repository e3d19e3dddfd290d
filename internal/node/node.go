// Package node wires the retargeting, assembler, PoW miner, Hive engine,
// and Hive validator into one running process against a caller-supplied
// set of external collaborators (wallet, chain reader, peer view, block
// submitter).
package node

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/dctstore"
	"github.com/sudo696/ring/internal/hiveengine"
	"github.com/sudo696/ring/internal/hiveproof"
	"github.com/sudo696/ring/internal/hivevalidator"
	"github.com/sudo696/ring/internal/powminer"
	"github.com/sudo696/ring/internal/types"
)

// Options configures a Node. Collaborators (Chain, Wallet, Peers,
// Submitter) are supplied by whatever owns the surrounding full node;
// this package never implements them itself.
type Options struct {
	Chain     core.ChainReader
	Wallet    core.WalletFacade
	Peers     core.PeerView
	Submitter core.BlockSubmitter
	Params    *consensus.Params
	DataDir   string
	Logger    *zap.Logger

	// Mempool is a pull-based view of eligible mempool entries for the
	// assembler's package selection. Nil means PoW/Hive/Pop blocks are
	// always assembled coinbase-only.
	Mempool func() []*types.MempoolEntry

	EnablePoW  bool
	EnableHive bool
	AllowSolo  bool
}

// Node ties the block-production and proof-validation core together and
// runs it until its context is cancelled.
type Node struct {
	opts   Options
	logger *zap.Logger

	store     *dctstore.Store
	asm       *assembler.Assembler
	powMiner  *powminer.Miner
	hiveEng   *hiveengine.Engine
	validator *hivevalidator.Validator

	cancel context.CancelFunc
}

// New constructs a Node from its options. Call Run to begin running it.
func New(opts Options) (*Node, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("node: logger is required")
	}
	if opts.Chain == nil || opts.Wallet == nil || opts.Peers == nil || opts.Submitter == nil {
		return nil, fmt.Errorf("node: Chain, Wallet, Peers, and Submitter are all required")
	}
	if opts.Params == nil {
		opts.Params = consensus.MainNetParams()
	}
	if opts.Mempool == nil {
		opts.Mempool = func() []*types.MempoolEntry { return nil }
	}

	store, err := dctstore.Open(filepath.Join(opts.DataDir, "dct.db"), opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("node: open dctstore: %w", err)
	}

	asm := assembler.New(opts.Chain, opts.Params, opts.Logger)
	asm.Mempool = opts.Mempool

	recordingSubmitter := &journalingSubmitter{inner: opts.Submitter, store: store, logger: opts.Logger}

	n := &Node{
		opts:   opts,
		logger: opts.Logger,
		store:  store,
		asm:    asm,
		validator: hivevalidator.New(opts.Chain, opts.Params, opts.Logger),
	}

	if opts.EnablePoW {
		n.powMiner = powminer.New(asm, opts.Chain, opts.Wallet, opts.Peers, recordingSubmitter, opts.Params, opts.Logger)
		n.powMiner.AllowSolo = opts.AllowSolo
	}
	if opts.EnableHive {
		n.hiveEng = hiveengine.New(opts.Chain, opts.Wallet, opts.Peers, recordingSubmitter, asm, opts.Params, opts.Logger)
		n.hiveEng.AllowSolo = opts.AllowSolo
	}

	return n, nil
}

// Run starts the PoW miner and Hive engine (whichever are enabled) and
// blocks, running a periodic status log, until ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	defer n.store.Close()

	errCh := make(chan error, 2)
	running := 0

	if n.powMiner != nil {
		running++
		go func() { errCh <- n.powMiner.Run(ctx) }()
	}
	if n.hiveEng != nil {
		running++
		go func() { errCh <- n.hiveEng.Run(ctx) }()
	}
	if running == 0 {
		return fmt.Errorf("node: neither PoW mining nor Hive mining is enabled")
	}

	statusTicker := time.NewTicker(30 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil && err != context.Canceled {
				n.logger.Error("node: worker exited", zap.Error(err))
				return err
			}
			running--
			if running == 0 {
				return nil
			}
		case <-statusTicker.C:
			n.logStatus()
		}
	}
}

// Stop cancels the running Node. Safe to call once Run has returned.
func (n *Node) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
}

// Validator returns the Hive proof validator, for whatever inbound-block
// handler needs to check a peer-supplied Hive block before relaying it.
func (n *Node) Validator() *hivevalidator.Validator {
	return n.validator
}

// Store returns the dctstore-backed DCT/solution journal, so the caller's
// DCT indexer can record newly observed dwarf-creation transactions as it
// scans confirmed blocks.
func (n *Node) Store() *dctstore.Store {
	return n.store
}

func (n *Node) logStatus() {
	info, err := HiveStatus(n.opts.Chain, n.store, n.opts.Params)
	if err != nil {
		n.logger.Warn("node: hive status unavailable", zap.Error(err))
		return
	}
	n.logger.Info("node: status",
		zap.Int32("height", info.Height),
		zap.Bool("hive_active", info.HiveActive),
		zap.Int64("mature_dwarves", info.MatureDwarfPopulation),
		zap.Int64("immature_dwarves", info.ImmatureDwarfPopulation),
		zap.Int64("expired_dwarves", info.ExpiredDwarfPopulation),
		zap.Uint32("hive_bits", info.CurrentHiveBits),
	)
}

// journalingSubmitter wraps the caller's BlockSubmitter: it passes each
// block through first and, once the inner submitter accepts a Hive block,
// persists its proof into the dctstore journal, so a restarted node can
// tell which draws it already claimed.
type journalingSubmitter struct {
	inner  core.BlockSubmitter
	store  *dctstore.Store
	logger *zap.Logger
}

func (j *journalingSubmitter) SubmitBlock(ctx context.Context, solution core.BlockSolution) error {
	err := j.inner.SubmitBlock(ctx, solution)
	if err != nil {
		return err
	}
	if solution.Template == nil || solution.Template.Variant != types.VariantHive || len(solution.Template.ProofScript) == 0 {
		return nil
	}

	proof, perr := hiveproof.ParseScript(solution.Template.ProofScript)
	if perr != nil {
		j.logger.Warn("node: could not parse submitted Hive proof for journaling", zap.Error(perr))
		return nil
	}
	sol := &types.HiveSolution{
		DCT:           &types.DwarfCreationTransaction{Txid: proof.Txid},
		DwarfNonce:    proof.DwarfNonce,
		ClaimedHeight: proof.ClaimedHeight,
		Community:     proof.Community,
		Signature:     proof.Signature,
	}
	if rerr := j.store.RecordSolution(sol); rerr != nil {
		j.logger.Warn("node: failed to journal submitted Hive solution", zap.Error(rerr))
	}
	return nil
}
