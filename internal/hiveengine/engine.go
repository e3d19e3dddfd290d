// Package hiveengine implements the dwarf-lottery solver: binning mature
// dwarf-creation transactions across worker threads, searching each bin's
// local nonce space for a winning draw, and handing the result back to the
// caller to assemble and submit as a Hive block.
package hiveengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/hiveproof"
	"github.com/sudo696/ring/internal/minercancel"
	"github.com/sudo696/ring/internal/retarget"
	"github.com/sudo696/ring/internal/types"
)

const abortCheckIterations = 1000

// Engine runs the dwarf-lottery loop, periodically calling
// busyDwarvesOnce and submitting any winning draw.
type Engine struct {
	chain     core.ChainReader
	wallet    core.WalletFacade
	peers     core.PeerView
	submitter core.BlockSubmitter
	assembler *assembler.Assembler
	params    *consensus.Params
	logger    *zap.Logger

	AllowSolo bool
}

// New creates a Hive engine bound to its external collaborators.
func New(chain core.ChainReader, wallet core.WalletFacade, peers core.PeerView, submitter core.BlockSubmitter, asm *assembler.Assembler, params *consensus.Params, logger *zap.Logger) *Engine {
	return &Engine{
		chain:     chain,
		wallet:    wallet,
		peers:     peers,
		submitter: submitter,
		assembler: asm,
		params:    params,
		logger:    logger,
	}
}

// Run drives the dwarf-lottery loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.params.MinHiveCheckDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if !e.AllowSolo && (e.peers.PeerCount() == 0 || e.peers.IsInitialBlockDownload()) {
			continue
		}

		solution, attemptHeight, err := e.busyDwarvesOnce(ctx)
		if err != nil {
			if err == core.ErrNoMatureDwarves || err == core.ErrPreconditionNotMet {
				e.logger.Debug("hiveengine: precondition not met", zap.Error(err))
				continue
			}
			return err
		}
		if solution == nil {
			continue
		}

		if err := e.submitSolution(ctx, solution, attemptHeight); err != nil {
			if _, ok := err.(*core.BlockRejectedError); ok {
				e.logger.Warn("hiveengine: self-built block rejected", zap.Error(err))
				return err
			}
			e.logger.Info("hiveengine: submission failed, solution now stale", zap.Error(err))
		}
	}
}

// busyDwarvesOnce is one dwarf-lottery attempt: bin the currently mature
// DCTs, search every bin concurrently, and return the first winning draw
// (or nil if none was found before the tip moved) plus the tip height the
// attempt was run against, so the caller can detect a stale win.
func (e *Engine) busyDwarvesOnce(ctx context.Context) (*types.HiveSolution, int32, error) {
	tip, err := e.chain.TipHeader()
	if err != nil {
		return nil, 0, fmt.Errorf("hiveengine: read tip: %w", err)
	}
	if tip == nil {
		return nil, 0, core.ErrPreconditionNotMet
	}
	if e.params.HiveActivationHeight > 0 && tip.Height+1 < e.params.HiveActivationHeight {
		return nil, 0, core.ErrPreconditionNotMet
	}
	if tip.Height+1 < e.params.LastInitialDistributionHeight+e.params.SlowStartBlocks {
		return nil, 0, core.ErrPreconditionNotMet
	}
	run, err := retarget.HiveBlocksSincePow(e.chain, tip, e.params.MaxConsecutiveHiveBlocks)
	if err != nil {
		return nil, 0, fmt.Errorf("hiveengine: consecutive Hive run: %w", err)
	}
	if run >= e.params.MaxConsecutiveHiveBlocks {
		return nil, 0, core.ErrPreconditionNotMet
	}

	candidates, err := e.chain.MatureDCTs(tip.Height, e.params.DwarfGestationBlocks, e.params.DwarfLifespanBlocks)
	if err != nil {
		return nil, 0, fmt.Errorf("hiveengine: mature DCTs: %w", err)
	}
	if len(candidates) == 0 {
		return nil, 0, core.ErrNoMatureDwarves
	}

	bins := binDwarves(candidates, e.params.DwarfCost, e.params.HiveCheckThreads)
	if len(bins) == 0 {
		return nil, 0, core.ErrNoMatureDwarves
	}

	bits, err := retarget.NextHiveWorkRequired(e.chain, e.params)
	if err != nil {
		return nil, 0, fmt.Errorf("hiveengine: retarget: %w", err)
	}
	target := blockutil.CompactToBig(bits)

	detRandString := blockutil.HashHex(tip.Hash())

	token := minercancel.New()
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if e.params.HiveEarlyAbort {
		go e.abortWatcher(watchCtx, tip.Height, token)
	}

	var (
		mu       sync.Mutex
		solution *types.HiveSolution
	)

	var wg sync.WaitGroup
	for i := range bins {
		bin := bins[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, ok := checkBin(&bin, detRandString, target, token)
			if !ok {
				return
			}
			mu.Lock()
			if solution == nil {
				solution = found
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if solution == nil {
		return nil, 0, nil
	}
	return solution, tip.Height, nil
}

// submitSolution signs the winning draw with the key behind its DCT's
// reward script, assembles the final Hive block template around the proof,
// and hands it to the submitter, re-checking the tip immediately beforehand
// since binning and signing both take real time against a moving chain.
// attemptHeight is the tip height busyDwarvesOnce ran the search against;
// if the tip has moved since, the draw is stale regardless of how the DCT
// that won it is dated.
func (e *Engine) submitSolution(ctx context.Context, sol *types.HiveSolution, attemptHeight int32) error {
	keyID, ok := e.wallet.KeyIDForScript(sol.DCT.RewardScript)
	if !ok {
		return fmt.Errorf("hiveengine: %w: no key for winning DCT's reward script", core.ErrWalletExhausted)
	}

	digest := blockutil.DoubleSHA256([]byte(sol.DetRandString))
	sig, err := e.wallet.SignDigest(ctx, keyID, digest)
	if err != nil {
		return fmt.Errorf("hiveengine: sign proof digest: %w", err)
	}
	sol.Signature = sig

	proofScript, err := hiveproof.BuildScript(sol)
	if err != nil {
		return fmt.Errorf("hiveengine: build proof script: %w", err)
	}

	tip, err := e.chain.TipHeader()
	if err != nil {
		return fmt.Errorf("hiveengine: re-check tip: %w", err)
	}
	if tip == nil || tip.Height != attemptHeight {
		return core.ErrStaleCandidate
	}

	tmpl, err := e.assembler.CreateNewBlock(ctx, types.BlockRequest{
		Variant:        types.VariantHive,
		Payouts:        []types.PayoutEntry{{Script: sol.DCT.RewardScript, Amount: 0}},
		ProofScript:    proofScript,
		ExtraNonceSize: 0,
		Height:         tip.Height + 1,
	})
	if err != nil {
		return fmt.Errorf("hiveengine: assemble Hive block: %w", err)
	}
	tmpl.ProofScript = proofScript

	header := tmpl.Header
	return e.submitter.SubmitBlock(ctx, core.BlockSolution{Template: tmpl, Header: header})
}

// abortWatcher polls the chain tip every millisecond; if the height moves
// out from under a lottery attempt, it flips the early-abort flag so every
// CheckBin worker stops on its next 1000-iteration check.
func (e *Engine) abortWatcher(ctx context.Context, attemptHeight int32, token *minercancel.Token) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tip, err := e.chain.TipHeader()
			if err != nil || tip == nil {
				continue
			}
			if tip.Height != attemptHeight {
				token.RequestEarlyAbort()
				return
			}
		}
	}
}

