// Package powminer implements the nonce-search loop: the classic
// wallet-embedded CPU miner, not a pool/stratum job distributor.
package powminer

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sudo696/ring/internal/assembler"
	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/minercancel"
	"github.com/sudo696/ring/internal/types"
)

const (
	interruptCheckInterval = 4096
	refreshWithoutHit      = 65536
	nonceHighWaterMark     = 0xFFFF0000
)

// Miner runs a single nonce-search loop, in the goroutine that calls Run,
// against templates the Assembler produces, gated on wallet availability and peer/IBD status.
type Miner struct {
	assembler *assembler.Assembler
	chain     core.ChainReader
	wallet    core.WalletFacade
	peers     core.PeerView
	submitter core.BlockSubmitter
	params    *consensus.Params
	logger    *zap.Logger

	// AllowSolo skips the peer/IBD gate, the regtest-equivalent escape
	// hatch for local testing.
	AllowSolo bool

	pollLimiter *rate.Limiter

	hashCount uint64
	windowStart time.Time
}

// New creates a PoW miner bound to an assembler and its external
// collaborators.
func New(asm *assembler.Assembler, chain core.ChainReader, wallet core.WalletFacade, peers core.PeerView, submitter core.BlockSubmitter, params *consensus.Params, logger *zap.Logger) *Miner {
	return &Miner{
		assembler:   asm,
		chain:       chain,
		wallet:      wallet,
		peers:       peers,
		submitter:   submitter,
		params:      params,
		logger:      logger,
		pollLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
		windowStart: time.Now(),
	}
}

// Run drives the miner loop until ctx is cancelled: wait for peers unless
// solo, reserve a coinbase script, assemble a template, search for a
// nonce, and submit on success unless the tip has moved meanwhile.
func (m *Miner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if !m.AllowSolo {
			if err := m.waitForPeers(ctx); err != nil {
				return err
			}
		}

		script, keyID, err := m.wallet.ReserveCoinbaseScript(ctx)
		if err != nil {
			return fmt.Errorf("powminer: %w: %w", core.ErrWalletExhausted, err)
		}
		_ = keyID

		tip, err := m.chain.TipHeader()
		if err != nil {
			return fmt.Errorf("powminer: read tip: %w", err)
		}
		var nextHeight int32
		if tip != nil {
			nextHeight = tip.Height + 1
		}

		tmpl, err := m.assembler.CreateNewBlock(ctx, types.BlockRequest{
			Variant:        types.VariantPoW,
			Height:         nextHeight,
			CoinbaseScript: script,
			Payouts:        []types.PayoutEntry{{Script: script, Amount: 0}},
			ExtraNonceSize: 4,
		})
		if err != nil {
			m.logger.Info("powminer: precondition not met, retrying", zap.Error(err))
			if err := sleepOrCancel(ctx, time.Second); err != nil {
				return err
			}
			continue
		}

		token := minercancel.New()
		solution, found, err := m.scan(ctx, tmpl, token)
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		// Stale-tip re-check: if the tip moved during the search, the
		// candidate no longer extends it and is dropped without submitting.
		cur, err := m.chain.TipHeader()
		if err != nil {
			return fmt.Errorf("powminer: re-check tip: %w", err)
		}
		var curHash [32]byte
		if cur != nil {
			curHash = cur.Hash()
		}
		if curHash != tmpl.Header.PrevBlockHash {
			m.logger.Debug("powminer: tip moved, discarding stale candidate")
			continue
		}

		if err := m.submitter.SubmitBlock(ctx, core.BlockSolution{Template: tmpl, Header: solution}); err != nil {
			if _, ok := err.(*core.BlockRejectedError); ok {
				m.logger.Warn("powminer: self-built block rejected", zap.Error(err))
				return err
			}
			m.logger.Info("powminer: submission failed, candidate now stale", zap.Error(err))
		}
	}
}

func (m *Miner) waitForPeers(ctx context.Context) error {
	for {
		if err := m.pollLimiter.Wait(ctx); err != nil {
			return err
		}
		if m.peers.PeerCount() > 0 && !m.peers.IsInitialBlockDownload() {
			return nil
		}
		m.logger.Debug("powminer: waiting for peers / IBD to finish")
	}
}

// scan runs the ScanHash loop over tmpl's header: the cheap top-two-bytes
// probe before the full target comparison, periodic interruption checks,
// and a nonce-exhaustion template refresh.
func (m *Miner) scan(ctx context.Context, tmpl *types.BlockTemplate, token *minercancel.Token) (types.BlockHeader, bool, error) {
	header := tmpl.Header

	var nonce uint32
	var sinceRefresh uint32

	for {
		if ctx.Err() != nil {
			return header, false, ctx.Err()
		}
		if token.ShouldStop() {
			return header, false, nil
		}

		header.Nonce = nonce
		hash := header.Hash()

		// Cheap probe: reject unless the top two bytes of the hash (in
		// display/big-endian order) are already zero, before paying for
		// the full checkPow comparison.
		if hash[31] == 0 && hash[30] == 0 {
			if blockutil.CheckProofOfWork(hash, header.Bits, m.params.PowLimitInitial) {
				token.MarkSolutionFound()
				return header, true, nil
			}
		}

		m.hashCount++
		nonce++
		sinceRefresh++

		if nonce%interruptCheckInterval == 0 {
			if ctx.Err() != nil {
				return header, false, ctx.Err()
			}
		}
		if sinceRefresh >= refreshWithoutHit || nonce >= nonceHighWaterMark {
			return header, false, nil
		}

		m.maybeLogHashrate()
	}
}

func (m *Miner) maybeLogHashrate() {
	elapsed := time.Since(m.windowStart)
	if elapsed < 4*time.Second {
		return
	}
	rate := float64(m.hashCount) / elapsed.Seconds()
	m.logger.Debug("powminer: hashrate", zap.Float64("hashes_per_sec", rate))
	m.hashCount = 0
	m.windowStart = time.Now()
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// encodeExtraNonce writes a 4-byte big-endian extranonce into the
// coinbase's scratch area, the minimal per-attempt mutation a worker pool
// needs to search distinct nonce spaces without colliding on identical
// headers.
func encodeExtraNonce(coinbase []byte, offset int, value uint32) {
	binary.BigEndian.PutUint32(coinbase[offset:offset+4], value)
}
