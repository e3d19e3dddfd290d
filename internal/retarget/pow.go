// Package retarget computes the next PoW and Hive difficulty targets from
// recent chain history, using a Dark-Gravity-Wave-derived averaging window
// for both paths.
package retarget

import (
	"fmt"
	"math/big"
	"time"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/types"
)

// NextPowWorkRequired computes the nBits a new PoW block at candidateTime,
// following the tip's successor height, must satisfy.
//
// Below lastInitialDistributionHeight the network runs on the eased
// powLimitInitial ceiling unconditionally — there isn't enough history yet
// for the averaging window to mean anything. Above it, a candidate arriving
// more than ten spacing intervals after the tip may mine straight at
// PowLimit when the network allows minimum-difficulty blocks, the
// stalled-testnet escape hatch. Hive-mined headers never enter the PoW
// averaging window: both the tip itself and every ancestor walked while
// filling the window are skipped until enough PoW-only headers are found.
//
// The averaged actual timespan is accumulated with a deliberate off-by-one:
// the last loop iteration overwrites the running actual-timespan value with
// the time delta between consecutive ancestors instead of accumulating it,
// so only the final pair in the window contributes directly while the rest
// only shape the target average. This is consensus-critical and must not be
// "fixed" — every node must compute the same value the same (biased) way.
func NextPowWorkRequired(chain core.ChainReader, params *consensus.Params, candidateTime uint32) (uint32, error) {
	tip, err := chain.TipHeader()
	if err != nil {
		return 0, fmt.Errorf("retarget: read tip: %w", err)
	}
	if tip == nil || tip.Height < params.LastInitialDistributionHeight {
		return params.PowLimitInitial, nil
	}

	if params.AllowMinDifficultyBlocks {
		maxGap := int64(10) * int64(params.PowBlockSpacingTarget/time.Second)
		if int64(candidateTime) > int64(tip.Time)+maxGap {
			return params.PowLimit, nil
		}
	}

	raw, err := chain.HeaderAncestors(tip, int(params.PowAveragingWindow)*8+64)
	if err != nil {
		return 0, fmt.Errorf("retarget: read ancestors: %w", err)
	}

	ancestors := make([]*types.BlockHeader, 0, params.PowAveragingWindow)
	for _, h := range raw {
		if h.IsHiveMined() {
			continue
		}
		ancestors = append(ancestors, h)
		if int32(len(ancestors)) >= params.PowAveragingWindow {
			break
		}
	}
	if len(ancestors) < int(params.PowAveragingWindow) {
		return params.PowLimit, nil
	}

	avg := new(big.Int)
	var actualTimespan int64
	var lastTime int64

	for i, h := range ancestors {
		target := blockutil.CompactToBig(h.Bits)
		if i == 0 {
			avg.Set(target)
		} else {
			// avg = (avg*i + target) / (i+1): a running mean, recomputed
			// each step rather than divided once at the end.
			avg.Mul(avg, big.NewInt(int64(i)))
			avg.Add(avg, target)
			avg.Div(avg, big.NewInt(int64(i+1)))
		}

		if lastTime != 0 {
			// Overwritten rather than accumulated: this is the inherited
			// off-by-one. Only the final iteration's delta survives.
			actualTimespan = lastTime - int64(h.Time)
		}
		lastTime = int64(h.Time)
	}

	if actualTimespan == 0 {
		actualTimespan = params.PowTargetTimespan()
	}

	min, max := params.ActualTimespanLimits()
	if actualTimespan < min {
		actualTimespan = min
	}
	if actualTimespan > max {
		actualTimespan = max
	}

	newTarget := new(big.Int).Mul(avg, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(params.PowTargetTimespan()))

	powLimit := blockutil.CompactToBig(params.PowLimit)
	if newTarget.Cmp(powLimit) > 0 {
		return params.PowLimit, nil
	}

	return blockutil.BigToCompact(newTarget), nil
}

