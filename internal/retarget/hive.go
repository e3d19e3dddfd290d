package retarget

import (
	"fmt"
	"math/big"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
)

// NextHiveWorkRequired computes the nBits a new Hive block at the tip's
// successor height must satisfy. The window walks back from the tip over
// up to 8*HiveDifficultyWindow headers, averages the targets of the first
// HiveDifficultyWindow Hive-mined ones, and scales the result by the ratio
// of total blocks seen to the number of Hive blocks among them — the more
// Hive blocks among the headers walked, the harder Hive work becomes, and
// vice versa.
func NextHiveWorkRequired(chain core.ChainReader, params *consensus.Params) (uint32, error) {
	tip, err := chain.TipHeader()
	if err != nil {
		return 0, fmt.Errorf("retarget: read tip: %w", err)
	}
	if tip == nil || checkHiveSkip(tip.Height+1, params.HiveActivationHeight) {
		return params.PowLimit, nil
	}

	window := int(params.HiveDifficultyWindow)
	candidates, err := chain.HeaderAncestors(tip, window*8)
	if err != nil {
		return 0, fmt.Errorf("retarget: read ancestors: %w", err)
	}

	avg := new(big.Int)
	var hiveSeen, totalSeen int32

	for _, h := range candidates {
		totalSeen++
		if !h.IsHiveMined() {
			continue
		}
		target := blockutil.CompactToBig(h.Bits)
		if hiveSeen == 0 {
			avg.Set(target)
		} else {
			avg.Mul(avg, big.NewInt(int64(hiveSeen)))
			avg.Add(avg, target)
			avg.Div(avg, big.NewInt(int64(hiveSeen+1)))
		}
		hiveSeen++
		if hiveSeen >= int32(window) {
			break
		}
	}

	if hiveSeen == 0 {
		return params.PowLimit, nil
	}

	newTarget := new(big.Int).Mul(avg, big.NewInt(int64(totalSeen)))
	denom := big.NewInt(int64(hiveSeen) * int64(params.HiveBlockSpacingTargetTypical.Milliseconds()))
	if denom.Sign() == 0 {
		denom = big.NewInt(1)
	}
	newTarget.Div(newTarget, denom)
	newTarget.Div(newTarget, big.NewInt(int64(params.HiveTargetAdjustAggression)))

	powLimit := blockutil.CompactToBig(params.PowLimit)
	if newTarget.Cmp(powLimit) > 0 || newTarget.Sign() <= 0 {
		return params.PowLimit, nil
	}

	return blockutil.BigToCompact(newTarget), nil
}

// checkHiveSkip reports whether Hive retargeting/mining should fall
// through to the PoW-only path (Hive not yet active at this height).
func checkHiveSkip(height, activation int32) bool {
	return activation > 0 && height < activation
}
