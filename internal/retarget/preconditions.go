package retarget

import (
	"fmt"

	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/types"
)

// HiveBlocksSincePow walks back from tip counting consecutive Hive-mined
// blocks (Pop blocks do not break the run either) until it hits a PoW
// block, runs out of history, or has read maxConsecutive+1 headers. The Hive engine and validator both refuse to extend a run that
// has already reached params.MaxConsecutiveHiveBlocks, forcing the chain
// back to PoW regularly rather than letting Hive mining dominate.
func HiveBlocksSincePow(chain core.ChainReader, tip *types.BlockHeader, maxConsecutive int32) (int32, error) {
	if tip == nil {
		return 0, nil
	}

	window := maxConsecutive
	if window <= 0 {
		window = 1
	}

	ancestors, err := chain.HeaderAncestors(tip, int(window)+1)
	if err != nil {
		return 0, fmt.Errorf("retarget: read ancestors: %w", err)
	}

	var run int32
	for _, h := range ancestors {
		if !h.IsHiveMined() && !h.IsPopMined() {
			break
		}
		run++
	}
	return run, nil
}
