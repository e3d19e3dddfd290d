package hiveengine

import (
	"math/big"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/minercancel"
	"github.com/sudo696/ring/internal/types"
)

// checkBin searches one bin's dwarf ranges for a nonce whose double hash
// beats target, checking the cancellation token every abortCheckIterations
// iterations rather than on every nonce.
func checkBin(bin *types.DwarfBin, detRandString string, target *big.Int, token *minercancel.Token) (*types.HiveSolution, bool) {
	var iterations int

	for _, r := range bin.Ranges {
		dct := r.DCT
		localStart := r.GlobalBase - dct.GlobalStart
		localEnd := localStart + (r.BinEnd - r.BinStart)

		for nonce := localStart; nonce < localEnd; nonce++ {
			iterations++
			if iterations%abortCheckIterations == 0 && token.ShouldStop() {
				return nil, false
			}

			hash := checkBinHash(detRandString, dct.Txid, uint32(nonce))
			if blockutil.HashToBig(hash).Cmp(target) <= 0 {
				if !token.MarkSolutionFound() {
					return nil, false
				}
				return &types.HiveSolution{
					DCT:           dct,
					DwarfNonce:    uint32(nonce),
					ClaimedHeight: dct.Height,
					DetRandString: detRandString,
					Community:     dct.CommunityContrib,
				}, true
			}
		}
	}

	return nil, false
}
