package hiveengine

import (
	"math/big"
	"testing"

	"github.com/sudo696/ring/internal/minercancel"
	"github.com/sudo696/ring/internal/types"
)

// maxTarget is the largest possible 256-bit target, so any hash is a hit.
// Used instead of a real compact-encoded target to keep the test
// deterministic rather than merely overwhelmingly likely.
func maxTarget() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestCheckBinFindsSolutionAtEasyTarget(t *testing.T) {
	dct := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Height: 10, CommunityContrib: true}
	bin := &types.DwarfBin{
		Index:      0,
		GlobalFrom: 0,
		GlobalTo:   20,
		Ranges:     []types.DwarfRange{{DCT: dct, BinStart: 0, BinEnd: 20, GlobalBase: 0}},
	}

	target := maxTarget()
	token := minercancel.New()

	sol, found := checkBin(bin, "det-rand", target, token)
	if !found {
		t.Fatal("expected checkBin to find a solution against an easy target")
	}
	if sol.DCT != dct {
		t.Errorf("sol.DCT = %v, want %v", sol.DCT, dct)
	}
	if sol.ClaimedHeight != dct.Height {
		t.Errorf("sol.ClaimedHeight = %d, want %d", sol.ClaimedHeight, dct.Height)
	}
	if !sol.Community {
		t.Error("expected sol.Community to carry through the DCT's community flag")
	}
	if token.MarkSolutionFound() {
		t.Error("checkBin should have already claimed the token's solutionFound flag")
	}
}

func TestCheckBinMissesAtImpossibleTarget(t *testing.T) {
	dct := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Height: 10}
	bin := &types.DwarfBin{
		Index:      0,
		GlobalFrom: 0,
		GlobalTo:   5,
		Ranges:     []types.DwarfRange{{DCT: dct, BinStart: 0, BinEnd: 5, GlobalBase: 0}},
	}

	token := minercancel.New()
	_, found := checkBin(bin, "det-rand", big.NewInt(0), token)
	if found {
		t.Error("expected checkBin to exhaust the bin without a solution against a zero target")
	}
}

func TestCheckBinStopsOnEarlyAbort(t *testing.T) {
	dct := &types.DwarfCreationTransaction{Txid: [32]byte{0x03}, Height: 10}
	bin := &types.DwarfBin{
		Index:      0,
		GlobalFrom: 0,
		GlobalTo:   5000,
		Ranges:     []types.DwarfRange{{DCT: dct, BinStart: 0, BinEnd: 5000, GlobalBase: 0}},
	}

	token := minercancel.New()
	token.RequestEarlyAbort()

	_, found := checkBin(bin, "det-rand", big.NewInt(0), token)
	if found {
		t.Error("expected an already-aborted token to stop the search")
	}
}
