package hiveengine

import (
	"testing"

	"github.com/sudo696/ring/internal/types"
)

func TestBinDwarvesSplitsEvenly(t *testing.T) {
	d1 := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Value: 5}
	d2 := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Value: 5}

	bins := binDwarves([]*types.DwarfCreationTransaction{d1, d2}, 1, 2)
	if len(bins) != 2 {
		t.Fatalf("len(bins) = %d, want 2", len(bins))
	}
	if len(bins[0].Ranges) != 1 || bins[0].Ranges[0].DCT != d1 {
		t.Errorf("bins[0] = %+v, want a single range over d1", bins[0])
	}
	if len(bins[1].Ranges) != 1 || bins[1].Ranges[0].DCT != d2 {
		t.Errorf("bins[1] = %+v, want a single range over d2", bins[1])
	}
}

func TestBinDwarvesStraddlesBoundary(t *testing.T) {
	d1 := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Value: 7}
	d2 := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Value: 3}

	bins := binDwarves([]*types.DwarfCreationTransaction{d1, d2}, 1, 2)
	if len(bins) != 2 {
		t.Fatalf("len(bins) = %d, want 2", len(bins))
	}

	if len(bins[0].Ranges) != 1 {
		t.Fatalf("bins[0].Ranges = %+v, want exactly one range", bins[0].Ranges)
	}
	if got := bins[0].Ranges[0]; got.DCT != d1 || got.BinStart != 0 || got.BinEnd != 5 {
		t.Errorf("bins[0].Ranges[0] = %+v, want d1 covering [0,5)", got)
	}

	if len(bins[1].Ranges) != 2 {
		t.Fatalf("bins[1].Ranges = %+v, want d1's tail plus all of d2", bins[1].Ranges)
	}
	if got := bins[1].Ranges[0]; got.DCT != d1 || got.BinStart != 0 || got.BinEnd != 2 {
		t.Errorf("bins[1].Ranges[0] = %+v, want d1's straddling tail [0,2)", got)
	}
	if got := bins[1].Ranges[1]; got.DCT != d2 || got.BinStart != 2 || got.BinEnd != 5 {
		t.Errorf("bins[1].Ranges[1] = %+v, want d2 covering [2,5)", got)
	}
}

func TestBinDwarvesShrinksThreadCountBelowPopulation(t *testing.T) {
	d1 := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Value: 3}

	bins := binDwarves([]*types.DwarfCreationTransaction{d1}, 1, 8)
	if len(bins) != 3 {
		t.Fatalf("len(bins) = %d, want 3 (one per dwarf, since 3 < 8 requested threads)", len(bins))
	}
}

func TestBinDwarvesEmptyCandidates(t *testing.T) {
	if bins := binDwarves(nil, 1, 4); bins != nil {
		t.Errorf("binDwarves(nil, ...) = %v, want nil", bins)
	}
}

func TestBinDwarvesZeroCostDCTsAreSkipped(t *testing.T) {
	d1 := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Value: 0}
	d2 := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Value: 4}

	bins := binDwarves([]*types.DwarfCreationTransaction{d1, d2}, 1, 1)
	if len(bins) != 1 {
		t.Fatalf("len(bins) = %d, want 1", len(bins))
	}
	if len(bins[0].Ranges) != 1 || bins[0].Ranges[0].DCT != d2 {
		t.Errorf("bins[0].Ranges = %+v, want only d2's range", bins[0].Ranges)
	}
}
