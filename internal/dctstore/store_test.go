package dctstore

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/types"
)

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dct.db")
	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGetDCT(t *testing.T) {
	s := openTestStore(t)

	dct := &types.DwarfCreationTransaction{
		Txid:         [32]byte{0x01},
		Value:        5 * 1e8,
		Height:       100,
		RewardScript: []byte{0x00, 0x14, 0x01, 0x02},
	}
	if err := s.PutDCT(dct); err != nil {
		t.Fatalf("PutDCT: %v", err)
	}

	got, ok := s.DCT(dct.Txid)
	if !ok {
		t.Fatal("expected DCT to be found")
	}
	if got.Value != dct.Value || got.Height != dct.Height {
		t.Errorf("got %+v, want %+v", got, dct)
	}
}

func TestDCTsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dct.db")

	s, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dct := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Value: 1e8, Height: 50}
	if err := s.PutDCT(dct); err != nil {
		t.Fatalf("PutDCT: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.DCT(dct.Txid)
	if !ok {
		t.Fatal("expected DCT to survive reopen")
	}
	if got.Height != dct.Height {
		t.Errorf("got height %d, want %d", got.Height, dct.Height)
	}
}

func TestRecordAndListSolutions(t *testing.T) {
	s := openTestStore(t)

	dct := &types.DwarfCreationTransaction{Txid: [32]byte{0x03}, Value: 2e8, Height: 10}
	sol := &types.HiveSolution{
		DCT:           dct,
		DwarfNonce:    7,
		ClaimedHeight: 11,
		DetRandString: "deadbeef",
		Signature:     make([]byte, 65),
		Community:     true,
	}
	if err := s.RecordSolution(sol); err != nil {
		t.Fatalf("RecordSolution: %v", err)
	}

	got := s.Solutions()
	if len(got) != 1 {
		t.Fatalf("len(Solutions()) = %d, want 1", len(got))
	}
	if got[0].DwarfNonce != sol.DwarfNonce || got[0].ClaimedHeight != sol.ClaimedHeight {
		t.Errorf("got %+v, want %+v", got[0], sol)
	}
	if !got[0].Community {
		t.Error("expected community flag to round-trip as true")
	}
}

func TestAllDCTs(t *testing.T) {
	s := openTestStore(t)

	for i := byte(0); i < 3; i++ {
		dct := &types.DwarfCreationTransaction{Txid: [32]byte{i + 1}, Value: 1e8, Height: int32(i)}
		if err := s.PutDCT(dct); err != nil {
			t.Fatalf("PutDCT: %v", err)
		}
	}

	all := s.AllDCTs()
	if len(all) != 3 {
		t.Errorf("len(AllDCTs()) = %d, want 3", len(all))
	}
}
