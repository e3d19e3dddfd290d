package node

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/dctstore"
	"github.com/sudo696/ring/internal/types"
)

type fakeChain struct {
	headers []*types.BlockHeader
}

func (f *fakeChain) TipHeader() (*types.BlockHeader, error) {
	if len(f.headers) == 0 {
		return nil, nil
	}
	return f.headers[len(f.headers)-1], nil
}

func (f *fakeChain) HeaderByHeight(height int32) (*types.BlockHeader, error) {
	for _, h := range f.headers {
		if h.Height == height {
			return h, nil
		}
	}
	return nil, nil
}

func (f *fakeChain) HeaderAncestors(from *types.BlockHeader, count int) ([]*types.BlockHeader, error) {
	var out []*types.BlockHeader
	for i := len(f.headers) - 1; i >= 0 && len(out) < count; i-- {
		if f.headers[i].Height <= from.Height {
			out = append(out, f.headers[i])
		}
	}
	return out, nil
}

func (f *fakeChain) FindUTXO(txid [32]byte, vout uint32) (*core.TxOut, bool, error) {
	return nil, false, nil
}

func (f *fakeChain) FindDCT(txid [32]byte, vout uint32) (*types.DwarfCreationTransaction, bool, error) {
	return nil, false, nil
}

func (f *fakeChain) MatureDCTs(height, gestation, lifespan int32) ([]*types.DwarfCreationTransaction, error) {
	return nil, nil
}

type fakeWallet struct{}

func (fakeWallet) ReserveCoinbaseScript(ctx context.Context) ([]byte, string, error) {
	return []byte{0x00, 0x14}, "key-1", nil
}
func (fakeWallet) SignDigest(ctx context.Context, keyID string, digest [32]byte) ([]byte, error) {
	return make([]byte, 65), nil
}
func (fakeWallet) RecoverPubKeyHash(sig []byte, digest [32]byte) ([]byte, error) {
	return make([]byte, 20), nil
}
func (fakeWallet) KeyIDForScript(script []byte) (string, bool) {
	return "key-1", true
}

type fakePeers struct{}

func (fakePeers) PeerCount() int               { return 1 }
func (fakePeers) IsInitialBlockDownload() bool { return false }

type fakeSubmitter struct {
	submitted []core.BlockSolution
}

func (f *fakeSubmitter) SubmitBlock(ctx context.Context, sol core.BlockSolution) error {
	f.submitted = append(f.submitted, sol)
	return nil
}

func testLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func buildChain(n int) *fakeChain {
	fc := &fakeChain{}
	for i := 0; i < n; i++ {
		fc.headers = append(fc.headers, &types.BlockHeader{Height: int32(i), Bits: 0x207fffff})
	}
	return fc
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Logger: testLogger()}); err == nil {
		t.Fatal("expected error when collaborators are missing")
	}
}

func TestNewRequiresLogger(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error when logger is missing")
	}
}

func TestNewSucceedsWithAllCollaborators(t *testing.T) {
	n, err := New(Options{
		Chain:     buildChain(5),
		Wallet:    fakeWallet{},
		Peers:     fakePeers{},
		Submitter: &fakeSubmitter{},
		Params:    consensus.RegTestParams(),
		DataDir:   t.TempDir(),
		Logger:    testLogger(),
		EnablePoW: true,
		AllowSolo: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	if n.Validator() == nil {
		t.Error("expected a non-nil Hive validator")
	}
	if n.Store() == nil {
		t.Error("expected a non-nil dctstore")
	}
}

func TestRunRequiresAtLeastOneMiningPath(t *testing.T) {
	n, err := New(Options{
		Chain:     buildChain(5),
		Wallet:    fakeWallet{},
		Peers:     fakePeers{},
		Submitter: &fakeSubmitter{},
		Params:    consensus.RegTestParams(),
		DataDir:   t.TempDir(),
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()

	if err := n.Run(context.Background()); err == nil {
		t.Fatal("expected Run to fail when neither PoW nor Hive mining is enabled")
	}
}

func TestHiveStatusOnEmptyChain(t *testing.T) {
	store, err := dctstore.Open(filepath.Join(t.TempDir(), "dct.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	info, err := HiveStatus(&fakeChain{}, store, consensus.RegTestParams())
	if err != nil {
		t.Fatalf("HiveStatus: %v", err)
	}
	if info.Height != 0 {
		t.Errorf("Height = %d, want 0 on an empty chain", info.Height)
	}
}

func TestHiveStatusCountsDwarfPopulation(t *testing.T) {
	params := consensus.RegTestParams()
	store, err := dctstore.Open(filepath.Join(t.TempDir(), "dct.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	chain := buildChain(int(params.HiveDifficultyWindow) * 9)
	tip, _ := chain.TipHeader()

	mature := &types.DwarfCreationTransaction{Txid: [32]byte{0x01}, Value: params.DwarfCost * 3, Height: tip.Height - params.DwarfGestationBlocks - 10}
	immature := &types.DwarfCreationTransaction{Txid: [32]byte{0x02}, Value: params.DwarfCost * 2, Height: tip.Height}
	if err := store.PutDCT(mature); err != nil {
		t.Fatalf("PutDCT: %v", err)
	}
	if err := store.PutDCT(immature); err != nil {
		t.Fatalf("PutDCT: %v", err)
	}

	info, err := HiveStatus(chain, store, params)
	if err != nil {
		t.Fatalf("HiveStatus: %v", err)
	}
	if info.MatureDwarfPopulation != 3 {
		t.Errorf("MatureDwarfPopulation = %d, want 3", info.MatureDwarfPopulation)
	}
	if info.ImmatureDwarfPopulation != 2 {
		t.Errorf("ImmatureDwarfPopulation = %d, want 2", info.ImmatureDwarfPopulation)
	}
}
