package hivevalidator

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/hiveproof"
	"github.com/sudo696/ring/internal/types"
)

type fakeChain struct {
	dcts    map[[32]byte]*types.DwarfCreationTransaction
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

func (f *fakeChain) HeaderAncestors(from *types.BlockHeader, n int) ([]*types.BlockHeader, error) {
	var out []*types.BlockHeader
	for i := len(f.headers) - 1; i >= 0 && len(out) < n; i-- {
		if f.headers[i].Height <= from.Height {
			out = append(out, f.headers[i])
		}
	}
	return out, nil
}

// powChain builds n PoW-mined headers at heights [0, n), the backdrop
// every fixture extends with its own Hive candidate header.
func powChain(n int32) []*types.BlockHeader {
	headers := make([]*types.BlockHeader, 0, n)
	for i := int32(0); i < n; i++ {
		headers = append(headers, &types.BlockHeader{Height: i, Variant: types.VariantPoW})
	}
	return headers
}
func (f *fakeChain) FindUTXO(txid [32]byte, vout uint32) (*core.TxOut, bool, error) {
	return nil, false, nil
}
func (f *fakeChain) FindDCT(txid [32]byte, vout uint32) (*types.DwarfCreationTransaction, bool, error) {
	dct, ok := f.dcts[txid]
	return dct, ok, nil
}
func (f *fakeChain) MatureDCTs(height, gestation, lifespan int32) ([]*types.DwarfCreationTransaction, error) {
	return nil, nil
}

func buildFixture(t *testing.T) (priv *btcec.PrivateKey, dct *types.DwarfCreationTransaction, header *types.BlockHeader, proofScript []byte, coinbaseOutputs []types.CoinbaseOutput) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var txid [32]byte
	txid[0] = 0x42

	prevHash := [32]byte{0xaa, 0xbb}
	header = &types.BlockHeader{Height: 400, PrevBlockHash: prevHash}
	detRandString := blockutil.HashHex(prevHash)
	digest := blockutil.DoubleSHA256([]byte(detRandString))
	sig := hiveproof.SignDigest(priv, digest)

	hash, err := hiveproof.RecoverPubKeyHash(sig, digest)
	if err != nil {
		t.Fatalf("recover pubkey hash: %v", err)
	}

	rewardScript := make([]byte, 0, 22)
	rewardScript = append(rewardScript, 0x00, 0x14)
	rewardScript = append(rewardScript, hash...)

	dct = &types.DwarfCreationTransaction{
		Txid:         txid,
		Value:        5 * 1e8,
		Height:       100,
		RewardScript: rewardScript,
	}

	sol := &types.HiveSolution{
		DCT:           dct,
		DwarfNonce:    2,
		ClaimedHeight: dct.Height,
		DetRandString: detRandString,
		Signature:     sig,
		Community:     false,
	}
	proofScript, err = hiveproof.BuildScript(sol)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	coinbaseOutputs = []types.CoinbaseOutput{{Value: 0, Script: rewardScript}}
	return priv, dct, header, proofScript, coinbaseOutputs
}

// buildCommunityFixture mirrors buildFixture but opts the DCT into the
// community contribution, with its donation computed to satisfy the
// factor-N split checkCommunityContribution enforces.
func buildCommunityFixture(t *testing.T, communityScript []byte, factor int64) (dct *types.DwarfCreationTransaction, header *types.BlockHeader, proofScript []byte, coinbaseOutputs []types.CoinbaseOutput) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var txid [32]byte
	txid[0] = 0x43

	prevHash := [32]byte{0xaa, 0xbb}
	header = &types.BlockHeader{Height: 400, PrevBlockHash: prevHash}
	detRandString := blockutil.HashHex(prevHash)
	digest := blockutil.DoubleSHA256([]byte(detRandString))
	sig := hiveproof.SignDigest(priv, digest)

	hash, err := hiveproof.RecoverPubKeyHash(sig, digest)
	if err != nil {
		t.Fatalf("recover pubkey hash: %v", err)
	}

	rewardScript := make([]byte, 0, 22)
	rewardScript = append(rewardScript, 0x00, 0x14)
	rewardScript = append(rewardScript, hash...)

	value := int64(5 * 1e8)
	donation := value / (factor - 1) // solves donation == (value+donation)/factor

	dct = &types.DwarfCreationTransaction{
		Txid:              txid,
		Value:             value,
		Height:            100,
		RewardScript:      rewardScript,
		CommunityContrib:  true,
		CommunityDonation: donation,
		CommunityScript:   communityScript,
	}

	sol := &types.HiveSolution{
		DCT:           dct,
		DwarfNonce:    2,
		ClaimedHeight: dct.Height,
		DetRandString: detRandString,
		Signature:     sig,
		Community:     true,
	}
	proofScript, err = hiveproof.BuildScript(sol)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	coinbaseOutputs = []types.CoinbaseOutput{{Value: 0, Script: rewardScript}}
	return dct, header, proofScript, coinbaseOutputs
}

func TestCheckProofAccepts(t *testing.T) {
	_, dct, header, proofScript, outputs := buildFixture(t)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err != nil {
		t.Fatalf("CheckProof: %v", err)
	}
}

func TestCheckProofRejectsUnknownDCT(t *testing.T) {
	_, _, header, proofScript, outputs := buildFixture(t)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection for unknown DCT")
	}
}

func TestCheckProofRejectsImmatureDCT(t *testing.T) {
	_, dct, header, proofScript, outputs := buildFixture(t)
	header.Height = dct.Height + 1 // DCT mined one block earlier, nowhere near mature
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection for immature DCT")
	}
}

func TestCheckProofRejectsNonceOutOfRange(t *testing.T) {
	_, dct, header, proofScript, outputs := buildFixture(t)
	dct.Value = 1 // dwarfCount now 0, any claimed nonce is out of range
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection for out-of-range dwarf nonce")
	}
}

func TestCheckProofRejectsCoinbaseMismatch(t *testing.T) {
	_, dct, header, proofScript, _ := buildFixture(t)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	wrongOutputs := []types.CoinbaseOutput{{Value: 0, Script: []byte{0x00, 0x14, 0x01, 0x02}}}
	if err := v.CheckProof(header, proofScript, wrongOutputs); err == nil {
		t.Fatal("expected rejection when coinbase does not pay the reward script")
	}
}

func TestCheckProofRejectsMalformedScript(t *testing.T) {
	_, dct, header, _, outputs := buildFixture(t)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, []byte{0x01, 0x02}, outputs); err == nil {
		t.Fatal("expected rejection for malformed proof script")
	}
}

func TestCheckProofRejectsBeforeSlowStartWindow(t *testing.T) {
	_, dct, header, proofScript, outputs := buildFixture(t)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.MainNetParams() // slow-start window ends at 6000, header is at 400

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection before the slow-start window elapses")
	}
}

func TestCheckProofRejectsAtConsecutiveHiveCap(t *testing.T) {
	_, dct, header, proofScript, outputs := buildFixture(t)
	headers := powChain(header.Height - 2)
	headers = append(headers,
		&types.BlockHeader{Height: header.Height - 2, Variant: types.VariantHive},
		&types.BlockHeader{Height: header.Height - 1, Variant: types.VariantHive},
	)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: headers}
	params := consensus.RegTestParams()
	params.MaxConsecutiveHiveBlocks = 2

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection at the consecutive Hive block cap")
	}
}

func TestCheckProofAcceptsCommunityContribution(t *testing.T) {
	communityScript := []byte{0x00, 0x14, 0xc1, 0xc2}
	dct, header, proofScript, outputs := buildCommunityFixture(t, communityScript, 20)
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()
	params.HiveCommunityAddress = communityScript
	params.CommunityContribFactor = 20

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err != nil {
		t.Fatalf("CheckProof: %v", err)
	}
}

func TestCheckProofRejectsCommunityDonationMismatch(t *testing.T) {
	communityScript := []byte{0x00, 0x14, 0xc1, 0xc2}
	dct, header, proofScript, outputs := buildCommunityFixture(t, communityScript, 20)
	dct.CommunityDonation++ // no longer the expected factor-N share
	chain := &fakeChain{dcts: map[[32]byte]*types.DwarfCreationTransaction{dct.Txid: dct}, headers: powChain(header.Height)}
	params := consensus.RegTestParams()
	params.HiveCommunityAddress = communityScript
	params.CommunityContribFactor = 20

	v := New(chain, params, zap.NewNop())
	if err := v.CheckProof(header, proofScript, outputs); err == nil {
		t.Fatal("expected rejection for a community donation that does not match the expected share")
	}
}
