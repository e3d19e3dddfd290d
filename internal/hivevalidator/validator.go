// Package hivevalidator checks a Hive block's embedded proof against the
// claimed dwarf-creation transaction.
package hivevalidator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/blockutil"
	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/hiveproof"
	"github.com/sudo696/ring/internal/retarget"
	"github.com/sudo696/ring/internal/types"
)

// Validator checks Hive proofs against a ChainReader's DCT index, which
// covers both live and already-spent dwarf-creation transactions.
type Validator struct {
	chain  core.ChainReader
	params *consensus.Params
	logger *zap.Logger
}

// New creates a Hive proof validator.
func New(chain core.ChainReader, params *consensus.Params, logger *zap.Logger) *Validator {
	return &Validator{chain: chain, params: params, logger: logger}
}

// CheckProof validates header's embedded proof script against chain state,
// returning a descriptive error naming the specific failed check. Each
// distinct failure site logs its own reject reason.
func (v *Validator) CheckProof(header *types.BlockHeader, proofScript []byte, coinbaseOutputs []types.CoinbaseOutput) error {
	if err := v.checkPreconditions(header); err != nil {
		return err
	}

	proof, err := hiveproof.ParseScript(proofScript)
	if err != nil {
		v.reject("malformed proof script", err)
		return fmt.Errorf("hivevalidator: %w", err)
	}

	dct, ok, err := v.chain.FindDCT(proof.Txid, 0)
	if err != nil {
		v.reject("DCT lookup failed", err)
		return fmt.Errorf("hivevalidator: %w", err)
	}
	if !ok {
		err := fmt.Errorf("claimed DCT %x not found in live index or history", proof.Txid)
		v.reject("DCT not found", err)
		return err
	}

	if proof.Community != dct.CommunityContrib {
		err := fmt.Errorf("proof community flag %v does not match DCT's %v", proof.Community, dct.CommunityContrib)
		v.reject("community flag mismatch", err)
		return err
	}

	if dct.CommunityContrib {
		if err := v.checkCommunityContribution(dct); err != nil {
			return err
		}
	}

	if dct.Height != proof.ClaimedHeight {
		err := fmt.Errorf("DCT found at height %d does not match claimed height %d", dct.Height, proof.ClaimedHeight)
		v.reject("claimed height mismatch", err)
		return err
	}

	status := dct.LifecycleStatus(header.Height, v.params.DwarfGestationBlocks, v.params.DwarfLifespanBlocks)
	if status != types.StatusMature {
		err := fmt.Errorf("DCT is %s at height %d, not mature", status, header.Height)
		v.reject("DCT not mature", err)
		return err
	}

	dwarfCount := dct.DwarfCount(v.params.DwarfCost)
	if int64(proof.DwarfNonce) >= dwarfCount {
		err := fmt.Errorf("dwarf nonce %d out of range [0, %d)", proof.DwarfNonce, dwarfCount)
		v.reject("dwarf nonce out of range", err)
		return err
	}

	digest := blockutil.DoubleSHA256([]byte(detRandStringForHeader(header)))
	rewardHash, err := hiveproof.RecoverPubKeyHash(proof.Signature, digest)
	if err != nil {
		v.reject("signature recovery failed", err)
		return fmt.Errorf("hivevalidator: %w", err)
	}

	if !scriptPaysHash(dct.RewardScript, rewardHash) {
		err := fmt.Errorf("recovered pubkey hash does not match DCT reward script")
		v.reject("reward address mismatch", err)
		return err
	}

	if !v.coinbasePaysReward(coinbaseOutputs, dct.RewardScript) {
		err := fmt.Errorf("coinbase does not pay the DCT's reward script")
		v.reject("coinbase reward mismatch", err)
		return err
	}

	return nil
}

// checkPreconditions enforces the slow-start window and consecutive-Hive
// cap against the chain state the candidate extends: a Hive block is
// refused below lastInitialDistributionHeight+slowStartBlocks, and refused
// again once the run of Hive/Pop blocks immediately preceding it has
// already reached maxConsecutiveHiveBlocks.
func (v *Validator) checkPreconditions(header *types.BlockHeader) error {
	if header.Height < v.params.LastInitialDistributionHeight+v.params.SlowStartBlocks {
		err := fmt.Errorf("height %d precedes the slow-start window ending at %d", header.Height, v.params.LastInitialDistributionHeight+v.params.SlowStartBlocks)
		v.reject("slow-start window not elapsed", err)
		return err
	}

	prev, err := v.chain.HeaderByHeight(header.Height - 1)
	if err != nil {
		v.reject("previous header lookup failed", err)
		return fmt.Errorf("hivevalidator: %w", err)
	}
	if prev == nil {
		return nil
	}

	run, err := retarget.HiveBlocksSincePow(v.chain, prev, v.params.MaxConsecutiveHiveBlocks)
	if err != nil {
		v.reject("consecutive Hive run lookup failed", err)
		return fmt.Errorf("hivevalidator: %w", err)
	}
	if run >= v.params.MaxConsecutiveHiveBlocks {
		err := fmt.Errorf("%d consecutive Hive/Pop blocks already precede height %d, at the cap of %d", run, header.Height, v.params.MaxConsecutiveHiveBlocks)
		v.reject("too many consecutive Hive blocks", err)
		return err
	}
	return nil
}

// checkCommunityContribution verifies a community-contributing DCT's
// donation: its second output must pay the network's community address
// exactly the expected share of the DCT's total value.
func (v *Validator) checkCommunityContribution(dct *types.DwarfCreationTransaction) error {
	if !scriptsEqual(dct.CommunityScript, v.params.HiveCommunityAddress) {
		err := fmt.Errorf("community contribution does not pay the configured community address")
		v.reject("community address mismatch", err)
		return err
	}

	if v.params.CommunityContribFactor <= 0 {
		err := fmt.Errorf("community contribution factor is not configured")
		v.reject("community contribution factor unset", err)
		return err
	}

	expected := (dct.Value + dct.CommunityDonation) / v.params.CommunityContribFactor
	if dct.CommunityDonation != expected {
		err := fmt.Errorf("community donation %d does not match expected %d", dct.CommunityDonation, expected)
		v.reject("community donation mismatch", err)
		return err
	}
	return nil
}

func (v *Validator) coinbasePaysReward(outputs []types.CoinbaseOutput, rewardScript []byte) bool {
	for _, out := range outputs {
		if scriptsEqual(out.Script, rewardScript) {
			return true
		}
	}
	return false
}

func (v *Validator) reject(reason string, err error) {
	v.logger.Warn("hivevalidator: rejecting Hive proof", zap.String("reason", reason), zap.Error(err))
}

// detRandStringForHeader reproduces the deterministic rand string derived
// from the previous block, the same digest the Hive engine signed.
func detRandStringForHeader(header *types.BlockHeader) string {
	return blockutil.HashHex(header.PrevBlockHash)
}

func scriptPaysHash(script, hash []byte) bool {
	if len(script) < 2 {
		return false
	}
	program := script[2:]
	return len(program) == len(hash) && scriptsEqual(program, hash)
}

func scriptsEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
