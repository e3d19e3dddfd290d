// Package consensus holds the tunable constants that the retargeting,
// assembler, and Hive engine/validator all read from a single place,
// rather than scattering them as package constants.
package consensus

import "time"

// Params is the full set of consensus parameters governing PoW and Hive
// block production and validation on a given network.
type Params struct {
	Network string

	// PoW retargeting (DGW-style averaging window).
	PowBlockSpacingTarget time.Duration
	PowAveragingWindow    int32
	PowMaxAdjustDown       int64 // percent
	PowMaxAdjustUp         int64 // percent
	PowLimit                uint32 // compact nBits ceiling (easiest target)
	PowLimitInitial         uint32 // eased ceiling while below LastInitialDistributionHeight

	// AllowMinDifficultyBlocks lets a candidate that arrives more than ten
	// spacing intervals late mine at PowLimit outright, the testnet-style
	// escape hatch for a stalled low-hashrate network.
	AllowMinDifficultyBlocks bool

	// LastInitialDistributionHeight is the last height of the easier
	// bootstrap difficulty window; below it, NextPowWorkRequired returns
	// PowLimitInitial unconditionally.
	LastInitialDistributionHeight int32

	// Hive retargeting.
	HiveBlockSpacingTarget        time.Duration
	HiveBlockSpacingTargetTypical time.Duration
	HiveTargetAdjustAggression    int64
	HiveDifficultyWindow          int32
	MinHiveCheckDelay             time.Duration

	// Dwarf (DCT) economics.
	DwarfCost             int64 // satoshis per dwarf
	DwarfGestationBlocks  int32
	DwarfLifespanBlocks   int32
	CommunityContribFactor int64 // donation must be 1/N of a DCT's total value; with 0 a community DCT is rejected

	// Heights at which Hive and Pop block types become valid. Zero means
	// "always active" (used by regtest-style networks and tests).
	HiveActivationHeight int32
	PopActivationHeight  int32

	// MaxConsecutiveHiveBlocks caps how many Hive (or Pop) blocks may follow
	// a PoW block before BusyDwarves/CheckProof must refuse another one,
	// forcing the chain back to PoW regularly. SlowStartBlocks extends the
	// same refusal for a fixed window after LastInitialDistributionHeight,
	// so Hive mining can't dominate immediately after bootstrap.
	MaxConsecutiveHiveBlocks int32
	SlowStartBlocks          int32

	// DwarfCreationAddress and HiveCommunityAddress are raw scriptPubKeys:
	// the address a DCT output must pay to be recognized as a dwarf
	// purchase, and the address a community-contributing DCT's second
	// output must pay.
	DwarfCreationAddress []byte
	HiveCommunityAddress []byte

	// HiveNonceMarker and PopNonceMarker are the header.Nonce sentinel
	// values CreateNewBlock stamps on Hive and Pop templates respectively,
	// letting peers tell a lottery/minimum-difficulty block apart from a real nonce-search result without decoding the
	// coinbase.
	HiveNonceMarker uint32
	PopNonceMarker  uint32

	// Block assembly limits.
	BlockMaxWeight  uint32
	BlockMinTxFee   int64 // satoshis/kvB, packages below this are skipped once priority runs out

	// Hive lottery thread tuning.
	HiveCheckThreads int
	HiveEarlyAbort   bool
}

// MainNetParams mirrors the production constants implied by spec.md and
// original_source/: a two-minute PoW target, a five-minute Hive target, and
// a 24-block averaging window for both.
func MainNetParams() *Params {
	return &Params{
		Network: "mainnet",

		PowBlockSpacingTarget: 2 * time.Minute,
		PowAveragingWindow:    24,
		PowMaxAdjustDown:      32,
		PowMaxAdjustUp:        16,
		PowLimit:              0x1e0fffff,
		PowLimitInitial:       0x1f00ffff,

		AllowMinDifficultyBlocks:      false,
		LastInitialDistributionHeight: 2000,

		HiveBlockSpacingTarget:        5 * time.Minute,
		HiveBlockSpacingTargetTypical: 2500 * time.Millisecond,
		HiveTargetAdjustAggression:    20,
		HiveDifficultyWindow:          24,
		MinHiveCheckDelay:             4 * time.Second,

		DwarfCost:              1 * 1e8,
		DwarfGestationBlocks:   240,
		DwarfLifespanBlocks:    14400,
		CommunityContribFactor: 20,

		HiveActivationHeight: 0,
		PopActivationHeight:  0,

		MaxConsecutiveHiveBlocks: 4,
		SlowStartBlocks:          4000,

		DwarfCreationAddress: nil,
		HiveCommunityAddress: nil,

		HiveNonceMarker: 0xFFFFFFFE,
		PopNonceMarker:  0xFFFFFFFD,

		BlockMaxWeight: 4_000_000,
		BlockMinTxFee:  1000,

		HiveCheckThreads: 1,
		HiveEarlyAbort:   true,
	}
}

// RegTestParams relaxes retargeting so tests and local nodes can mine
// deterministically.
func RegTestParams() *Params {
	p := MainNetParams()
	p.Network = "regtest"
	p.PowLimit = 0x207fffff
	p.PowLimitInitial = 0x207fffff
	p.AllowMinDifficultyBlocks = true
	p.LastInitialDistributionHeight = 0
	p.SlowStartBlocks = 0
	p.MaxConsecutiveHiveBlocks = 9999
	p.HiveCheckThreads = 1
	return p
}

// ActualTimespanLimits returns the clamped [min, max] bounds that an
// averaged actual timespan must fall within during PoW retargeting:
// one third of the target timespan on the fast side, three times on
// the slow side.
func (p *Params) ActualTimespanLimits() (min, max int64) {
	target := p.PowTargetTimespan()
	return target / 3, target * 3
}

// PowTargetTimespan is the expected total span, in seconds, of one
// averaging window.
func (p *Params) PowTargetTimespan() int64 {
	return int64(p.PowBlockSpacingTarget/time.Second) * int64(p.PowAveragingWindow)
}
