package types

// PayoutEntry is one coinbase output: an address-derived scriptPubKey and
// the amount it should receive.
type PayoutEntry struct {
	Script []byte
	Amount int64
}

// BlockTemplate is the assembler's output: a header with its bits/time
// filled in but its proof-of-work/proof-of-dwarf fields still open, plus
// the transaction set and bookkeeping the miner or Hive engine needs to
// finish the block.
type BlockTemplate struct {
	Header  BlockHeader
	Variant Variant

	CoinbaseTx       []byte
	ExtraNonceOffset int // byte offset of the scratch extranonce area in CoinbaseTx

	Transactions [][]byte // serialized, in the order they must appear after the coinbase
	TotalFees    int64
	TotalWeight  int64

	WitnessCommitment []byte

	// ProofScript is nil for PoW templates. For Hive it is the dwarf-lottery
	// proof the engine attaches once it has a winning draw; for Pop it is
	// the caller-supplied proof passed through from the BlockRequest.
	ProofScript []byte
}

// BlockRequest describes what the caller wants assembled: which variant,
// whose coinbase, and (for Pop) which proof script to embed.
type BlockRequest struct {
	Variant           Variant
	Height            int32
	CoinbaseScript    []byte
	Payouts           []PayoutEntry
	CommunityContrib  bool
	ProofScript       []byte
	ExtraNonceSize    int
	WitnessCommitment string // hex, empty if the candidate set has no witness txs
}
