package types

// MempoolEntry describes one candidate transaction as seen by the block
// assembler: its own size/fee plus the ancestor aggregates the
// ancestor-feerate package selection sorts on.
type MempoolEntry struct {
	Txid   [32]byte
	Tx     []byte // full serialized transaction, used verbatim in the block
	Weight int64
	Fee    int64 // satoshis, this transaction alone
	SigOps int64

	Parents  map[[32]byte]struct{}
	Children map[[32]byte]struct{}

	// Ancestor aggregates, maintained incrementally as the mempool's
	// dependency graph changes (mirrors CTxMemPoolEntry's cached sums).
	AncestorFee    int64
	AncestorWeight int64
	AncestorCount  int64

	// IsDCT marks this transaction as (or as spending) a dwarf-creation
	// transaction output; such transactions are never selected into Hive or
	// Pop blocks to keep the dwarf population accounting deterministic.
	IsDCT bool

	LockTime    uint32
	HasWitness  bool
	EnteredTime int64 // unix seconds, used for BIP113-style locktime evaluation
}

// FeeRate returns this entry's own fee rate in satoshis per weight unit,
// scaled by 1e6 to keep it in integer arithmetic.
func (e *MempoolEntry) FeeRate() int64 {
	if e.Weight == 0 {
		return 0
	}
	return e.Fee * 1_000_000 / e.Weight
}

// AncestorFeeRate returns the ancestor-aggregate fee rate used to order the
// package-selection candidate set.
func (e *MempoolEntry) AncestorFeeRate() int64 {
	if e.AncestorWeight == 0 {
		return 0
	}
	return e.AncestorFee * 1_000_000 / e.AncestorWeight
}

// ModifiedEntry overlays an ancestor-aggregate adjustment onto a
// MempoolEntry without mutating the original, mirroring CTxMemPool's
// "modified ancestor state" map used once package selection starts pulling
// transactions out of pure ancestor-score order.
type ModifiedEntry struct {
	Entry *MempoolEntry

	ModFeesWithAncestors int64
	ModSizeWithAncestors int64
}

// ModFeeRate is the adjusted ancestor fee rate used for re-sorting the
// candidate set as packages are added to the block or skipped.
func (m *ModifiedEntry) ModFeeRate() int64 {
	if m.ModSizeWithAncestors == 0 {
		return 0
	}
	return m.ModFeesWithAncestors * 1_000_000 / m.ModSizeWithAncestors
}
