package types

// DwarfRange is one DCT's slice of the global dwarf index space assigned to
// a single bin. A DCT whose range straddles two adjacent bins gets two
// DwarfRange entries, one per bin, each clipped to that bin's boundaries.
type DwarfRange struct {
	DCT        *DwarfCreationTransaction
	BinStart   int64 // inclusive, in bin-local index space
	BinEnd     int64 // exclusive
	GlobalBase int64 // global index corresponding to BinStart
}

// DwarfBin is one thread's worth of the dwarf population: a contiguous
// slice of the global index space, searched independently by one
// CheckBin worker.
type DwarfBin struct {
	Index      int
	GlobalFrom int64 // inclusive
	GlobalTo   int64 // exclusive
	Ranges     []DwarfRange
}

// Size returns how many dwarves this bin covers.
func (b *DwarfBin) Size() int64 {
	return b.GlobalTo - b.GlobalFrom
}

// HiveSolution is a winning dwarf-lottery draw: enough to build both the
// coinbase reward check and the Hive proof script.
type HiveSolution struct {
	DCT           *DwarfCreationTransaction
	DwarfNonce    uint32
	ClaimedHeight int32
	DetRandString string
	Signature     []byte // compact ECDSA signature over the rand-string digest
	Community     bool
}
