package core

import "errors"

// Sentinel errors covering the error-handling taxonomy shared by the PoW
// miner, the Hive engine, and the assembler: preconditions that simply
// aren't met yet, a candidate that went stale before it could be
// submitted, and wallet/key exhaustion, which is fatal to whatever
// goroutine hit it.
var (
	ErrPreconditionNotMet = errors.New("precondition not met, retry later")
	ErrStaleCandidate      = errors.New("candidate went stale before submission")
	ErrWalletExhausted     = errors.New("wallet has no more usable keys")
	ErrNoMatureDwarves     = errors.New("no mature dwarf-creation transactions available")
)
