// Package minercancel implements the cooperative-abort pattern shared by
// the PoW miner's nonce search and the Hive engine's per-bin search: two
// flags, checked on a fixed iteration cadence rather than on every
// iteration, so the check itself never dominates the hot loop.
package minercancel

import "sync/atomic"

// Token is safe to share across every worker goroutine searching the same
// candidate template. SolutionFound is flipped by whichever worker wins;
// EarlyAbort is flipped by an external watcher (a new tip arriving, or the
// node shutting down). Either flag makes ShouldStop report true; setting
// EarlyAbort does not stop a worker that has already hit a solution from
// marking it found.
type Token struct {
	solutionFound atomic.Bool
	earlyAbort    atomic.Bool
}

// New returns a fresh, unset token.
func New() *Token {
	return &Token{}
}

// MarkSolutionFound records that some worker found a solution. Returns
// true if this call was the one that made the transition (i.e. this
// worker is the winner).
func (t *Token) MarkSolutionFound() bool {
	return t.solutionFound.CompareAndSwap(false, true)
}

// RequestEarlyAbort tells every worker to stop, independent of whether a
// solution has been found.
func (t *Token) RequestEarlyAbort() {
	t.earlyAbort.Store(true)
}

// ShouldStop reports whether a worker should stop its search: either a
// solution already won, or an external abort was requested.
func (t *Token) ShouldStop() bool {
	return t.solutionFound.Load() || t.earlyAbort.Load()
}

// SolutionFound reports whether any worker has already won, independent of
// early abort.
func (t *Token) SolutionFound() bool {
	return t.solutionFound.Load()
}
