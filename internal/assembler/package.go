package assembler

import (
	"sort"

	"github.com/sudo696/ring/internal/types"
)

const maxConsecutiveFailures = 1000

// nearFullWeightSlack is how close to maxWeight the block must already be
// before addPackageTxs will give up on MAX_CONSECUTIVE_FAILURES alone;
// short of that, a smaller package further down the ancestor-feerate order
// might still fit, so selection keeps scanning instead of abandoning a
// mostly-empty block.
const nearFullWeightSlack = 4000

// candidateSet holds the entries still eligible for selection, keyed by
// txid, plus the modified-ancestor overlay package selection maintains as
// packages are pulled out in ancestor-feerate order.
type candidateSet struct {
	entries  map[[32]byte]*types.MempoolEntry
	modified map[[32]byte]*types.ModifiedEntry
	inBlock  map[[32]byte]struct{}
}

func newCandidateSet(entries []*types.MempoolEntry) *candidateSet {
	cs := &candidateSet{
		entries:  make(map[[32]byte]*types.MempoolEntry, len(entries)),
		modified: make(map[[32]byte]*types.ModifiedEntry),
		inBlock:  make(map[[32]byte]struct{}),
	}
	for _, e := range entries {
		cs.entries[e.Txid] = e
	}
	return cs
}

func (cs *candidateSet) ancestorFeeRate(txid [32]byte) int64 {
	if m, ok := cs.modified[txid]; ok {
		return m.ModFeeRate()
	}
	return cs.entries[txid].AncestorFeeRate()
}

// sortedByAncestorFeeRate returns the remaining candidate txids ordered by
// descending ancestor fee rate, the same ordering CTxMemPool's ancestor
// score index maintains.
func (cs *candidateSet) sortedByAncestorFeeRate() [][32]byte {
	out := make([][32]byte, 0, len(cs.entries))
	for txid := range cs.entries {
		if _, done := cs.inBlock[txid]; done {
			continue
		}
		out = append(out, txid)
	}
	sort.Slice(out, func(i, j int) bool {
		return cs.ancestorFeeRate(out[i]) > cs.ancestorFeeRate(out[j])
	})
	return out
}

// selected is one package pulled into the block: every not-yet-included
// ancestor of the chosen entry, in dependency order.
type selected struct {
	entries []*types.MempoolEntry
	weight  int64
	fee     int64
}

// ancestorsOf walks an entry's parent set transitively, stopping at
// anything already in the block.
func (cs *candidateSet) ancestorsOf(txid [32]byte, seen map[[32]byte]struct{}) []*types.MempoolEntry {
	e, ok := cs.entries[txid]
	if !ok {
		return nil
	}
	if _, done := seen[txid]; done {
		return nil
	}
	seen[txid] = struct{}{}

	var out []*types.MempoolEntry
	for parent := range e.Parents {
		if _, inBlock := cs.inBlock[parent]; inBlock {
			continue
		}
		out = append(out, cs.ancestorsOf(parent, seen)...)
	}
	out = append(out, e)
	return out
}

// addPackageTxs implements ancestor-feerate package selection: repeatedly
// take the candidate with the best ancestor fee rate, pull in its whole
// unconfirmed ancestry as one package, and stop once either the block is
// full or too many consecutive candidates have failed to fit.
func addPackageTxs(entries []*types.MempoolEntry, maxWeight uint32, minFeeRate int64, locktimeHeight int32, locktimeCutoff int64, allowWitness bool) []*types.MempoolEntry {
	cs := newCandidateSet(entries)

	var blockEntries []*types.MempoolEntry
	var blockWeight int64
	failures := 0

	for {
		if failures >= maxConsecutiveFailures && blockWeight >= int64(maxWeight)-nearFullWeightSlack {
			break
		}

		ordered := cs.sortedByAncestorFeeRate()
		if len(ordered) == 0 {
			break
		}

		progressed := false
		for _, txid := range ordered {
			e := cs.entries[txid]
			if _, done := cs.inBlock[txid]; done {
				continue
			}
			if !allowWitness && e.HasWitness {
				failures++
				continue
			}
			if e.LockTime > 0 && int64(e.LockTime) > locktimeCutoff {
				failures++
				continue
			}
			if e.IsDCT {
				// DCT spends are never selected into Hive/Pop blocks; the
				// caller filters the candidate set before calling in that
				// case, but skip defensively here too.
				failures++
				continue
			}

			pkg := cs.ancestorsOf(txid, map[[32]byte]struct{}{})
			var pkgWeight, pkgFee int64
			for _, pe := range pkg {
				pkgWeight += pe.Weight
				pkgFee += pe.Fee
			}

			if pkgWeight == 0 {
				failures++
				continue
			}
			if cs.ancestorFeeRate(txid) < minFeeRate && blockWeight > 0 {
				// Once priority-free space runs out, packages below the
				// fee floor stop qualifying.
				failures++
				continue
			}
			if blockWeight+pkgWeight > int64(maxWeight) {
				failures++
				continue
			}

			for _, pe := range pkg {
				cs.inBlock[pe.Txid] = struct{}{}
				blockEntries = append(blockEntries, pe)
			}
			blockWeight += pkgWeight
			updatePackagesForAdded(cs, pkg)

			progressed = true
			failures = 0
			break
		}

		if !progressed {
			break
		}
	}

	return blockEntries
}

// updatePackagesForAdded subtracts a just-added package's fee/weight from
// every remaining descendant's modified ancestor aggregate, so the next
// sort pass reflects that those ancestors no longer need to be dragged in.
func updatePackagesForAdded(cs *candidateSet, added []*types.MempoolEntry) {
	addedSet := make(map[[32]byte]struct{}, len(added))
	for _, e := range added {
		addedSet[e.Txid] = struct{}{}
	}

	for txid, e := range cs.entries {
		if _, done := cs.inBlock[txid]; done {
			continue
		}
		touched := false
		for parent := range e.Parents {
			if _, was := addedSet[parent]; was {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}

		m, ok := cs.modified[txid]
		if !ok {
			m = &types.ModifiedEntry{
				Entry:                e,
				ModFeesWithAncestors: e.AncestorFee,
				ModSizeWithAncestors: e.AncestorWeight,
			}
			cs.modified[txid] = m
		}
		for _, pe := range added {
			if _, isParent := e.Parents[pe.Txid]; isParent {
				m.ModFeesWithAncestors -= pe.Fee
				m.ModSizeWithAncestors -= pe.Weight
			}
		}
	}
}
