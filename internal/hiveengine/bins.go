package hiveengine

import "github.com/sudo696/ring/internal/types"

// binDwarves splits the global dwarf index space defined by candidates
// into threadCount contiguous bins. A DCT whose range straddles a bin
// boundary is represented by two DwarfRange entries, one clipped into each
// adjacent bin.
func binDwarves(candidates []*types.DwarfCreationTransaction, dwarfCost int64, threadCount int) []types.DwarfBin {
	if threadCount < 1 {
		threadCount = 1
	}

	var total int64
	for _, d := range candidates {
		total += d.DwarfCount(dwarfCost)
	}
	if total == 0 {
		return nil
	}

	perBin := total / int64(threadCount)
	if perBin == 0 {
		perBin = 1
		threadCount = int(total)
	}

	bins := make([]types.DwarfBin, threadCount)
	for i := range bins {
		bins[i].Index = i
		bins[i].GlobalFrom = int64(i) * perBin
		if i == threadCount-1 {
			bins[i].GlobalTo = total
		} else {
			bins[i].GlobalTo = int64(i+1) * perBin
		}
	}

	var cursor int64
	binIdx := 0
	for _, d := range candidates {
		count := d.DwarfCount(dwarfCost)
		if count <= 0 {
			continue
		}
		d.GlobalStart = cursor
		d.GlobalEnd = cursor + count
		cursor += count

		for binIdx < len(bins) && d.GlobalStart >= bins[binIdx].GlobalTo {
			binIdx++
		}
		for binIdx < len(bins) && d.GlobalStart < bins[binIdx].GlobalTo {
			bin := &bins[binIdx]
			rangeStart := max64(d.GlobalStart, bin.GlobalFrom)
			rangeEnd := min64(d.GlobalEnd, bin.GlobalTo)
			if rangeEnd <= rangeStart {
				break
			}
			bin.Ranges = append(bin.Ranges, types.DwarfRange{
				DCT:        d,
				BinStart:   rangeStart - bin.GlobalFrom,
				BinEnd:     rangeEnd - bin.GlobalFrom,
				GlobalBase: rangeStart,
			})
			if d.GlobalEnd <= bin.GlobalTo {
				break
			}
			binIdx++
		}
	}

	return bins
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
