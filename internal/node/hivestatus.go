package node

import (
	"fmt"

	"github.com/sudo696/ring/internal/consensus"
	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/dctstore"
	"github.com/sudo696/ring/internal/retarget"
	"github.com/sudo696/ring/internal/types"
)

// HiveInfo is a read-only snapshot of the dwarf lottery's current state:
// the recent block-type mix, the dwarf population broken out by lifecycle
// stage, and the Hive target currently in force.
type HiveInfo struct {
	Height             int32
	HiveBlocksInWindow int32
	PoWBlocksInWindow  int32

	MatureDwarfPopulation   int64
	ImmatureDwarfPopulation int64
	ExpiredDwarfPopulation  int64

	CurrentHiveBits uint32
	HiveActive      bool
}

// HiveStatus reports the dwarf lottery's current state. It is read-only:
// it does not affect block production or validation and cannot violate
// any retargeting or assembly invariant.
func HiveStatus(chain core.ChainReader, store *dctstore.Store, params *consensus.Params) (*HiveInfo, error) {
	tip, err := chain.TipHeader()
	if err != nil {
		return nil, fmt.Errorf("hivestatus: read tip: %w", err)
	}
	info := &HiveInfo{}
	if tip == nil {
		return info, nil
	}
	info.Height = tip.Height
	info.HiveActive = params.HiveActivationHeight == 0 || tip.Height+1 >= params.HiveActivationHeight

	window := int(params.HiveDifficultyWindow) * 8
	ancestors, err := chain.HeaderAncestors(tip, window)
	if err != nil {
		return nil, fmt.Errorf("hivestatus: read ancestors: %w", err)
	}
	for _, h := range ancestors {
		if h.IsHiveMined() {
			info.HiveBlocksInWindow++
		} else {
			info.PoWBlocksInWindow++
		}
	}

	bits, err := retarget.NextHiveWorkRequired(chain, params)
	if err != nil {
		return nil, fmt.Errorf("hivestatus: retarget: %w", err)
	}
	info.CurrentHiveBits = bits

	for _, dct := range store.AllDCTs() {
		count := dct.DwarfCount(params.DwarfCost)
		switch dct.LifecycleStatus(tip.Height, params.DwarfGestationBlocks, params.DwarfLifespanBlocks) {
		case types.StatusMature:
			info.MatureDwarfPopulation += count
		case types.StatusImmature:
			info.ImmatureDwarfPopulation += count
		case types.StatusExpired:
			info.ExpiredDwarfPopulation += count
		}
	}

	return info, nil
}
