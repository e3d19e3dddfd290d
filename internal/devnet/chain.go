// Package devnet is a minimal, in-memory implementation of the core
// package's collaborator interfaces (ChainReader, WalletFacade, PeerView,
// BlockSubmitter), for running ringcore standalone against a local
// regtest-style chain with no external full node. It is a test harness,
// not a wallet or a consensus-validating client: SubmitBlock accepts
// anything the miner or Hive engine hands it.
package devnet

import (
	"sync"

	"github.com/sudo696/ring/internal/core"
	"github.com/sudo696/ring/internal/types"
)

// Chain is an in-memory, single-branch header chain plus a DCT index,
// enough to satisfy core.ChainReader for solo mining.
type Chain struct {
	mu      sync.RWMutex
	headers []*types.BlockHeader
	dcts    map[[32]byte]*types.DwarfCreationTransaction
}

// NewChain seeds a Chain with a single genesis header at the given
// difficulty (in compact form) so retargeting has a starting point.
func NewChain(genesisBits uint32) *Chain {
	return &Chain{
		headers: []*types.BlockHeader{{Height: 0, Bits: genesisBits, Time: 1_700_000_000}},
		dcts:    make(map[[32]byte]*types.DwarfCreationTransaction),
	}
}

func (c *Chain) TipHeader() (*types.BlockHeader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.headers) == 0 {
		return nil, nil
	}
	return c.headers[len(c.headers)-1], nil
}

func (c *Chain) HeaderByHeight(height int32) (*types.BlockHeader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, h := range c.headers {
		if h.Height == height {
			return h, nil
		}
	}
	return nil, nil
}

func (c *Chain) HeaderAncestors(from *types.BlockHeader, count int) ([]*types.BlockHeader, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*types.BlockHeader
	for i := len(c.headers) - 1; i >= 0 && len(out) < count; i-- {
		if c.headers[i].Height <= from.Height {
			out = append(out, c.headers[i])
		}
	}
	return out, nil
}

// FindUTXO always misses: devnet tracks no UTXO set of its own, only the
// DCT index a caller seeds directly via PutDCT.
func (c *Chain) FindUTXO(txid [32]byte, vout uint32) (*core.TxOut, bool, error) {
	return nil, false, nil
}

func (c *Chain) FindDCT(txid [32]byte, vout uint32) (*types.DwarfCreationTransaction, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dct, ok := c.dcts[txid]
	return dct, ok, nil
}

func (c *Chain) MatureDCTs(height, gestation, lifespan int32) ([]*types.DwarfCreationTransaction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*types.DwarfCreationTransaction
	for _, d := range c.dcts {
		if d.LifecycleStatus(height, gestation, lifespan) == types.StatusMature {
			out = append(out, d)
		}
	}
	return out, nil
}

// PutDCT seeds the chain's DCT index, standing in for the block-scanning
// indexer a real full node would run.
func (c *Chain) PutDCT(dct *types.DwarfCreationTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dcts[dct.Txid] = dct
}

// AppendHeader extends the chain with a newly produced header, standing
// in for a real node's block-connection logic.
func (c *Chain) AppendHeader(h types.BlockHeader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers = append(c.headers, &h)
}
