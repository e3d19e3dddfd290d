package devnet

import (
	"context"

	"go.uber.org/zap"

	"github.com/sudo696/ring/internal/core"
)

// Submitter accepts whatever the miner or Hive engine hands it and
// appends it straight onto the Chain, standing in for a real node's
// connect-block consensus check and relay.
type Submitter struct {
	Chain  *Chain
	Logger *zap.Logger
}

func (s *Submitter) SubmitBlock(ctx context.Context, solution core.BlockSolution) error {
	s.Chain.AppendHeader(solution.Header)
	s.Logger.Info("devnet: accepted block",
		zap.Int32("height", solution.Header.Height),
		zap.String("variant", solution.Header.Variant.String()),
	)
	return nil
}
