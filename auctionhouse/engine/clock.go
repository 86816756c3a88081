package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/openlot/auctionhouse/auctionhouse/logger"
)

// BlockClock is a monotonic block counter. The service advances it on a
// fixed interval; tests advance it by hand through a fake Clock instead.
type BlockClock struct {
	height atomic.Int64
}

func NewBlockClock(start int64) *BlockClock {
	c := &BlockClock{}
	c.height.Store(start)
	return c
}

func (c *BlockClock) Now() int64 {
	return c.height.Load()
}

func (c *BlockClock) Advance() int64 {
	return c.height.Add(1)
}

// Run ticks the counter forward until the context is cancelled.
func (c *BlockClock) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h := c.Advance()
			if h%100 == 0 {
				logger.LogSystem("Block height advanced", slog.Int64("height", h))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
