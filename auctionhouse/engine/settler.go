package engine

import (
	"context"
	"log/slog"
	"time"
)

// SettlerIdentity is the caller recorded when the background sweep triggers
// a reward. Settlement is permissionless, so the identity is informational.
const SettlerIdentity = "auctionhouse:settler"

// Settler periodically sweeps closed auctions and triggers the same
// permissionless Reward path a caller would. Creator reclamation is never
// automated; unbid lots wait for the creator.
type Settler struct {
	engine   *Engine
	interval time.Duration
}

func NewSettler(engine *Engine, interval time.Duration) *Settler {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Settler{engine: engine, interval: interval}
}

// Run sweeps until the context is cancelled. One sweep failure never stops
// the loop; the lot is retried on the next tick.
func (s *Settler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if err := s.Sweep(sweepCtx); err != nil {
				slog.Error("Settlement sweep failed",
					slog.String("type", "error"),
					slog.Any("error", err))
			}
			cancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sweep rewards every won lot of every closed auction once. Also run at
// startup so lots that closed while the service was down get settled.
func (s *Settler) Sweep(ctx context.Context) error {
	now := s.engine.clock.Now()
	auctions, err := s.engine.store.ListClosedUnsettled(ctx, now)
	if err != nil {
		return err
	}

	for _, auction := range auctions {
		for _, lot := range auction.Lots {
			if lot.CurrentBidder == "" || lot.Withdrawn {
				continue
			}
			if err := s.engine.Reward(ctx, auction.ID, lot.Index, SettlerIdentity); err != nil {
				slog.Error("Failed to settle lot during sweep",
					slog.String("type", "error"),
					slog.String("auction_id", auction.ID),
					slog.Int("lot", lot.Index),
					slog.Any("error", err))
			}
		}
	}

	return nil
}
