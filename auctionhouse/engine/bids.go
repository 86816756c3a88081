package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// PlaceBid admits or rejects a bid on one lot of an open auction. On
// acceptance the amount is escrowed from the bidder, their record for the
// lot is overwritten, and the close block is pushed out when the bid lands
// inside the anti-snipe window.
func (e *Engine) PlaceBid(ctx context.Context, id string, lotIndex int, bidder string, amount int64) error {
	unlock := e.lockAuction(id)
	defer unlock()

	auction, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return ErrNotFound
	}
	if lotIndex < 0 || lotIndex >= len(auction.Lots) {
		return ErrInvalidLot
	}

	now := e.clock.Now()
	if !auction.Open(now) {
		return ErrNotOpen
	}

	lot := auction.Lots[lotIndex]
	required := lot.RequiredIncrement(auction.MinIncrementPercent)
	// amount - current < current is amount < 2*current without overflow.
	if amount < lot.CurrentBid+required || amount-lot.CurrentBid >= lot.CurrentBid {
		return ErrIllegalIncrement
	}

	closeBlock := auction.CloseBlock
	if closeBlock-now <= auction.ExtensionWindow {
		closeBlock += auction.ExtensionWindow
	}

	if err := e.vault.TransferIn(ctx, bidder, amount); err != nil {
		return fmt.Errorf("failed to escrow bid: %w", err)
	}

	if err := e.store.ApplyBid(ctx, id, lotIndex, bidder, amount, closeBlock); err != nil {
		// The funds were already pulled in; hand them back before
		// surfacing the failure.
		if refundErr := e.vault.TransferOut(ctx, bidder, amount); refundErr != nil {
			slog.Error("Failed to refund bid after aborted write",
				slog.String("type", "error"),
				slog.String("auction_id", id),
				slog.String("bidder", bidder),
				slog.Int64("amount", amount),
				slog.Any("error", refundErr))
		}
		return fmt.Errorf("failed to record bid: %w", err)
	}

	if closeBlock != auction.CloseBlock {
		slog.Info("Close block extended by late bid",
			slog.String("type", "engine"),
			slog.String("auction_id", id),
			slog.Int64("old_close", auction.CloseBlock),
			slog.Int64("new_close", closeBlock))
	}

	e.sink.Emit(ctx, BidAccepted{
		ID:         newEventID(),
		AuctionID:  id,
		LotIndex:   lotIndex,
		Bidder:     bidder,
		Amount:     amount,
		CloseBlock: closeBlock,
	})

	return nil
}

// WithdrawBid returns a non-leading bidder's escrow for one lot. It carries
// no timing restriction: stale escrow is reclaimable while the auction runs
// and after it closes.
func (e *Engine) WithdrawBid(ctx context.Context, id string, lotIndex int, caller string) error {
	unlock := e.lockAuction(id)
	defer unlock()

	auction, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return ErrNotFound
	}
	if lotIndex < 0 || lotIndex >= len(auction.Lots) {
		return ErrInvalidLot
	}

	if auction.Lots[lotIndex].CurrentBidder == caller {
		return ErrTopBidderCannotWithdraw
	}

	amount, err := e.store.GetBidRecord(ctx, id, lotIndex, caller)
	if err != nil {
		return fmt.Errorf("failed to get bid record: %w", err)
	}
	if amount == 0 {
		return ErrNothingToWithdraw
	}

	if err := e.vault.TransferOut(ctx, caller, amount); err != nil {
		return fmt.Errorf("failed to return escrow: %w", err)
	}

	if err := e.store.ClearBidRecord(ctx, id, lotIndex, caller); err != nil {
		// The funds already went out; pull them back so the record
		// stays the single source of truth for reclaimable escrow.
		if revErr := e.vault.TransferIn(ctx, caller, amount); revErr != nil {
			slog.Error("Failed to reverse escrow return after aborted clear",
				slog.String("type", "error"),
				slog.String("auction_id", id),
				slog.Int("lot", lotIndex),
				slog.String("bidder", caller),
				slog.Int64("amount", amount),
				slog.Any("error", revErr))
		}
		return fmt.Errorf("failed to clear bid record: %w", err)
	}

	slog.Info("Bid escrow withdrawn",
		slog.String("type", "engine"),
		slog.String("auction_id", id),
		slog.Int("lot", lotIndex),
		slog.String("bidder", caller),
		slog.Int64("amount", amount))

	return nil
}
