package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// Reward settles one lot of a closed auction: the item goes to the winning
// bidder and the winning bid becomes creator proceeds. Anyone may trigger it.
// A second call on the same lot fails with NoValidWinner because settlement
// already cleared the lot's leader.
func (e *Engine) Reward(ctx context.Context, id string, lotIndex int, caller string) error {
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
	if !auction.Finished(e.clock.Now()) {
		return ErrNotFinished
	}

	lot := auction.Lots[lotIndex]
	if lot.CurrentBidder == "" {
		return ErrNoValidWinner
	}

	winner := lot.CurrentBidder
	proceeds := lot.CurrentBid
	ref := ItemRef{Collection: lot.Collection, TokenID: lot.TokenID}

	if err := e.custody.TransferItem(ctx, e.escrowAccount, winner, ref); err != nil {
		return fmt.Errorf("failed to deliver item: %w", err)
	}

	if err := e.store.SettleLot(ctx, id, lotIndex, winner, proceeds, auction.Creator); err != nil {
		// Pull the item back so custody and ledger stay consistent.
		if revErr := e.custody.TransferItem(ctx, winner, e.escrowAccount, ref); revErr != nil {
			slog.Error("Failed to reverse item delivery after aborted settlement",
				slog.String("type", "error"),
				slog.String("auction_id", id),
				slog.String("item", ref.String()),
				slog.Any("error", revErr))
		}
		return fmt.Errorf("failed to settle lot: %w", err)
	}

	slog.Info("Lot settled",
		slog.String("type", "engine"),
		slog.String("auction_id", id),
		slog.Int("lot", lotIndex),
		slog.String("winner", winner),
		slog.Int64("proceeds", proceeds),
		slog.String("triggered_by", caller))

	e.sink.Emit(ctx, LotRewarded{
		ID:        newEventID(),
		AuctionID: id,
		LotIndex:  lotIndex,
		Winner:    winner,
	})

	return nil
}

// CreatorWithdrawNft returns one unbid lot's item to the creator after close.
// A lot with a winning bid must go through Reward instead.
func (e *Engine) CreatorWithdrawNft(ctx context.Context, id string, lotIndex int, caller string) error {
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
	if !auction.Finished(e.clock.Now()) {
		return ErrNotFinished
	}
	if auction.Creator != caller {
		return ErrNotCreator
	}

	lot := auction.Lots[lotIndex]
	if lot.CurrentBidder != "" || lot.Withdrawn {
		return ErrAlreadySettledOrBid
	}

	return e.reclaimLots(ctx, auction, []*models.Lot{lot})
}

// CreatorWithdrawNftBatch reclaims every eligible lot in index order. Lots
// with a bidder or already withdrawn are skipped, never an error; only the
// auction-level preconditions can fail the call. Returns how many lots were
// reclaimed.
func (e *Engine) CreatorWithdrawNftBatch(ctx context.Context, id string, caller string) (int, error) {
	unlock := e.lockAuction(id)
	defer unlock()

	auction, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return 0, ErrNotFound
	}
	if !auction.Finished(e.clock.Now()) {
		return 0, ErrNotFinished
	}
	if auction.Creator != caller {
		return 0, ErrNotCreator
	}

	var eligible []*models.Lot
	for _, lot := range auction.Lots {
		if lot.CurrentBidder != "" || lot.Withdrawn {
			continue
		}
		eligible = append(eligible, lot)
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	if err := e.reclaimLots(ctx, auction, eligible); err != nil {
		return 0, err
	}

	slog.Info("Batch reclamation finished",
		slog.String("type", "engine"),
		slog.String("auction_id", id),
		slog.Int("reclaimed", len(eligible)))

	return len(eligible), nil
}

// reclaimLots moves every item back to the creator and then marks all lots
// withdrawn in one store write. A failure at any point reverses the custody
// transfers already made, keeping the whole reclamation all-or-nothing.
func (e *Engine) reclaimLots(ctx context.Context, auction *models.Auction, lots []*models.Lot) error {
	returned := make([]ItemRef, 0, len(lots))
	reverse := func() {
		for _, ref := range returned {
			if revErr := e.custody.TransferItem(ctx, auction.Creator, e.escrowAccount, ref); revErr != nil {
				slog.Error("Failed to reverse item return after aborted reclamation",
					slog.String("type", "error"),
					slog.String("auction_id", auction.ID),
					slog.String("item", ref.String()),
					slog.Any("error", revErr))
			}
		}
	}

	for _, lot := range lots {
		ref := ItemRef{Collection: lot.Collection, TokenID: lot.TokenID}
		if err := e.custody.TransferItem(ctx, e.escrowAccount, auction.Creator, ref); err != nil {
			reverse()
			return fmt.Errorf("failed to return item %s: %w", ref, err)
		}
		returned = append(returned, ref)
	}

	indexes := make([]int, len(lots))
	for i, lot := range lots {
		indexes[i] = lot.Index
	}
	if err := e.store.MarkLotsWithdrawn(ctx, auction.ID, indexes); err != nil {
		reverse()
		return fmt.Errorf("failed to mark lots withdrawn: %w", err)
	}

	for _, lot := range lots {
		lot.Withdrawn = true
	}
	return nil
}

// CreatorWithdrawProfit drains the caller's accumulated proceeds into their
// currency account. Independent of any single auction.
func (e *Engine) CreatorWithdrawProfit(ctx context.Context, caller string) (int64, error) {
	unlock := e.lockBalance(caller)
	defer unlock()

	amount, err := e.balances.DrainCreatorBalance(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("failed to drain creator balance: %w", err)
	}
	if amount == 0 {
		return 0, ErrZeroBalance
	}

	if err := e.vault.TransferOut(ctx, caller, amount); err != nil {
		// The drain already committed; put the proceeds back so they
		// stay withdrawable.
		if revErr := e.balances.CreditCreatorBalance(ctx, caller, amount); revErr != nil {
			slog.Error("Failed to restore creator balance after aborted payout",
				slog.String("type", "error"),
				slog.String("creator", caller),
				slog.Int64("amount", amount),
				slog.Any("error", revErr))
		}
		return 0, fmt.Errorf("failed to pay out proceeds: %w", err)
	}

	slog.Info("Creator proceeds withdrawn",
		slog.String("type", "engine"),
		slog.String("creator", caller),
		slog.Int64("amount", amount))

	return amount, nil
}
