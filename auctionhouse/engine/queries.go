package engine

import (
	"context"
	"fmt"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// GetAuction returns the auction with its lots, or NotFound.
func (e *Engine) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	auction, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return nil, ErrNotFound
	}
	return auction, nil
}

// GetLotResult reports the current leader of one lot. The bidder is empty
// when no bid has been accepted or the lot was already settled.
func (e *Engine) GetLotResult(ctx context.Context, id string, lotIndex int) (string, int64, error) {
	auction, err := e.GetAuction(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if lotIndex < 0 || lotIndex >= len(auction.Lots) {
		return "", 0, ErrInvalidLot
	}
	lot := auction.Lots[lotIndex]
	return lot.CurrentBidder, lot.CurrentBid, nil
}

// GetBidderEscrow reports the funds a bidder has escrowed against one lot,
// zero when they never bid or already withdrew.
func (e *Engine) GetBidderEscrow(ctx context.Context, id string, lotIndex int, bidder string) (int64, error) {
	auction, err := e.GetAuction(ctx, id)
	if err != nil {
		return 0, err
	}
	if lotIndex < 0 || lotIndex >= len(auction.Lots) {
		return 0, ErrInvalidLot
	}
	amount, err := e.store.GetBidRecord(ctx, id, lotIndex, bidder)
	if err != nil {
		return 0, fmt.Errorf("failed to get bid record: %w", err)
	}
	return amount, nil
}

// GetCreatorBalance reports a creator's accumulated, not yet withdrawn
// proceeds.
func (e *Engine) GetCreatorBalance(ctx context.Context, creator string) (int64, error) {
	amount, err := e.balances.CreatorBalance(ctx, creator)
	if err != nil {
		return 0, fmt.Errorf("failed to get creator balance: %w", err)
	}
	return amount, nil
}

// ListOpenAuctions returns every auction still accepting bids or waiting to
// open.
func (e *Engine) ListOpenAuctions(ctx context.Context) ([]*models.Auction, error) {
	auctions, err := e.store.ListOpen(ctx, e.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list open auctions: %w", err)
	}
	return auctions, nil
}
