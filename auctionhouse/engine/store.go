package engine

import (
	"context"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// Store is the persistence surface the engine mutates. Every write method is
// a single atomic unit: implementations apply all of its rows or none of
// them (the bun-backed store wraps each in one serializable transaction).
type Store interface {
	// AuctionExists reports id occupancy regardless of auction state;
	// identifiers are never recycled.
	AuctionExists(ctx context.Context, id string) (bool, error)

	// GetAuction returns the auction with its lots in index order, or
	// (nil, nil) when the id is unknown.
	GetAuction(ctx context.Context, id string) (*models.Auction, error)

	// InsertAuction persists a new auction together with its lots.
	InsertAuction(ctx context.Context, auction *models.Auction) error

	// ApplyBid overwrites the bidder's record for the lot, promotes them
	// to current bidder and moves the auction close block (unchanged when
	// no extension fired).
	ApplyBid(ctx context.Context, id string, lotIndex int, bidder string, amount, closeBlock int64) error

	GetBidRecord(ctx context.Context, id string, lotIndex int, bidder string) (int64, error)
	ClearBidRecord(ctx context.Context, id string, lotIndex int, bidder string) error

	// SettleLot resets the lot, marks it withdrawn, zeroes the winner's
	// bid record and credits the creator's balance with the proceeds.
	SettleLot(ctx context.Context, id string, lotIndex int, winner string, proceeds int64, creator string) error

	// MarkLotsWithdrawn records that the unbid lots' items went back to
	// the creator. All indexes are marked in one atomic write, so a batch
	// reclamation is all-or-nothing.
	MarkLotsWithdrawn(ctx context.Context, id string, indexes []int) error

	// ListOpen returns auctions whose close block is still ahead of now.
	ListOpen(ctx context.Context, now int64) ([]*models.Auction, error)

	// ListClosedUnsettled returns closed auctions that still hold at
	// least one lot with a winner awaiting reward.
	ListClosedUnsettled(ctx context.Context, now int64) ([]*models.Auction, error)
}

// BalanceStore tracks creator proceeds across auctions.
type BalanceStore interface {
	CreatorBalance(ctx context.Context, creator string) (int64, error)

	// DrainCreatorBalance zeroes the balance and returns what it held.
	DrainCreatorBalance(ctx context.Context, creator string) (int64, error)

	// CreditCreatorBalance adds to the balance. Settlement credits run
	// inside SettleLot; this one exists to restore a drained balance
	// when the payout after it fails.
	CreditCreatorBalance(ctx context.Context, creator string, amount int64) error
}
