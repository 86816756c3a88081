package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

const settledCacheSize = 1024

// AuctionRepository is the bun-backed engine.Store. Every write method runs
// in one serializable transaction so the engine's composite state changes
// land atomically. Fully drained auctions are immutable and served from an
// LRU cache.
type AuctionRepository struct {
	db      *bun.DB
	settled *lru.Cache
}

func NewAuctionRepository(db *bun.DB) *AuctionRepository {
	cache, err := lru.New(settledCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create settled auction cache: %v", err))
	}
	return &AuctionRepository{db: db, settled: cache}
}

func (r *AuctionRepository) AuctionExists(ctx context.Context, id string) (bool, error) {
	if r.settled.Contains(id) {
		return true, nil
	}
	exists, err := r.db.NewSelect().
		Model((*models.Auction)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check auction existence: %w", err)
	}
	return exists, nil
}

func (r *AuctionRepository) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	if cached, ok := r.settled.Get(id); ok {
		return cached.(*models.Auction), nil
	}

	auction := new(models.Auction)
	err := r.db.NewSelect().
		Model(auction).
		Relation("Lots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("idx ASC")
		}).
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	if drained(auction) {
		r.settled.Add(id, auction)
	}
	return auction, nil
}

// drained means every lot has left escrow; the auction is immutable history.
func drained(a *models.Auction) bool {
	if len(a.Lots) == 0 {
		return false
	}
	for _, lot := range a.Lots {
		if !lot.Withdrawn {
			return false
		}
	}
	return true
}

func (r *AuctionRepository) InsertAuction(ctx context.Context, auction *models.Auction) error {
	now := time.Now()
	auction.CreatedAt = now
	auction.UpdatedAt = now

	return r.inTx(ctx, func(tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(auction).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert auction: %w", err)
		}
		for _, lot := range auction.Lots {
			lot.UpdatedAt = now
		}
		if len(auction.Lots) > 0 {
			if _, err := tx.NewInsert().Model(&auction.Lots).Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert lots: %w", err)
			}
		}
		return nil
	})
}

func (r *AuctionRepository) ApplyBid(ctx context.Context, id string, lotIndex int, bidder string, amount, closeBlock int64) error {
	return r.inTx(ctx, func(tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Lot)(nil)).
			Set("current_bidder = ?", bidder).
			Set("current_bid = ?", amount).
			Set("updated_at = ?", time.Now()).
			Where("auction_id = ? AND idx = ?", id, lotIndex).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update lot: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*models.Auction)(nil)).
			Set("close_block = ?", closeBlock).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to update auction close block: %w", err)
		}

		record := &models.BidRecord{
			AuctionID: id,
			LotIndex:  lotIndex,
			Bidder:    bidder,
			Amount:    amount,
			UpdatedAt: time.Now(),
		}
		if _, err := tx.NewInsert().
			Model(record).
			On("CONFLICT (auction_id, lot_idx, bidder) DO UPDATE").
			Set("amount = EXCLUDED.amount").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to upsert bid record: %w", err)
		}
		return nil
	})
}

func (r *AuctionRepository) GetBidRecord(ctx context.Context, id string, lotIndex int, bidder string) (int64, error) {
	record := new(models.BidRecord)
	err := r.db.NewSelect().
		Model(record).
		Where("auction_id = ? AND lot_idx = ? AND bidder = ?", id, lotIndex, bidder).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get bid record: %w", err)
	}
	return record.Amount, nil
}

func (r *AuctionRepository) ClearBidRecord(ctx context.Context, id string, lotIndex int, bidder string) error {
	_, err := r.db.NewUpdate().
		Model((*models.BidRecord)(nil)).
		Set("amount = 0").
		Set("updated_at = ?", time.Now()).
		Where("auction_id = ? AND lot_idx = ? AND bidder = ?", id, lotIndex, bidder).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear bid record: %w", err)
	}
	return nil
}

func (r *AuctionRepository) SettleLot(ctx context.Context, id string, lotIndex int, winner string, proceeds int64, creator string) error {
	return r.inTx(ctx, func(tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*models.Lot)(nil)).
			Set("current_bidder = ''").
			Set("current_bid = 0").
			Set("withdrawn = TRUE").
			Set("updated_at = ?", time.Now()).
			Where("auction_id = ? AND idx = ?", id, lotIndex).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to reset lot: %w", err)
		}

		// The winner's escrow became creator proceeds; zero their record
		// so it can never double as a withdrawable refund.
		if _, err := tx.NewUpdate().
			Model((*models.BidRecord)(nil)).
			Set("amount = 0").
			Set("updated_at = ?", time.Now()).
			Where("auction_id = ? AND lot_idx = ? AND bidder = ?", id, lotIndex, winner).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to zero winner record: %w", err)
		}

		balance := &models.CreatorBalance{
			Creator:   creator,
			Amount:    proceeds,
			UpdatedAt: time.Now(),
		}
		if _, err := tx.NewInsert().
			Model(balance).
			On("CONFLICT (creator) DO UPDATE").
			Set("amount = creator_balances.amount + EXCLUDED.amount").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to credit creator balance: %w", err)
		}
		return nil
	})
}

func (r *AuctionRepository) MarkLotsWithdrawn(ctx context.Context, id string, indexes []int) error {
	if len(indexes) == 0 {
		return nil
	}
	_, err := r.db.NewUpdate().
		Model((*models.Lot)(nil)).
		Set("withdrawn = TRUE").
		Set("updated_at = ?", time.Now()).
		Where("auction_id = ? AND idx IN (?)", id, bun.In(indexes)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark lots withdrawn: %w", err)
	}
	return nil
}

func (r *AuctionRepository) ListOpen(ctx context.Context, now int64) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.NewSelect().
		Model(&auctions).
		Relation("Lots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("idx ASC")
		}).
		Where("a.close_block > ?", now).
		Order("a.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open auctions: %w", err)
	}
	return auctions, nil
}

func (r *AuctionRepository) ListClosedUnsettled(ctx context.Context, now int64) ([]*models.Auction, error) {
	var auctions []*models.Auction
	err := r.db.NewSelect().
		Model(&auctions).
		Relation("Lots", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("idx ASC")
		}).
		Where("a.close_block <= ?", now).
		Where("EXISTS (SELECT 1 FROM lots l WHERE l.auction_id = a.id AND l.current_bidder != '' AND l.withdrawn = FALSE)").
		Order("a.close_block ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list closed auctions: %w", err)
	}
	return auctions, nil
}

func (r *AuctionRepository) inTx(ctx context.Context, fn func(tx bun.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
