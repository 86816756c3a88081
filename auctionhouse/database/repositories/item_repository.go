package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
	"github.com/openlot/auctionhouse/auctionhouse/engine"
)

// ItemRepository is the bun-backed engine.ItemCustody: ownership of
// non-fungible items tracked per (collection, token).
type ItemRepository struct {
	db *bun.DB
}

func NewItemRepository(db *bun.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) TransferItem(ctx context.Context, from, to string, ref engine.ItemRef) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	item := new(models.Item)
	err = tx.NewSelect().
		Model(item).
		Where("collection = ? AND token_id = ?", ref.Collection, ref.TokenID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.ErrItemNotFound
		}
		return fmt.Errorf("failed to get item: %w", err)
	}
	if item.Owner != from {
		return engine.ErrNotItemOwner
	}

	if _, err := tx.NewUpdate().
		Model((*models.Item)(nil)).
		Set("owner = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("collection = ? AND token_id = ?", ref.Collection, ref.TokenID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to transfer item: %w", err)
	}

	return tx.Commit()
}

func (r *ItemRepository) OwnerOf(ctx context.Context, ref engine.ItemRef) (string, error) {
	item := new(models.Item)
	err := r.db.NewSelect().
		Model(item).
		Where("collection = ? AND token_id = ?", ref.Collection, ref.TokenID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", engine.ErrItemNotFound
		}
		return "", fmt.Errorf("failed to get item: %w", err)
	}
	return item.Owner, nil
}

// Mint issues a new item to an owner. Issuance is an operator concern, not
// an engine operation.
func (r *ItemRepository) Mint(ctx context.Context, ref engine.ItemRef, owner string) error {
	item := &models.Item{
		Collection: ref.Collection,
		TokenID:    ref.TokenID,
		Owner:      owner,
		UpdatedAt:  time.Now(),
	}
	if _, err := r.db.NewInsert().Model(item).Exec(ctx); err != nil {
		return fmt.Errorf("failed to mint item: %w", err)
	}
	return nil
}
