package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// BalanceRepository is the bun-backed engine.BalanceStore.
type BalanceRepository struct {
	db *bun.DB
}

func NewBalanceRepository(db *bun.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) CreatorBalance(ctx context.Context, creator string) (int64, error) {
	balance := new(models.CreatorBalance)
	err := r.db.NewSelect().
		Model(balance).
		Where("creator = ?", creator).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get creator balance: %w", err)
	}
	return balance.Amount, nil
}

func (r *BalanceRepository) DrainCreatorBalance(ctx context.Context, creator string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	balance := new(models.CreatorBalance)
	err = tx.NewSelect().
		Model(balance).
		Where("creator = ?", creator).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get creator balance: %w", err)
	}
	if balance.Amount == 0 {
		return 0, nil
	}

	if _, err := tx.NewUpdate().
		Model((*models.CreatorBalance)(nil)).
		Set("amount = 0").
		Set("updated_at = ?", time.Now()).
		Where("creator = ?", creator).
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to drain creator balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit drain: %w", err)
	}
	return balance.Amount, nil
}

func (r *BalanceRepository) CreditCreatorBalance(ctx context.Context, creator string, amount int64) error {
	balance := &models.CreatorBalance{
		Creator:   creator,
		Amount:    amount,
		UpdatedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().
		Model(balance).
		On("CONFLICT (creator) DO UPDATE").
		Set("amount = creator_balances.amount + EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to credit creator balance: %w", err)
	}
	return nil
}
