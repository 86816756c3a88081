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

// LedgerRepository is the bun-backed engine.CurrencyVault. Escrowed funds
// are simply debited from the party's account; the engine's bid records and
// creator balances say who they belong to.
type LedgerRepository struct {
	db *bun.DB
}

func NewLedgerRepository(db *bun.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) TransferIn(ctx context.Context, from string, amount int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = balance - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND balance >= ?", from, amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return engine.ErrInsufficientBalance
	}
	return nil
}

func (r *LedgerRepository) TransferOut(ctx context.Context, to string, amount int64) error {
	account := &models.Account{
		ID:        to,
		Balance:   amount,
		UpdatedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().
		Model(account).
		On("CONFLICT (id) DO UPDATE").
		Set("balance = accounts.balance + EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}
	return nil
}

// Deposit funds an account. Funding is an operator concern, not an engine
// operation.
func (r *LedgerRepository) Deposit(ctx context.Context, id string, amount int64) error {
	return r.TransferOut(ctx, id, amount)
}

func (r *LedgerRepository) Balance(ctx context.Context, id string) (int64, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get account balance: %w", err)
	}
	return account.Balance, nil
}
