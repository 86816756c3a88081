package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Account holds a party's settlement-currency balance. Funds escrowed with
// the engine are simply debited here; the engine's own bookkeeping (bid
// records, creator balances) tracks who they belong to.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:ac"`

	ID      string `bun:"id,pk"`
	Balance int64  `bun:"balance,notnull,default:0"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
