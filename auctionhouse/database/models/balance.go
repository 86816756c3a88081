package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CreatorBalance accumulates settlement-currency proceeds owed to a creator
// across all their auctions. It is drained only by an explicit withdrawal.
type CreatorBalance struct {
	bun.BaseModel `bun:"table:creator_balances,alias:cb"`

	Creator string `bun:"creator,pk"`
	Amount  int64  `bun:"amount,notnull,default:0"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
