package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Item is the custody side of a non-fungible token: who currently owns the
// token (collection, token_id). The engine only ever moves ownership between
// a party and its escrow account.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	Collection string `bun:"collection,pk"`
	TokenID    int64  `bun:"token_id,pk"`
	Owner      string `bun:"owner,notnull"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
