package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BidRecord tracks the funds a bidder currently has escrowed against one lot.
// It is kept per bidder even after they are outbid, so stale escrow stays
// reclaimable; re-bidding overwrites the record rather than adding to it.
type BidRecord struct {
	bun.BaseModel `bun:"table:bid_records,alias:br"`

	AuctionID string `bun:"auction_id,pk"`
	LotIndex  int    `bun:"lot_idx,pk"`
	Bidder    string `bun:"bidder,pk"`
	Amount    int64  `bun:"amount,notnull"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
