package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Auction is one multi-lot sale window. The id is chosen by the creator and
// stays reserved forever, even after the auction is fully drained.
type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID                  string `bun:"id,pk"`
	Creator             string `bun:"creator,notnull"`
	OpenBlock           int64  `bun:"open_block,notnull"`
	CloseBlock          int64  `bun:"close_block,notnull"`
	ExtensionWindow     int64  `bun:"extension_window,notnull"`
	MinIncrementPercent int64  `bun:"min_increment_percent,notnull"`

	Lots []*Lot `bun:"rel:has-many,join:id=auction_id"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Open reports whether bids are admissible at the given block height. Both
// bounds are strict: a bid exactly at the open or close block is rejected.
func (a *Auction) Open(now int64) bool {
	return now > a.OpenBlock && now < a.CloseBlock
}

// Finished reports whether settlement operations are admissible.
func (a *Auction) Finished(now int64) bool {
	return now >= a.CloseBlock
}

// Lot is one escrowed item within an auction, addressed by its index. The
// set of lots is fixed at creation; only the bid state and the withdrawn
// flag change afterwards.
type Lot struct {
	bun.BaseModel `bun:"table:lots,alias:l"`

	AuctionID  string `bun:"auction_id,pk"`
	Index      int    `bun:"idx,pk"`
	Collection string `bun:"collection,notnull"`
	TokenID    int64  `bun:"token_id,notnull"`
	MinBid     int64  `bun:"min_bid,notnull"`

	// CurrentBidder is empty while no bid has been accepted. CurrentBid
	// starts at MinBid and only moves through accepted bids, until
	// settlement resets it.
	CurrentBidder string `bun:"current_bidder,notnull,default:''"`
	CurrentBid    int64  `bun:"current_bid,notnull"`
	Withdrawn     bool   `bun:"withdrawn,notnull,default:false"`

	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// RequiredIncrement derives the minimum absolute step for this lot. It is
// computed from the lot's original MinBid, not the moving current bid, so it
// stays constant for the lot's lifetime.
func (l *Lot) RequiredIncrement(minIncrementPercent int64) int64 {
	return l.MinBid * minIncrementPercent / 100
}
