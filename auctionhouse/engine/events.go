package engine

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// Event is a structured record of an accepted state transition.
type Event interface {
	EventName() string
}

func newEventID() snowflake.ID {
	return snowflake.New(time.Now())
}

type AuctionCreated struct {
	ID                  snowflake.ID
	AuctionID           string
	Creator             string
	OpenBlock           int64
	CloseBlock          int64
	ExtensionWindow     int64
	MinIncrementPercent int64
	// Lots is the serialized summary of the escrowed items, one
	// "collection,token,minBid" entry per lot.
	Lots string
}

func (AuctionCreated) EventName() string { return "auction_created" }

type BidAccepted struct {
	ID        snowflake.ID
	AuctionID string
	LotIndex  int
	Bidder    string
	Amount    int64
	// CloseBlock reflects any anti-snipe extension this bid triggered.
	CloseBlock int64
}

func (BidAccepted) EventName() string { return "bid_accepted" }

type LotRewarded struct {
	ID        snowflake.ID
	AuctionID string
	LotIndex  int
	Winner    string
}

func (LotRewarded) EventName() string { return "lot_rewarded" }
