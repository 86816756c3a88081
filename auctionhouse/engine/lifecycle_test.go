package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestCreateAuction(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the auction and escrows every lot", func(t *testing.T) {
		h := newHarness()
		lots := []LotSpec{
			{Ref: ItemRef{Collection: "erc721:punks", TokenID: 1}, MinBid: 100},
			{Ref: ItemRef{Collection: "erc721:punks", TokenID: 2}, MinBid: 250},
		}
		auction := h.createAuction(t, "sale-1", "alice", 110, 210, 10, 20, lots)

		check.Equal(t, "sale-1", auction.ID)
		check.Equal(t, 2, len(auction.Lots))
		check.Equal(t, int64(100), auction.Lots[0].CurrentBid)
		check.Equal(t, int64(250), auction.Lots[1].CurrentBid)
		check.Equal(t, "", auction.Lots[0].CurrentBidder)

		for _, spec := range lots {
			owner, err := h.custody.OwnerOf(ctx, spec.Ref)
			assert.NoError(t, err)
			check.Equal(t, DefaultEscrowAccount, owner)
		}

		stored, err := h.db.GetAuction(ctx, "sale-1")
		assert.NoError(t, err)
		assert.True(t, stored != nil)
		check.Equal(t, int64(210), stored.CloseBlock)

		events := h.sink.byName("auction_created")
		assert.Equal(t, 1, len(events))
		created := events[0].(AuctionCreated)
		check.Equal(t, "alice", created.Creator)
		check.Equal(t, "erc721:punks,1,100;erc721:punks,2,250", created.Lots)
	})

	t.Run("rejects an occupied id", func(t *testing.T) {
		h := newHarness()
		h.createAuction(t, "sale-1", "alice", 110, 210, 10, 20, singleLot("c", 1, 100))

		h.custody.mint("bob", ItemRef{Collection: "c", TokenID: 2})
		_, err := h.engine.CreateAuction(ctx, "sale-1", "bob", 110, 210, 10, 20, singleLot("c", 2, 100))
		check.True(t, errors.Is(err, ErrOccupied))
		check.Equal(t, ClassPrecondition, ClassOf(err))
	})

	t.Run("rejects close before open", func(t *testing.T) {
		h := newHarness()
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 210, 110, 10, 20, nil)
		check.True(t, errors.Is(err, ErrInvalidWindow))
	})

	t.Run("rejects close equal to open", func(t *testing.T) {
		h := newHarness()
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 110, 10, 20, nil)
		check.True(t, errors.Is(err, ErrInvalidWindow))
	})

	t.Run("rejects open at or before the current block", func(t *testing.T) {
		h := newHarness()
		// Current height is 100.
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 100, 210, 10, 20, nil)
		check.True(t, errors.Is(err, ErrInvalidWindow))

		_, err = h.engine.CreateAuction(ctx, "sale-2", "alice", 90, 210, 10, 20, nil)
		check.True(t, errors.Is(err, ErrInvalidWindow))
	})

	t.Run("rejects a window shorter than twice the extension", func(t *testing.T) {
		h := newHarness()
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 129, 10, 20, nil)
		check.True(t, errors.Is(err, ErrWindowTooShort))

		// Exactly twice is allowed.
		_, err = h.engine.CreateAuction(ctx, "sale-2", "alice", 110, 130, 10, 20, nil)
		check.NoError(t, err)
	})

	t.Run("rejects increment percent outside (0, 100)", func(t *testing.T) {
		h := newHarness()
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 0, nil)
		check.True(t, errors.Is(err, ErrInvalidIncrement))

		_, err = h.engine.CreateAuction(ctx, "sale-2", "alice", 110, 210, 10, 100, nil)
		check.True(t, errors.Is(err, ErrInvalidIncrement))

		_, err = h.engine.CreateAuction(ctx, "sale-3", "alice", 110, 210, 10, 101, nil)
		check.True(t, errors.Is(err, ErrInvalidIncrement))
	})

	t.Run("rejects a lot with min bid below 1", func(t *testing.T) {
		h := newHarness()
		h.custody.mint("alice", ItemRef{Collection: "c", TokenID: 1})
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 20, singleLot("c", 1, 0))
		check.True(t, errors.Is(err, ErrInvalidLot))
	})

	t.Run("rejects items the creator does not own", func(t *testing.T) {
		h := newHarness()
		h.custody.mint("bob", ItemRef{Collection: "c", TokenID: 1})
		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 20, singleLot("c", 1, 100))
		check.True(t, errors.Is(err, ErrNotItemOwner))
		check.Equal(t, ClassCollaborator, ClassOf(err))

		exists, dbErr := h.db.AuctionExists(ctx, "sale-1")
		assert.NoError(t, dbErr)
		check.False(t, exists)
	})

	t.Run("reverses earlier escrow when a later lot fails", func(t *testing.T) {
		h := newHarness()
		first := ItemRef{Collection: "c", TokenID: 1}
		second := ItemRef{Collection: "c", TokenID: 2}
		h.custody.mint("alice", first)
		h.custody.mint("alice", second)
		h.custody.failOn[second] = errors.New("custody down")

		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 20, []LotSpec{
			{Ref: first, MinBid: 100},
			{Ref: second, MinBid: 100},
		})
		assert.Error(t, err)

		owner, ownerErr := h.custody.OwnerOf(ctx, first)
		assert.NoError(t, ownerErr)
		check.Equal(t, "alice", owner)

		exists, dbErr := h.db.AuctionExists(ctx, "sale-1")
		assert.NoError(t, dbErr)
		check.False(t, exists)
	})

	t.Run("releases escrow when persistence fails", func(t *testing.T) {
		h := newHarness()
		ref := ItemRef{Collection: "c", TokenID: 1}
		h.custody.mint("alice", ref)
		h.db.failInsert = errors.New("db down")

		_, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 20, singleLot("c", 1, 100))
		assert.Error(t, err)

		owner, ownerErr := h.custody.OwnerOf(ctx, ref)
		assert.NoError(t, ownerErr)
		check.Equal(t, "alice", owner)
	})

	t.Run("allows an auction without lots", func(t *testing.T) {
		h := newHarness()
		auction, err := h.engine.CreateAuction(ctx, "sale-1", "alice", 110, 210, 10, 20, nil)
		assert.NoError(t, err)
		check.Equal(t, 0, len(auction.Lots))
	})
}
