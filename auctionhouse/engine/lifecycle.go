package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// LotSpec describes one item to escrow at creation time.
type LotSpec struct {
	Ref    ItemRef
	MinBid int64
}

// CreateAuction validates the parameters, escrows every lot's item from the
// creator into engine custody and persists the auction. Creation is
// all-or-nothing: a custody failure on any lot reverses the transfers already
// made and leaves no trace of the auction.
func (e *Engine) CreateAuction(ctx context.Context, id, creator string, openBlock, closeBlock, extensionWindow, minIncrementPercent int64, lots []LotSpec) (*models.Auction, error) {
	unlock := e.lockAuction(id)
	defer unlock()

	occupied, err := e.store.AuctionExists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check auction id: %w", err)
	}
	if occupied {
		return nil, ErrOccupied
	}

	now := e.clock.Now()
	if closeBlock <= openBlock || openBlock <= now {
		return nil, ErrInvalidWindow
	}
	if closeBlock-openBlock < 2*extensionWindow {
		return nil, ErrWindowTooShort
	}
	if minIncrementPercent <= 0 || minIncrementPercent >= 100 {
		return nil, ErrInvalidIncrement
	}
	for _, spec := range lots {
		if spec.MinBid < 1 {
			return nil, ErrInvalidLot
		}
	}

	// Escrow the items one by one, in array order. Any failure reverses
	// the transfers already made before the error is surfaced.
	escrowed := make([]ItemRef, 0, len(lots))
	for _, spec := range lots {
		if err := e.custody.TransferItem(ctx, creator, e.escrowAccount, spec.Ref); err != nil {
			e.releaseEscrow(ctx, creator, escrowed)
			return nil, fmt.Errorf("failed to escrow item %s: %w", spec.Ref, err)
		}
		escrowed = append(escrowed, spec.Ref)
	}

	auction := &models.Auction{
		ID:                  id,
		Creator:             creator,
		OpenBlock:           openBlock,
		CloseBlock:          closeBlock,
		ExtensionWindow:     extensionWindow,
		MinIncrementPercent: minIncrementPercent,
	}
	for i, spec := range lots {
		auction.Lots = append(auction.Lots, &models.Lot{
			AuctionID:  id,
			Index:      i,
			Collection: spec.Ref.Collection,
			TokenID:    spec.Ref.TokenID,
			MinBid:     spec.MinBid,
			CurrentBid: spec.MinBid,
		})
	}

	if err := e.store.InsertAuction(ctx, auction); err != nil {
		e.releaseEscrow(ctx, creator, escrowed)
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	slog.Info("Auction created",
		slog.String("type", "engine"),
		slog.String("auction_id", id),
		slog.String("creator", creator),
		slog.Int64("open_block", openBlock),
		slog.Int64("close_block", closeBlock),
		slog.Int("lots", len(lots)))

	e.sink.Emit(ctx, AuctionCreated{
		ID:                  newEventID(),
		AuctionID:           id,
		Creator:             creator,
		OpenBlock:           openBlock,
		CloseBlock:          closeBlock,
		ExtensionWindow:     extensionWindow,
		MinIncrementPercent: minIncrementPercent,
		Lots:                summarizeLots(lots),
	})

	return auction, nil
}

// releaseEscrow hands already-escrowed items back to the creator after a
// failed creation. The engine still owns them, so these transfers only fail
// if the custody backend itself is broken; that is logged, not returned.
func (e *Engine) releaseEscrow(ctx context.Context, creator string, refs []ItemRef) {
	for _, ref := range refs {
		if err := e.custody.TransferItem(ctx, e.escrowAccount, creator, ref); err != nil {
			slog.Error("Failed to release escrowed item after aborted creation",
				slog.String("type", "error"),
				slog.String("item", ref.String()),
				slog.String("creator", creator),
				slog.Any("error", err))
		}
	}
}

func summarizeLots(lots []LotSpec) string {
	parts := make([]string, len(lots))
	for i, spec := range lots {
		parts[i] = fmt.Sprintf("%s,%d,%d", spec.Ref.Collection, spec.Ref.TokenID, spec.MinBid)
	}
	return strings.Join(parts, ";")
}
