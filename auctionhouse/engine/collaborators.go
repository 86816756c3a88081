package engine

import (
	"context"
	"fmt"
)

// ItemRef identifies a non-fungible item: the custody standard it lives in
// plus its token id.
type ItemRef struct {
	Collection string
	TokenID    int64
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s/%d", r.Collection, r.TokenID)
}

// ItemCustody is the non-fungible custody standard the engine escrows items
// through. Implementations report ErrItemNotFound and ErrNotItemOwner.
type ItemCustody interface {
	TransferItem(ctx context.Context, from, to string, ref ItemRef) error
	OwnerOf(ctx context.Context, ref ItemRef) (string, error)
}

// CurrencyVault is the settlement-currency standard. TransferIn moves funds
// from a party into engine custody (ErrInsufficientBalance on shortfall);
// TransferOut releases engine-held funds back to a party.
type CurrencyVault interface {
	TransferIn(ctx context.Context, from string, amount int64) error
	TransferOut(ctx context.Context, to string, amount int64) error
}

// Clock supplies the monotonic block height every timing rule is evaluated
// against. The engine never reads wall-clock time.
type Clock interface {
	Now() int64
}

// EventSink receives fire-and-forget structured records for accepted
// operations. The engine never reads them back.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}
