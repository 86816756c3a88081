package engine

import "errors"

// Class separates the three failure families callers react to differently:
// fix the input, try again once time has advanced, or resolve an
// ownership/balance problem with the external standard.
type Class int

const (
	ClassPrecondition Class = iota
	ClassTiming
	ClassCollaborator
)

// Rejection is a typed refusal of an operation. No state is mutated when one
// is returned.
type Rejection struct {
	Kind  string
	Class Class
	msg   string
}

func (r *Rejection) Error() string { return r.msg }

// ClassOf extracts the failure class from an error chain. Errors that are not
// engine rejections are reported as collaborator failures, matching how they
// enter the engine.
func ClassOf(err error) Class {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Class
	}
	return ClassCollaborator
}

var (
	ErrOccupied         = &Rejection{Kind: "Occupied", Class: ClassPrecondition, msg: "auction id is occupied"}
	ErrNotFound         = &Rejection{Kind: "NotFound", Class: ClassPrecondition, msg: "auction does not exist"}
	ErrInvalidWindow    = &Rejection{Kind: "InvalidWindow", Class: ClassPrecondition, msg: "condition closeBlock > openBlock > current block not satisfied"}
	ErrWindowTooShort   = &Rejection{Kind: "WindowTooShort", Class: ClassPrecondition, msg: "auction window must be at least twice the extension window"}
	ErrInvalidIncrement = &Rejection{Kind: "InvalidIncrement", Class: ClassPrecondition, msg: "increment percent must be greater than 0 and less than 100"}
	ErrInvalidLot       = &Rejection{Kind: "InvalidLot", Class: ClassPrecondition, msg: "invalid lot"}

	ErrNotOpen          = &Rejection{Kind: "NotOpen", Class: ClassTiming, msg: "auction is not open for bidding"}
	ErrIllegalIncrement = &Rejection{Kind: "IllegalIncrement", Class: ClassPrecondition, msg: "bid must meet the minimum increment and stay below double the current bid"}

	ErrTopBidderCannotWithdraw = &Rejection{Kind: "TopBidderCannotWithdraw", Class: ClassPrecondition, msg: "top bidder cannot withdraw"}
	ErrNothingToWithdraw       = &Rejection{Kind: "NothingToWithdraw", Class: ClassPrecondition, msg: "bid must be greater than 0 to withdraw"}

	ErrNotFinished         = &Rejection{Kind: "NotFinished", Class: ClassTiming, msg: "auction is not finished"}
	ErrNoValidWinner       = &Rejection{Kind: "NoValidWinner", Class: ClassPrecondition, msg: "lot has no valid winner"}
	ErrNotCreator          = &Rejection{Kind: "NotCreator", Class: ClassPrecondition, msg: "caller is not the auction creator"}
	ErrAlreadySettledOrBid = &Rejection{Kind: "AlreadySettledOrBid", Class: ClassPrecondition, msg: "lot has a bid or already left escrow"}
	ErrZeroBalance         = &Rejection{Kind: "ZeroBalance", Class: ClassPrecondition, msg: "creator balance is 0"}

	// Collaborator failures surfaced by custody and currency backends.
	ErrItemNotFound        = &Rejection{Kind: "ItemNotFound", Class: ClassCollaborator, msg: "item does not exist"}
	ErrNotItemOwner        = &Rejection{Kind: "NotItemOwner", Class: ClassCollaborator, msg: "transfer of item that is not own"}
	ErrInsufficientBalance = &Rejection{Kind: "InsufficientBalance", Class: ClassCollaborator, msg: "insufficient settlement-currency balance"}
)
