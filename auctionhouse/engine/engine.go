package engine

import (
	"sync"
)

const DefaultEscrowAccount = "auctionhouse:escrow"

// Engine owns the auction state machine: lifecycle validation, per-lot bid
// ordering and post-close settlement. All mutating operations run their
// check-then-effect sequence inside a per-auction critical section, so a
// validation always sees the state it will mutate.
type Engine struct {
	store    Store
	balances BalanceStore
	custody  ItemCustody
	vault    CurrencyVault
	clock    Clock
	sink     EventSink

	// escrowAccount is the custody identity holding items while their
	// auction runs.
	escrowAccount string

	auctionLocks sync.Map // auction id -> *sync.Mutex
	balanceLocks sync.Map // creator id -> *sync.Mutex
}

func New(store Store, balances BalanceStore, custody ItemCustody, vault CurrencyVault, clock Clock, sink EventSink, escrowAccount string) *Engine {
	if store == nil {
		panic("auction store cannot be nil")
	}
	if balances == nil {
		panic("balance store cannot be nil")
	}
	if custody == nil {
		panic("item custody cannot be nil")
	}
	if vault == nil {
		panic("currency vault cannot be nil")
	}
	if clock == nil {
		panic("clock cannot be nil")
	}
	if sink == nil {
		sink = NewNotifier()
	}
	if escrowAccount == "" {
		escrowAccount = DefaultEscrowAccount
	}

	return &Engine{
		store:         store,
		balances:      balances,
		custody:       custody,
		vault:         vault,
		clock:         clock,
		sink:          sink,
		escrowAccount: escrowAccount,
	}
}

// EscrowAccount exposes the custody identity items are escrowed under.
func (e *Engine) EscrowAccount() string {
	return e.escrowAccount
}

func (e *Engine) lockAuction(id string) func() {
	v, _ := e.auctionLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (e *Engine) lockBalance(creator string) func() {
	v, _ := e.balanceLocks.LoadOrStore(creator, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
