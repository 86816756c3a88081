package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/openlot/auctionhouse/auctionhouse/database/models"
)

// memDB is an in-memory Store + BalanceStore with the same atomicity
// contract as the bun-backed repositories: each write either applies fully
// or, when a failure is injected, leaves no trace.
type memDB struct {
	mu       sync.Mutex
	auctions map[string]*models.Auction
	bids     map[string]int64
	balances map[string]int64

	failApplyBid      error
	failClearRecord   error
	failSettleLot     error
	failMarkWithdrawn error
	failInsert        error
}

func newMemDB() *memDB {
	return &memDB{
		auctions: make(map[string]*models.Auction),
		bids:     make(map[string]int64),
		balances: make(map[string]int64),
	}
}

func bidKey(id string, lotIndex int, bidder string) string {
	return fmt.Sprintf("%s/%d/%s", id, lotIndex, bidder)
}

func (m *memDB) AuctionExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.auctions[id]
	return ok, nil
}

func (m *memDB) GetAuction(_ context.Context, id string) (*models.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, nil
	}
	return copyAuction(a), nil
}

func copyAuction(a *models.Auction) *models.Auction {
	c := *a
	c.Lots = make([]*models.Lot, len(a.Lots))
	for i, lot := range a.Lots {
		l := *lot
		c.Lots[i] = &l
	}
	return &c
}

func (m *memDB) InsertAuction(_ context.Context, auction *models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	m.auctions[auction.ID] = copyAuction(auction)
	return nil
}

func (m *memDB) ApplyBid(_ context.Context, id string, lotIndex int, bidder string, amount, closeBlock int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failApplyBid != nil {
		return m.failApplyBid
	}
	a := m.auctions[id]
	lot := a.Lots[lotIndex]
	lot.CurrentBidder = bidder
	lot.CurrentBid = amount
	a.CloseBlock = closeBlock
	m.bids[bidKey(id, lotIndex, bidder)] = amount
	return nil
}

func (m *memDB) GetBidRecord(_ context.Context, id string, lotIndex int, bidder string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bids[bidKey(id, lotIndex, bidder)], nil
}

func (m *memDB) ClearBidRecord(_ context.Context, id string, lotIndex int, bidder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClearRecord != nil {
		return m.failClearRecord
	}
	m.bids[bidKey(id, lotIndex, bidder)] = 0
	return nil
}

func (m *memDB) SettleLot(_ context.Context, id string, lotIndex int, winner string, proceeds int64, creator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSettleLot != nil {
		return m.failSettleLot
	}
	lot := m.auctions[id].Lots[lotIndex]
	lot.CurrentBidder = ""
	lot.CurrentBid = 0
	lot.Withdrawn = true
	m.bids[bidKey(id, lotIndex, winner)] = 0
	m.balances[creator] += proceeds
	return nil
}

func (m *memDB) MarkLotsWithdrawn(_ context.Context, id string, indexes []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMarkWithdrawn != nil {
		return m.failMarkWithdrawn
	}
	for _, idx := range indexes {
		m.auctions[id].Lots[idx].Withdrawn = true
	}
	return nil
}

func (m *memDB) ListOpen(_ context.Context, now int64) ([]*models.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Auction
	for _, a := range m.auctions {
		if a.CloseBlock > now {
			out = append(out, copyAuction(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) ListClosedUnsettled(_ context.Context, now int64) ([]*models.Auction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Auction
	for _, a := range m.auctions {
		if a.CloseBlock > now {
			continue
		}
		for _, lot := range a.Lots {
			if lot.CurrentBidder != "" && !lot.Withdrawn {
				out = append(out, copyAuction(a))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) CreatorBalance(_ context.Context, creator string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[creator], nil
}

func (m *memDB) DrainCreatorBalance(_ context.Context, creator string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.balances[creator]
	m.balances[creator] = 0
	return amount, nil
}

func (m *memDB) CreditCreatorBalance(_ context.Context, creator string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[creator] += amount
	return nil
}

// memCustody tracks item ownership. failOn makes the transfer of one
// specific item fail, for exercising compensation paths.
type memCustody struct {
	mu     sync.Mutex
	owners map[ItemRef]string
	failOn map[ItemRef]error
}

func newMemCustody() *memCustody {
	return &memCustody{
		owners: make(map[ItemRef]string),
		failOn: make(map[ItemRef]error),
	}
}

func (c *memCustody) mint(owner string, ref ItemRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owners[ref] = owner
}

func (c *memCustody) TransferItem(_ context.Context, from, to string, ref ItemRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failOn[ref]; err != nil {
		return err
	}
	owner, ok := c.owners[ref]
	if !ok {
		return ErrItemNotFound
	}
	if owner != from {
		return ErrNotItemOwner
	}
	c.owners[ref] = to
	return nil
}

func (c *memCustody) OwnerOf(_ context.Context, ref ItemRef) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	owner, ok := c.owners[ref]
	if !ok {
		return "", ErrItemNotFound
	}
	return owner, nil
}

// memVault tracks currency balances plus the engine-held total.
type memVault struct {
	mu       sync.Mutex
	balances map[string]int64
	held     int64

	failTransferOut error
}

func newMemVault() *memVault {
	return &memVault{balances: make(map[string]int64)}
}

func (v *memVault) deposit(account string, amount int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[account] += amount
}

func (v *memVault) balance(account string) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[account]
}

func (v *memVault) heldTotal() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.held
}

func (v *memVault) TransferIn(_ context.Context, from string, amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[from] < amount {
		return ErrInsufficientBalance
	}
	v.balances[from] -= amount
	v.held += amount
	return nil
}

func (v *memVault) TransferOut(_ context.Context, to string, amount int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failTransferOut != nil {
		return v.failTransferOut
	}
	v.balances[to] += amount
	v.held -= amount
	return nil
}

// manualClock is a hand-advanced block height.
type manualClock struct {
	mu     sync.Mutex
	height int64
}

func (c *manualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *manualClock) set(height int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
}

// captureSink records every emitted event.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *captureSink) byName(name string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

// harness bundles a fully wired engine over the in-memory fakes.
type harness struct {
	db      *memDB
	custody *memCustody
	vault   *memVault
	clock   *manualClock
	sink    *captureSink
	engine  *Engine
}

func newHarness() *harness {
	h := &harness{
		db:      newMemDB(),
		custody: newMemCustody(),
		vault:   newMemVault(),
		clock:   &manualClock{height: 100},
		sink:    &captureSink{},
	}
	h.engine = New(h.db, h.db, h.custody, h.vault, h.clock, h.sink, DefaultEscrowAccount)
	return h
}

// createAuction mints the lots' items to the creator and creates the
// auction, failing the test on any error.
func (h *harness) createAuction(t testingT, id, creator string, openBlock, closeBlock, extensionWindow, pct int64, lots []LotSpec) *models.Auction {
	t.Helper()
	for _, spec := range lots {
		h.custody.mint(creator, spec.Ref)
	}
	auction, err := h.engine.CreateAuction(context.Background(), id, creator, openBlock, closeBlock, extensionWindow, pct, lots)
	if err != nil {
		t.Fatalf("createAuction: %v", err)
	}
	return auction
}

// testingT is the slice of *testing.T the harness needs.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

func singleLot(collection string, tokenID, minBid int64) []LotSpec {
	return []LotSpec{{Ref: ItemRef{Collection: collection, TokenID: tokenID}, MinBid: minBid}}
}
