package engine

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is the default EventSink: every event is logged, and subscribers
// receive a copy on their channel. Delivery is fire-and-forget; a subscriber
// that falls behind loses events rather than blocking the engine.
type Notifier struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a buffered channel that receives every subsequent
// event. The channel is closed by Close.
func (n *Notifier) Subscribe(buffer int) <-chan Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Event, buffer)
	if n.closed {
		close(ch)
		return ch
	}
	n.subs = append(n.subs, ch)
	return ch
}

func (n *Notifier) Emit(_ context.Context, ev Event) {
	n.logEvent(ev)

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("Dropping event for slow subscriber",
				slog.String("event", ev.EventName()))
		}
	}
}

func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}

func (n *Notifier) logEvent(ev Event) {
	switch e := ev.(type) {
	case AuctionCreated:
		slog.Info("[EVENT] auction created",
			slog.String("type", "engine"),
			slog.String("auction_id", e.AuctionID),
			slog.String("creator", e.Creator),
			slog.Int64("open_block", e.OpenBlock),
			slog.Int64("close_block", e.CloseBlock),
			slog.String("lots", e.Lots))
	case BidAccepted:
		slog.Info("[EVENT] bid accepted",
			slog.String("type", "engine"),
			slog.String("auction_id", e.AuctionID),
			slog.Int("lot", e.LotIndex),
			slog.String("bidder", e.Bidder),
			slog.Int64("amount", e.Amount),
			slog.Int64("close_block", e.CloseBlock))
	case LotRewarded:
		slog.Info("[EVENT] lot rewarded",
			slog.String("type", "engine"),
			slog.String("auction_id", e.AuctionID),
			slog.Int("lot", e.LotIndex),
			slog.String("winner", e.Winner))
	default:
		slog.Info("[EVENT] "+ev.EventName(), slog.String("type", "engine"))
	}
}
