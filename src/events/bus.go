// Package events fans out portfolio notifications to the live connections of a session.
package events

import (
	"sync"
	"time"

	"github.com/username/stockfolio/src/logger"
)

type EventType string

const (
	PriceProgress    EventType = "price_progress"
	PortfolioChanged EventType = "portfolio_changed"
	PricesRefreshed  EventType = "prices_refreshed"
)

// Event is what subscribers receive. SessionID never leaves the server.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"-"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressData reports how many tickers of a price fetch have been resolved.
type ProgressData struct {
	Fetched int `json:"fetched"`
	Total   int `json:"total"`
}

// ChangeData names the transition that produced a new state.
type ChangeData struct {
	Reason    string `json:"reason"`
	Portfolio string `json:"portfolio,omitempty"`
}

// RefreshData summarises a completed price refresh.
type RefreshData struct {
	PricesFound  int  `json:"pricesFound"`
	TickersTotal int  `json:"tickersTotal"`
	Stale        bool `json:"stale,omitempty"`
}

// DefaultBuffer is the per-subscriber channel size.
const DefaultBuffer = 64

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
	buffer int
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{subs: make(map[string]map[int]chan Event), buffer: buffer}
}

// Subscribe registers a listener for sessionID. The returned cancel func closes the channel
// and is safe to call more than once.
func (b *Bus) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[int]chan Event)
	}
	b.subs[sessionID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[sessionID], id)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of sessionID without blocking.
// Subscribers whose buffer is full miss the event.
func (b *Bus) Publish(sessionID string, typ EventType, data any) {
	ev := Event{Type: typ, SessionID: sessionID, Data: data, Timestamp: time.Now().UTC()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[sessionID] {
		select {
		case ch <- ev:
		default:
			logger.L.Warn("Event channel full, dropping event", "sessionID", sessionID, "type", typ)
		}
	}
}

// Subscribers returns the number of live subscriptions for sessionID.
func (b *Bus) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
