package events

import (
	"sync"

	"cafe_order_backend/internal/models"
)

// Kind classifies an order event for presentation-layer cues: the admin
// dashboard plays a distinct sound for new orders and for orders becoming
// ready, and a generic acknowledgement for other transitions.
type Kind string

const (
	KindNewOrder     Kind = "new_order"
	KindStatusUpdate Kind = "status_update"
	KindOrderReady   Kind = "order_ready"
)

// Event carries a full-row snapshot of the changed order. Consumers replace
// their local copy wholesale; last notification wins.
type Event struct {
	Kind  Kind          `json:"kind"`
	Order *models.Order `json:"order"`
}

// Subscription is a live feed of order events. Cancel releases it; Cancel is
// idempotent and safe to call concurrently with Publish.
type Subscription struct {
	C chan Event

	id      uint64
	key     string
	orderID int64
	hub     *Hub
	once    sync.Once
}

// Cancel releases the subscription and closes its channel.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// OrderID returns the order identity this subscription is filtered to,
// or 0 for all orders.
func (s *Subscription) OrderID() int64 {
	return s.orderID
}

// Hub fans order events out to subscribers. Sends never block: a subscriber
// whose buffer is full misses the event and must rely on the next full-row
// snapshot, which carries the complete current state anyway.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	byKey  map[string]*Subscription
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subs:  make(map[uint64]*Subscription),
		byKey: make(map[string]*Subscription),
	}
}

// Subscribe registers a feed for the given subscriber key. orderID filters
// events to a single order; 0 means all orders. A repeat Subscribe with the
// same key returns the existing subscription instead of opening a second one.
func (h *Hub) Subscribe(key string, orderID int64, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.byKey[key]; ok {
		return existing
	}

	h.nextID++
	sub := &Subscription{
		C:       make(chan Event, buffer),
		id:      h.nextID,
		key:     key,
		orderID: orderID,
		hub:     h,
	}
	h.subs[sub.id] = sub
	h.byKey[key] = sub
	return sub
}

// Publish delivers the event to every matching subscriber without blocking.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.orderID != 0 && (e.Order == nil || e.Order.ID != sub.orderID) {
			continue
		}
		select {
		case sub.C <- e:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	if h.byKey[s.key] == s {
		delete(h.byKey, s.key)
	}
	close(s.C)
}
