package events

import (
	"testing"

	"cafe_order_backend/internal/models"
)

func TestSubscribeDuplicateKeyReturnsExisting(t *testing.T) {
	hub := NewHub()

	first := hub.Subscribe("customer-1", 0, 4)
	second := hub.Subscribe("customer-1", 0, 4)
	if first != second {
		t.Error("same key must reuse the existing subscription")
	}
	if hub.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	other := hub.Subscribe("customer-2", 0, 4)
	if other == first {
		t.Error("different keys must get distinct subscriptions")
	}
	if hub.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", hub.SubscriberCount())
	}
}

func TestPublishFiltersByOrderID(t *testing.T) {
	hub := NewHub()

	all := hub.Subscribe("dashboard", 0, 4)
	only7 := hub.Subscribe("customer", 7, 4)

	hub.Publish(Event{Kind: KindStatusUpdate, Order: &models.Order{ID: 7}})
	hub.Publish(Event{Kind: KindStatusUpdate, Order: &models.Order{ID: 8}})

	if len(all.C) != 2 {
		t.Errorf("unfiltered subscriber should see both events, got %d", len(all.C))
	}
	if len(only7.C) != 1 {
		t.Fatalf("filtered subscriber should see one event, got %d", len(only7.C))
	}
	if event := <-only7.C; event.Order.ID != 7 {
		t.Errorf("filtered subscriber got order %d", event.Order.ID)
	}
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("slow", 0, 1)

	// Second publish overflows the buffer; it must drop, not block.
	hub.Publish(Event{Kind: KindNewOrder, Order: &models.Order{ID: 1}})
	hub.Publish(Event{Kind: KindNewOrder, Order: &models.Order{ID: 2}})

	if len(sub.C) != 1 {
		t.Errorf("expected buffer to hold 1 event, got %d", len(sub.C))
	}
	if event := <-sub.C; event.Order.ID != 1 {
		t.Errorf("expected the first event to survive, got order %d", event.Order.ID)
	}
}

func TestCancelIsIdempotentAndFreesKey(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("customer-1", 0, 4)

	sub.Cancel()
	sub.Cancel() // no panic on double close

	if hub.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after cancel, got %d", hub.SubscriberCount())
	}
	if _, ok := <-sub.C; ok {
		t.Error("channel should be closed after cancel")
	}

	replacement := hub.Subscribe("customer-1", 0, 4)
	if replacement == sub {
		t.Error("cancelled key must be reusable for a fresh subscription")
	}
}

func TestSubscriptionOrderID(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe("customer", 42, 4)
	if sub.OrderID() != 42 {
		t.Errorf("expected order ID 42, got %d", sub.OrderID())
	}
}
