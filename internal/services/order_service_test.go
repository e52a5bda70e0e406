package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cafe_order_backend/internal/events"
	"cafe_order_backend/internal/models"
)

type orderServiceFixture struct {
	menus     *stubMenuRepo
	orders    *stubOrderRepo
	movements *stubMovementRepo
	settings  *stubSettingRepo
	hub       *events.Hub
	svc       OrderService
}

func newOrderServiceFixture() *orderServiceFixture {
	menus := newStubMenuRepo()
	orders := newStubOrderRepo(menus)
	movements := newStubMovementRepo()
	settings := newStubSettingRepo()
	hub := events.NewHub()
	return &orderServiceFixture{
		menus:     menus,
		orders:    orders,
		movements: movements,
		settings:  settings,
		hub:       hub,
		svc:       NewOrderService(orders, menus, movements, settings, hub),
	}
}

func trackedItem(f *orderServiceFixture, name string, price int64, stock int) *models.MenuItem {
	s := stock
	return f.menus.add(models.MenuItem{
		Name: name, Price: price, Category: models.CategoryCoffee,
		IsAvailable: true, StockQuantity: &s,
	})
}

func untrackedItem(f *orderServiceFixture, name string, price int64) *models.MenuItem {
	return f.menus.add(models.MenuItem{
		Name: name, Price: price, Category: models.CategoryFood, IsAvailable: true,
	})
}

func TestPlaceOrderComputesTotalAndDecrementsStock(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)

	result, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 2, SpecialNotes: "less ice"}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", result.Warnings)
	}

	order := result.Order
	if order.Status != StatusPending {
		t.Errorf("expected status pending, got %s", order.Status)
	}
	if order.TotalAmount != 50000 {
		t.Errorf("expected total 50000, got %d", order.TotalAmount)
	}
	if len(order.OrderItems) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(order.OrderItems))
	}
	if order.OrderItems[0].Price != 25000 {
		t.Errorf("expected price snapshot 25000, got %d", order.OrderItems[0].Price)
	}
	if order.OrderItems[0].SpecialNotes == nil || *order.OrderItems[0].SpecialNotes != "less ice" {
		t.Errorf("expected notes snapshot on order item")
	}

	stock, _ := f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 8 {
		t.Errorf("expected stock 8 after sale, got %v", stock)
	}

	sales := f.movements.byReason(models.MovementReasonSale)
	if len(sales) != 1 || sales[0].Delta != -2 {
		t.Errorf("expected one sale movement with delta -2, got %+v", sales)
	}
}

func TestPlaceOrderInsufficientStockCreatesNothing(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 1)

	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 2}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if _, total, _ := f.orders.GetOrders(models.OrderFilters{}); total != 0 {
		t.Errorf("rejected checkout must not create an order, got %d orders", total)
	}
	stock, _ := f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 1 {
		t.Errorf("stock must be untouched after rejection, got %v", stock)
	}
}

func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 1)

	type outcome struct {
		result *PlaceOrderResult
		err    error
	}
	outcomes := make(chan outcome, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			res, err := f.svc.PlaceOrder(PlaceOrderRequest{
				TableID: 1,
				Items:   []CartItem{{MenuItem: *latte, Quantity: 1}},
			})
			outcomes <- outcome{result: res, err: err}
		}()
	}
	start.Done()

	clean, warned, rejected := 0, 0, 0
	for i := 0; i < 2; i++ {
		o := <-outcomes
		switch {
		case o.err == nil && len(o.result.Warnings) == 0:
			clean++
		case o.err == nil:
			warned++
		case errors.Is(o.err, ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("unexpected checkout error: %v", o.err)
		}
	}

	// The guarded decrement hands the last unit to exactly one checkout. The
	// loser is either rejected at the advisory pre-check or, if both passed
	// it, placed with a stock warning for staff follow-up.
	if clean != 1 {
		t.Errorf("expected exactly one fully-stocked checkout, got clean=%d warned=%d rejected=%d", clean, warned, rejected)
	}
	if warned+rejected != 1 {
		t.Errorf("expected the other checkout warned or rejected, got clean=%d warned=%d rejected=%d", clean, warned, rejected)
	}

	stock, _ := f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 0 {
		t.Errorf("expected stock 0 after contention, got %v", stock)
	}
	sales := f.movements.byReason(models.MovementReasonSale)
	if len(sales) != 1 || sales[0].Delta != -1 {
		t.Errorf("expected one sale movement with delta -1, got %+v", sales)
	}
}

func TestPlaceOrderUnknownItem(t *testing.T) {
	f := newOrderServiceFixture()
	ghost := models.MenuItem{ID: 99, Name: "Ghost", Price: 1000}

	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: ghost, Quantity: 1}},
	})
	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)

	if _, err := f.svc.PlaceOrder(PlaceOrderRequest{TableID: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty cart: expected ErrValidation, got %v", err)
	}
	_, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 0}},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("zero quantity: expected ErrValidation, got %v", err)
	}
}

func TestPlaceOrderEnforcesTableLimit(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 100)
	f.settings.set(models.SettingMaxOrdersPerTable, "1")

	req := PlaceOrderRequest{TableID: 7, Items: []CartItem{{MenuItem: *latte, Quantity: 1}}}
	if _, err := f.svc.PlaceOrder(req); err != nil {
		t.Fatalf("first order should pass: %v", err)
	}
	if _, err := f.svc.PlaceOrder(req); !errors.Is(err, ErrTableOrderLimit) {
		t.Fatalf("expected ErrTableOrderLimit, got %v", err)
	}

	// Other tables are not affected by table 7's active orders.
	req.TableID = 8
	if _, err := f.svc.PlaceOrder(req); err != nil {
		t.Errorf("different table should pass: %v", err)
	}
}

func TestStatusTransitionMatrix(t *testing.T) {
	allowed := map[string]map[string]bool{
		StatusPending:   {StatusPreparing: true, StatusCancelled: true},
		StatusPreparing: {StatusReady: true, StatusCancelled: true},
		StatusReady:     {StatusDelivered: true, StatusCancelled: true},
		StatusDelivered: {},
		StatusCancelled: {},
	}
	statuses := []string{StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

	for _, from := range statuses {
		for _, to := range statuses {
			got := CanTransition(from, to)
			want := allowed[from][to]
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestNextStatus(t *testing.T) {
	cases := map[string]string{
		StatusPending:   StatusPreparing,
		StatusPreparing: StatusReady,
		StatusReady:     StatusDelivered,
		StatusDelivered: "",
		StatusCancelled: "",
	}
	for current, want := range cases {
		if got := NextStatus(current); got != want {
			t.Errorf("NextStatus(%s) = %q, want %q", current, got, want)
		}
	}
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)

	placed, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	orderID := placed.Order.ID

	for _, next := range []string{StatusPreparing, StatusReady, StatusDelivered} {
		result, err := f.svc.UpdateOrderStatus(orderID, next)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if result.Order.Status != next {
			t.Fatalf("expected status %s, got %s", next, result.Order.Status)
		}
	}

	// Delivered is terminal; nothing moves it, not even cancellation.
	if _, err := f.svc.UpdateOrderStatus(orderID, StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancel after delivery: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(orderID, StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reopen after delivery: expected ErrInvalidTransition, got %v", err)
	}

	stock, _ := f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 9 {
		t.Errorf("delivered order must keep its stock decrement, got %v", stock)
	}
}

func TestUpdateOrderStatusRejectsSkips(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)
	placed, _ := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1, Items: []CartItem{{MenuItem: *latte, Quantity: 1}},
	})

	if _, err := f.svc.UpdateOrderStatus(placed.Order.ID, StatusDelivered); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending → delivered: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(placed.Order.ID, "bogus"); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Errorf("unknown status: expected ErrInvalidOrderStatus, got %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(12345, StatusPreparing); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order: expected ErrOrderNotFound, got %v", err)
	}
}

func TestCancelRestoresTrackedStockOnly(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)
	soup := untrackedItem(f, "Soup of the Day", 30000)

	placed, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items: []CartItem{
			{MenuItem: *latte, Quantity: 2},
			{MenuItem: *soup, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	stock, _ := f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 8 {
		t.Fatalf("expected stock 8 after sale, got %v", stock)
	}

	result, err := f.svc.UpdateOrderStatus(placed.Order.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if result.Order.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", result.Order.Status)
	}

	stock, _ = f.menus.ReadStock(latte.ID)
	if stock == nil || *stock != 10 {
		t.Errorf("expected stock restored to 10, got %v", stock)
	}
	if soupStock, _ := f.menus.ReadStock(soup.ID); soupStock != nil {
		t.Errorf("untracked item must stay untracked, got %v", soupStock)
	}

	returns := f.movements.byReason(models.MovementReasonReturn)
	if len(returns) != 1 || returns[0].Delta != 2 {
		t.Errorf("expected one return movement with delta 2, got %+v", returns)
	}
}

func TestOrderTotalImmutableAfterPriceEdit(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)

	placed, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	edited, _ := f.menus.GetMenuItemByID(latte.ID)
	edited.Price = 99000
	if err := f.menus.UpdateMenuItem(edited); err != nil {
		t.Fatalf("price edit failed: %v", err)
	}

	reloaded, err := f.svc.GetOrderByID(placed.Order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.TotalAmount != 50000 {
		t.Errorf("total must keep the placement-time price, got %d", reloaded.TotalAmount)
	}
	if reloaded.OrderItems[0].Price != 25000 {
		t.Errorf("item price snapshot must survive the edit, got %d", reloaded.OrderItems[0].Price)
	}
}

func TestPlaceOrderPublishesNewOrderEvent(t *testing.T) {
	f := newOrderServiceFixture()
	latte := trackedItem(f, "Latte", 25000, 10)

	sub := f.hub.Subscribe("dashboard", 0, 8)
	defer sub.Cancel()

	placed, err := f.svc.PlaceOrder(PlaceOrderRequest{
		TableID: 1,
		Items:   []CartItem{{MenuItem: *latte, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}

	select {
	case event := <-sub.C:
		if event.Kind != events.KindNewOrder {
			t.Errorf("expected new_order event, got %s", event.Kind)
		}
		if event.Order == nil || event.Order.ID != placed.Order.ID {
			t.Errorf("event must carry the placed order snapshot")
		}
	case <-time.After(time.Second):
		t.Fatal("no event published for placed order")
	}

	if _, err := f.svc.UpdateOrderStatus(placed.Order.ID, StatusPreparing); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if _, err := f.svc.UpdateOrderStatus(placed.Order.ID, StatusReady); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	kinds := []events.Kind{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-sub.C:
			kinds = append(kinds, event.Kind)
		case <-time.After(time.Second):
			t.Fatal("missing status event")
		}
	}
	if kinds[0] != events.KindStatusUpdate || kinds[1] != events.KindOrderReady {
		t.Errorf("expected [status_update order_ready], got %v", kinds)
	}
}

func TestCancelOrphanOrders(t *testing.T) {
	f := newOrderServiceFixture()

	// Simulates an interrupted checkout: the order row exists, the items were
	// never written.
	stale := &models.Order{TableID: 1, Status: StatusPending, CreatedAt: time.Now().Add(-time.Hour)}
	staleID, _ := f.orders.CreateOrder(stale)

	fresh := &models.Order{TableID: 1, Status: StatusPending, CreatedAt: time.Now()}
	freshID, _ := f.orders.CreateOrder(fresh)

	withItems := &models.Order{TableID: 2, Status: StatusPending, CreatedAt: time.Now().Add(-time.Hour)}
	withItemsID, _ := f.orders.CreateOrder(withItems)
	_ = f.orders.CreateOrderItems([]models.OrderItem{{OrderID: withItemsID, MenuID: 1, Quantity: 1, Price: 1000}})

	cancelled, err := f.svc.CancelOrphanOrders(5 * time.Minute)
	if err != nil {
		t.Fatalf("CancelOrphanOrders failed: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected exactly 1 orphan cancelled, got %d", cancelled)
	}

	if o, _ := f.orders.GetOrderByID(staleID); o.Status != StatusCancelled {
		t.Errorf("stale orphan should be cancelled, got %s", o.Status)
	}
	if o, _ := f.orders.GetOrderByID(freshID); o.Status != StatusPending {
		t.Errorf("orphan inside grace period must be left alone, got %s", o.Status)
	}
	if o, _ := f.orders.GetOrderByID(withItemsID); o.Status != StatusPending {
		t.Errorf("order with items is not an orphan, got %s", o.Status)
	}
}
