package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cafe_order_backend/internal/models"
)

func TestBuildDailyReportAggregates(t *testing.T) {
	latte := &models.MenuItem{ID: 1, Name: "Latte", Category: models.CategoryCoffee}
	croissant := &models.MenuItem{ID: 2, Name: "Croissant", Category: models.CategoryFood}

	orders := []models.Order{
		{ID: 1, TotalAmount: 68000},
		{ID: 2, TotalAmount: 25000},
	}
	items := []models.OrderItem{
		{OrderID: 1, MenuID: 1, Quantity: 2, Price: 25000, MenuItem: latte},
		{OrderID: 1, MenuID: 2, Quantity: 1, Price: 18000, MenuItem: croissant},
		{OrderID: 2, MenuID: 1, Quantity: 1, Price: 25000, MenuItem: latte},
	}

	report := BuildDailyReport("2026-09-01", orders, items)

	if report.TotalOrders != 2 {
		t.Errorf("expected 2 orders, got %d", report.TotalOrders)
	}
	if report.TotalRevenue != 93000 {
		t.Errorf("expected revenue 93000, got %d", report.TotalRevenue)
	}
	if report.AverageOrderValue != 46500 {
		t.Errorf("expected average 46500, got %f", report.AverageOrderValue)
	}

	if len(report.PopularItems) != 2 {
		t.Fatalf("expected 2 popular items, got %d", len(report.PopularItems))
	}
	if report.PopularItems[0].Name != "Latte" || report.PopularItems[0].TotalQuantity != 3 {
		t.Errorf("expected Latte x3 first, got %+v", report.PopularItems[0])
	}
	if report.PopularItems[0].TotalRevenue != 75000 {
		t.Errorf("expected Latte revenue 75000, got %d", report.PopularItems[0].TotalRevenue)
	}
	if report.PopularItems[1].Name != "Croissant" {
		t.Errorf("expected Croissant second, got %+v", report.PopularItems[1])
	}
}

func TestBuildDailyReportTiebreakByFirstAppearance(t *testing.T) {
	tea := &models.MenuItem{ID: 1, Name: "Tea", Category: models.CategoryDrink}
	mocha := &models.MenuItem{ID: 2, Name: "Mocha", Category: models.CategoryCoffee}

	items := []models.OrderItem{
		{OrderID: 1, MenuID: 1, Quantity: 2, Price: 10000, MenuItem: tea},
		{OrderID: 1, MenuID: 2, Quantity: 2, Price: 28000, MenuItem: mocha},
	}
	report := BuildDailyReport("2026-09-01", []models.Order{{ID: 1, TotalAmount: 76000}}, items)

	if report.PopularItems[0].Name != "Tea" {
		t.Errorf("equal quantities must rank by first appearance; got %s first", report.PopularItems[0].Name)
	}
}

func TestBuildDailyReportCapsTopTen(t *testing.T) {
	var items []models.OrderItem
	for i := 1; i <= 15; i++ {
		menu := &models.MenuItem{ID: int64(i), Name: fmt.Sprintf("Item %d", i), Category: models.CategorySnack}
		// Higher IDs sell more, so the cap drops items 1-5.
		items = append(items, models.OrderItem{OrderID: 1, MenuID: int64(i), Quantity: i, Price: 1000, MenuItem: menu})
	}
	report := BuildDailyReport("2026-09-01", []models.Order{{ID: 1, TotalAmount: 120000}}, items)

	if len(report.PopularItems) != 10 {
		t.Fatalf("expected popular items capped at 10, got %d", len(report.PopularItems))
	}
	if report.PopularItems[0].Name != "Item 15" {
		t.Errorf("expected best seller first, got %s", report.PopularItems[0].Name)
	}
	if report.PopularItems[9].Name != "Item 6" {
		t.Errorf("expected Item 6 last in top ten, got %s", report.PopularItems[9].Name)
	}
}

func TestBuildDailyReportEmptyDay(t *testing.T) {
	report := BuildDailyReport("2026-09-01", nil, nil)

	if report.TotalOrders != 0 || report.TotalRevenue != 0 {
		t.Errorf("empty day should have zero totals, got %+v", report)
	}
	if report.AverageOrderValue != 0 {
		t.Errorf("empty day must not divide by zero, got %f", report.AverageOrderValue)
	}
	if report.PopularItems == nil || len(report.PopularItems) != 0 {
		t.Errorf("popular items should be an empty slice, got %v", report.PopularItems)
	}
}

func TestBuildDailyReportDeletedMenuFallback(t *testing.T) {
	items := []models.OrderItem{
		{OrderID: 1, MenuID: 42, Quantity: 1, Price: 15000, MenuItem: nil},
	}
	report := BuildDailyReport("2026-09-01", []models.Order{{ID: 1, TotalAmount: 15000}}, items)

	if len(report.PopularItems) != 1 {
		t.Fatalf("expected 1 popular item, got %d", len(report.PopularItems))
	}
	if report.PopularItems[0].Name != "menu #42" {
		t.Errorf("deleted menu should fall back to placeholder name, got %q", report.PopularItems[0].Name)
	}
}

func TestGetDailyReportExcludesCancelled(t *testing.T) {
	menus := newStubMenuRepo()
	orders := newStubOrderRepo(menus)
	svc := NewReportService(orders)

	latte := menus.add(models.MenuItem{Name: "Latte", Price: 25000, Category: models.CategoryCoffee, IsAvailable: true})
	today := time.Now().Format("2006-01-02")

	keptID, _ := orders.CreateOrder(&models.Order{TableID: 1, Status: StatusDelivered, TotalAmount: 50000})
	_ = orders.CreateOrderItems([]models.OrderItem{{OrderID: keptID, MenuID: latte.ID, Quantity: 2, Price: 25000}})

	cancelledID, _ := orders.CreateOrder(&models.Order{TableID: 1, Status: StatusCancelled, TotalAmount: 25000})
	_ = orders.CreateOrderItems([]models.OrderItem{{OrderID: cancelledID, MenuID: latte.ID, Quantity: 1, Price: 25000}})

	report, err := svc.GetDailyReport(today)
	if err != nil {
		t.Fatalf("GetDailyReport failed: %v", err)
	}
	if report.TotalOrders != 1 {
		t.Errorf("cancelled orders must be excluded, got %d orders", report.TotalOrders)
	}
	if report.TotalRevenue != 50000 {
		t.Errorf("expected revenue 50000, got %d", report.TotalRevenue)
	}
	if len(report.PopularItems) != 1 || report.PopularItems[0].TotalQuantity != 2 {
		t.Errorf("cancelled order items must be excluded, got %+v", report.PopularItems)
	}
}

func TestGetDailyReportRejectsBadDate(t *testing.T) {
	svc := NewReportService(newStubOrderRepo(nil))
	if _, err := svc.GetDailyReport("01-09-2026"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for bad date, got %v", err)
	}
}

func TestGetDashboardSummary(t *testing.T) {
	menus := newStubMenuRepo()
	orders := newStubOrderRepo(menus)
	svc := NewReportService(orders)

	_, _ = orders.CreateOrder(&models.Order{TableID: 1, Status: StatusPending, TotalAmount: 10000})
	_, _ = orders.CreateOrder(&models.Order{TableID: 1, Status: StatusPreparing, TotalAmount: 20000})
	_, _ = orders.CreateOrder(&models.Order{TableID: 2, Status: StatusDelivered, TotalAmount: 30000})
	_, _ = orders.CreateOrder(&models.Order{TableID: 2, Status: StatusCancelled, TotalAmount: 40000})

	summary, err := svc.GetDashboardSummary()
	if err != nil {
		t.Fatalf("GetDashboardSummary failed: %v", err)
	}
	if summary.PendingOrdersCount != 1 {
		t.Errorf("expected 1 pending, got %d", summary.PendingOrdersCount)
	}
	if summary.ActiveOrdersCount != 2 {
		t.Errorf("expected 2 active, got %d", summary.ActiveOrdersCount)
	}
	if summary.OrdersToday != 3 {
		t.Errorf("cancelled orders excluded from today's count, got %d", summary.OrdersToday)
	}
	if summary.TotalSalesToday != 60000 {
		t.Errorf("expected sales 60000, got %d", summary.TotalSalesToday)
	}
}
