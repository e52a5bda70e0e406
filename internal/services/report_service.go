package services

import (
	"fmt"
	"sort"
	"time"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
)

// topItemsLimit caps the popular-items ranking in daily reports.
const topItemsLimit = 10

// --- ReportService Interface ---

type ReportService interface {
	GetDailyReport(date string) (*models.DailyReport, error)
	GetDashboardSummary() (*DashboardSummary, error)
}

// DashboardSummary holds the headline numbers for the admin dashboard.
type DashboardSummary struct {
	PendingOrdersCount int   `json:"pending_orders_count"`
	ActiveOrdersCount  int   `json:"active_orders_count"`
	TotalSalesToday    int64 `json:"total_sales_today"`
	OrdersToday        int   `json:"orders_today"`
}

type reportService struct {
	orderRepo repositories.OrderRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(or repositories.OrderRepository) ReportService {
	return &reportService{orderRepo: or}
}

// GetDailyReport aggregates one local calendar day of orders (end exclusive).
// Cancelled orders are excluded throughout.
func (s *reportService) GetDailyReport(date string) (*models.DailyReport, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	filters := models.OrderFilters{
		Date:        &date,
		NotStatuses: []string{StatusCancelled},
	}
	orders, _, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for report: %w", err)
	}

	orderIDs := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}
	items, err := s.orderRepo.GetOrderItemsForOrders(orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items for report: %w", err)
	}

	report := BuildDailyReport(date, orders, items)
	return report, nil
}

// BuildDailyReport is the pure aggregation over a closed set of orders and
// their items: order count, revenue, average order value, and the top-10
// items by quantity sold, grouped by item name. Ranking ties are broken by
// first appearance in item scan order (order id, then line id), which keeps
// the result deterministic across runs.
func BuildDailyReport(date string, orders []models.Order, items []models.OrderItem) *models.DailyReport {
	report := &models.DailyReport{
		Date:         date,
		TotalOrders:  len(orders),
		PopularItems: []models.PopularItem{},
	}

	for _, o := range orders {
		report.TotalRevenue += o.TotalAmount
	}
	if report.TotalOrders > 0 {
		report.AverageOrderValue = float64(report.TotalRevenue) / float64(report.TotalOrders)
	}

	type itemAgg struct {
		models.PopularItem
		firstSeen int
	}
	byName := make(map[string]*itemAgg)
	order := make([]*itemAgg, 0)

	for i, item := range items {
		name := fmt.Sprintf("menu #%d", item.MenuID) // deleted menu rows lose their name
		category := ""
		if item.MenuItem != nil {
			name = item.MenuItem.Name
			category = item.MenuItem.Category
		}
		agg, ok := byName[name]
		if !ok {
			agg = &itemAgg{PopularItem: models.PopularItem{Name: name, Category: category}, firstSeen: i}
			byName[name] = agg
			order = append(order, agg)
		}
		agg.TotalQuantity += item.Quantity
		agg.TotalRevenue += item.Price * int64(item.Quantity)
	}

	sort.SliceStable(order, func(a, b int) bool {
		if order[a].TotalQuantity != order[b].TotalQuantity {
			return order[a].TotalQuantity > order[b].TotalQuantity
		}
		return order[a].firstSeen < order[b].firstSeen
	})

	for i, agg := range order {
		if i >= topItemsLimit {
			break
		}
		report.PopularItems = append(report.PopularItems, agg.PopularItem)
	}
	return report
}

// GetDashboardSummary computes the headline counts for the admin dashboard.
func (s *reportService) GetDashboardSummary() (*DashboardSummary, error) {
	summary := &DashboardSummary{}

	pending := StatusPending
	_, pendingCount, err := s.orderRepo.GetOrders(models.OrderFilters{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}
	summary.PendingOrdersCount = pendingCount

	_, activeCount, err := s.orderRepo.GetOrders(models.OrderFilters{
		NotStatuses: []string{StatusDelivered, StatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count active orders: %w", err)
	}
	summary.ActiveOrdersCount = activeCount

	today := time.Now().Format("2006-01-02")
	todayOrders, todayCount, err := s.orderRepo.GetOrders(models.OrderFilters{
		Date:        &today,
		NotStatuses: []string{StatusCancelled},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query today's orders: %w", err)
	}
	summary.OrdersToday = todayCount
	for _, o := range todayOrders {
		summary.TotalSalesToday += o.TotalAmount
	}

	return summary, nil
}
