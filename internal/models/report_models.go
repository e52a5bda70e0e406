package models

// PopularItem is one row of the top-N ranking in a daily sales report,
// grouped by menu item name.
type PopularItem struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	TotalQuantity int    `json:"total_quantity"`
	TotalRevenue  int64  `json:"total_revenue"`
}

// DailyReport aggregates a single local calendar day of orders.
// Cancelled orders are excluded from revenue and order count.
type DailyReport struct {
	Date              string        `json:"date"` // YYYY-MM-DD
	TotalOrders       int           `json:"total_orders"`
	TotalRevenue      int64         `json:"total_revenue"`
	AverageOrderValue float64       `json:"average_order_value"`
	PopularItems      []PopularItem `json:"popular_items"`
}
