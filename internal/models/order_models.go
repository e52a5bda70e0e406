package models

import "time"

// Order is a customer's placed request, tied to one table. TotalAmount is
// fixed at placement time and never recomputed from current menu prices.
type Order struct {
	ID           int64       `json:"id"`
	TableID      int64       `json:"table_id" db:"table_id"`
	Status       string      `json:"status" db:"status"`
	TotalAmount  int64       `json:"total_amount" db:"total_amount"`
	SpecialNotes *string     `json:"special_notes,omitempty" db:"special_notes"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
	Table        *Table      `json:"table,omitempty"`
	OrderItems   []OrderItem `json:"order_items,omitempty"`
}

// OrderItem is one line of an order. Price is a snapshot of the menu price at
// order time; later menu edits must not change it.
type OrderItem struct {
	ID           int64     `json:"id"`
	OrderID      int64     `json:"order_id" db:"order_id"`
	MenuID       int64     `json:"menu_id" db:"menu_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Price        int64     `json:"price" db:"price"`
	SpecialNotes *string   `json:"special_notes,omitempty" db:"special_notes"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	MenuItem     *MenuItem `json:"menu,omitempty"`
}

// OrderFilters defines the available filters for querying orders.
// NotStatuses excludes orders in any of the given statuses (negation
// predicate); Date selects a local calendar day, end exclusive.
type OrderFilters struct {
	TableID     *int64   `form:"table_id"`
	Status      *string  `form:"status"`
	NotStatuses []string `form:"-"`
	Date        *string  `form:"date"` // YYYY-MM-DD
	Page        int      `form:"page"`
	PageSize    int      `form:"page_size"`
}
