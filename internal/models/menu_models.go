package models

import "time"

// Menu categories form a fixed label set; CreateMenuItem rejects anything else.
const (
	CategoryCoffee  = "Coffee"
	CategoryFood    = "Food"
	CategoryDrink   = "Drink"
	CategorySnack   = "Snack"
	CategoryDessert = "Dessert"
)

// MenuCategories lists all valid categories in display order.
var MenuCategories = []string{CategoryCoffee, CategoryFood, CategoryDrink, CategorySnack, CategoryDessert}

// IsValidMenuCategory reports whether category belongs to the fixed label set.
func IsValidMenuCategory(category string) bool {
	for _, c := range MenuCategories {
		if c == category {
			return true
		}
	}
	return false
}

// categoryDefaultImages maps each category to the fallback image served when a
// menu item has no image of its own.
var categoryDefaultImages = map[string]string{
	CategoryCoffee:  "/images/defaults/coffee.jpg",
	CategoryFood:    "/images/defaults/food.jpg",
	CategoryDrink:   "/images/defaults/drink.jpg",
	CategorySnack:   "/images/defaults/snack.jpg",
	CategoryDessert: "/images/defaults/dessert.jpg",
}

// DefaultImageURL returns the fallback image for a category.
func DefaultImageURL(category string) string {
	if url, ok := categoryDefaultImages[category]; ok {
		return url
	}
	return "/images/defaults/food.jpg"
}

// MenuItem represents a sellable product. Price is an integer currency unit
// (rupiah). StockQuantity is nil for untracked items; a non-nil value is kept
// non-negative by the atomic stock adjustment in the repository.
type MenuItem struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name" db:"name"`
	Description   *string   `json:"description,omitempty" db:"description"`
	Price         int64     `json:"price" db:"price"`
	Category      string    `json:"category" db:"category"`
	IsAvailable   bool      `json:"is_available" db:"is_available"`
	StockQuantity *int      `json:"stock_quantity" db:"stock_quantity"`
	ImageURL      *string   `json:"image_url,omitempty" db:"image_url"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// TracksStock reports whether stock accounting applies to this item.
func (m *MenuItem) TracksStock() bool {
	return m.StockQuantity != nil
}

// MenuFilters defines the available filters for querying menu items.
type MenuFilters struct {
	Category  *string `form:"category"`
	Available *bool   `form:"available"`
	Search    *string `form:"search"`
}

// StockAdjustment is the result of the atomic stock adjustment operation.
type StockAdjustment struct {
	MenuID   int64 `json:"menu_id"`
	OldStock int   `json:"old_stock"`
	NewStock int   `json:"new_stock"`
}

// StockMovement is an audit row appended for every stock change, whether from
// an order, a cancellation return, or a manual correction by staff.
type StockMovement struct {
	ID        int64     `json:"id"`
	MenuID    int64     `json:"menu_id" db:"menu_id"`
	OrderID   *int64    `json:"order_id,omitempty" db:"order_id"`
	Delta     int       `json:"delta" db:"delta"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	MenuName  *string   `json:"menu_name,omitempty"`
}

// Stock movement reasons.
const (
	MovementReasonSale       = "sale"
	MovementReasonReturn     = "cancellation_return"
	MovementReasonCorrection = "manual_correction"
)
