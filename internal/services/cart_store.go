package services

import (
	"sync"

	"cafe_order_backend/internal/models"
)

// CartItem is one line of an in-progress selection. It exists only in memory
// for the duration of a single ordering session and is transformed into order
// rows at checkout.
type CartItem struct {
	MenuItem     models.MenuItem `json:"menu"`
	Quantity     int             `json:"quantity"`
	SpecialNotes string          `json:"special_notes,omitempty"`
}

// Cart holds the customer's selection for one table session. All mutations
// recompute the total from scratch rather than adjusting it incrementally, so
// the total can never drift from the item list.
type Cart struct {
	mu    sync.Mutex
	items []CartItem
	total int64
}

// NewCart creates an empty cart. Each customer session gets its own instance;
// there is no process-wide cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddItem appends a new line, or merges into an existing line for the same
// menu item by incrementing its quantity. A merge leaves existing notes
// untouched.
func (c *Cart) AddItem(item models.MenuItem, quantity int, notes string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].MenuItem.ID == item.ID {
			c.items[i].Quantity += quantity
			c.recomputeTotal()
			return
		}
	}
	c.items = append(c.items, CartItem{MenuItem: item, Quantity: quantity, SpecialNotes: notes})
	c.recomputeTotal()
}

// RemoveItem drops the line for the given menu item. No-op if absent.
func (c *Cart) RemoveItem(menuID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.MenuItem.ID != menuID {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.recomputeTotal()
}

// UpdateQuantity sets the quantity for a line. A quantity of zero or less
// means "remove the line", not an error.
func (c *Cart) UpdateQuantity(menuID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.items[:0]
	for _, item := range c.items {
		if item.MenuItem.ID == menuID {
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		kept = append(kept, item)
	}
	c.items = kept
	c.recomputeTotal()
}

// UpdateNotes replaces the free-text notes for a line.
func (c *Cart) UpdateNotes(menuID int64, notes string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].MenuItem.ID == menuID {
			c.items[i].SpecialNotes = notes
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.total = 0
}

// Items returns a copy of the cart lines.
func (c *Cart) Items() []CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]CartItem, len(c.items))
	copy(items, c.items)
	return items
}

// Total returns the current cart total.
func (c *Cart) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) recomputeTotal() {
	var total int64
	for _, item := range c.items {
		total += item.MenuItem.Price * int64(item.Quantity)
	}
	c.total = total
}

// CartBank holds one Cart per active customer session, keyed by an opaque
// session key scoped to a table. Carts are created lazily and dropped on
// checkout, so concurrent table sessions never share state.
type CartBank struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

// NewCartBank creates an empty CartBank.
func NewCartBank() *CartBank {
	return &CartBank{carts: make(map[string]*Cart)}
}

// Get returns the cart for a session key, creating it if needed.
func (b *CartBank) Get(sessionKey string) *Cart {
	b.mu.Lock()
	defer b.mu.Unlock()

	cart, ok := b.carts[sessionKey]
	if !ok {
		cart = NewCart()
		b.carts[sessionKey] = cart
	}
	return cart
}

// Peek returns the cart for a session key without creating one.
func (b *CartBank) Peek(sessionKey string) (*Cart, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cart, ok := b.carts[sessionKey]
	return cart, ok
}

// Drop removes a session's cart, e.g. after a successful checkout.
func (b *CartBank) Drop(sessionKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.carts, sessionKey)
}
