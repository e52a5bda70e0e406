package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cafe_order_backend/internal/events"
	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
	"cafe_order_backend/pkg/utils"
)

// Custom service errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrMenuItemNotFound   = errors.New("menu item not found or not available")
	ErrInsufficientStock  = errors.New("insufficient stock for item")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrTableOrderLimit    = errors.New("table has reached the maximum number of active orders")
)

// Order status constants.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

const defaultMaxOrdersPerTable = 10

// stockAdjustAttempts bounds retries of the best-effort stock adjustment in
// checkout step 4 and cancellation step 2.
const stockAdjustAttempts = 3

// statusTransitions is the single source of truth for the order state
// machine: pending → preparing → ready → delivered, with cancelled reachable
// from every non-terminal state. delivered and cancelled are terminal.
var statusTransitions = map[string][]string{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// IsValidOrderStatus reports whether status names a known state.
func IsValidOrderStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// CanTransition reports whether from → to is a legal status transition.
func CanTransition(from, to string) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// NextStatus returns the next status on the linear happy path, or "" when the
// state is terminal. UIs render no next-step action for "".
func NextStatus(current string) string {
	switch current {
	case StatusPending:
		return StatusPreparing
	case StatusPreparing:
		return StatusReady
	case StatusReady:
		return StatusDelivered
	default:
		return ""
	}
}

// --- DTOs ---

// PlaceOrderRequest carries a checkout: the cart lines plus order-level notes.
type PlaceOrderRequest struct {
	TableID      int64
	SpecialNotes *string
	Items        []CartItem
}

// PlaceOrderResult is a placed order plus non-fatal stock bookkeeping
// warnings. Warnings never mean the order failed.
type PlaceOrderResult struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// UpdateStatusResult is the updated order plus non-fatal stock restoration
// warnings from a cancellation.
type UpdateStatusResult struct {
	Order    *models.Order `json:"order"`
	Warnings []string      `json:"warnings,omitempty"`
}

// --- OrderService Interface ---

type OrderService interface {
	PlaceOrder(req PlaceOrderRequest) (*PlaceOrderResult, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	UpdateOrderStatus(orderID int64, newStatus string) (*UpdateStatusResult, error)
	CancelOrphanOrders(grace time.Duration) (int, error)
	StartOrphanSweeper(ctx context.Context, interval, grace time.Duration)
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	menuRepo     repositories.MenuRepository
	movementRepo repositories.StockMovementRepository
	settingRepo  repositories.SettingRepository
	hub          *events.Hub
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	smr repositories.StockMovementRepository,
	sr repositories.SettingRepository,
	hub *events.Hub,
) OrderService {
	return &orderService{
		orderRepo:    or,
		menuRepo:     mr,
		movementRepo: smr,
		settingRepo:  sr,
		hub:          hub,
	}
}

// PlaceOrder runs the checkout protocol as sequential best-effort steps:
// advisory stock pre-check, order row, item rows, then atomic stock
// decrements. There is no cross-step transaction; a failure after the order
// row is created leaves an orphan for the sweeper, and stock decrement
// failures are reported as warnings rather than rolling back the placed
// order.
func (s *orderService) PlaceOrder(req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for item %q must be positive", ErrValidation, item.MenuItem.Name)
		}
	}

	if err := s.checkTableOrderLimit(req.TableID); err != nil {
		return nil, err
	}

	// Step 1: advisory pre-check against current stock. The atomic decrement
	// below is the real source of truth; this rejects the common case early
	// so the customer sees which line is short before any row exists.
	for _, item := range req.Items {
		current, err := s.menuRepo.ReadStock(item.MenuItem.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: %q (ID %d)", ErrMenuItemNotFound, item.MenuItem.Name, item.MenuItem.ID)
			}
			return nil, fmt.Errorf("failed to read stock for item %q: %w", item.MenuItem.Name, err)
		}
		if current != nil && *current < item.Quantity {
			return nil, fmt.Errorf("%w: %q has %d left, requested %d",
				ErrInsufficientStock, item.MenuItem.Name, *current, item.Quantity)
		}
	}

	// Step 2: create the order row with the total computed from the cart.
	var totalAmount int64
	for _, item := range req.Items {
		totalAmount += item.MenuItem.Price * int64(item.Quantity)
	}
	order := &models.Order{
		TableID:      req.TableID,
		Status:       StatusPending,
		TotalAmount:  totalAmount,
		SpecialNotes: req.SpecialNotes,
	}
	orderID, err := s.orderRepo.CreateOrder(order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}

	// Step 3: item rows with price and notes snapshots. If this fails the
	// order row stays behind; the orphan sweeper cancels it later.
	orderItems := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		orderItems = append(orderItems, models.OrderItem{
			OrderID:      orderID,
			MenuID:       item.MenuItem.ID,
			Quantity:     item.Quantity,
			Price:        item.MenuItem.Price,
			SpecialNotes: utils.NewNullString(item.SpecialNotes),
		})
	}
	if err := s.orderRepo.CreateOrderItems(orderItems); err != nil {
		return nil, fmt.Errorf("failed to create order items for order %d: %w", orderID, err)
	}

	// Step 4: best-effort atomic stock decrements. The order is already
	// placed; failures are collected for staff follow-up, never rolled back.
	var warnings []string
	for _, item := range req.Items {
		if !item.MenuItem.TracksStock() {
			continue
		}
		if err := s.adjustStockWithRetry(item.MenuItem.ID, -item.Quantity, orderID, models.MovementReasonSale); err != nil {
			utils.LogWarn("Stock decrement failed after order placement", map[string]interface{}{
				"order_id": orderID, "menu_id": item.MenuItem.ID, "error": err.Error(),
			})
			warnings = append(warnings, fmt.Sprintf("stock update failed for %q: %v", item.MenuItem.Name, err))
		}
	}

	placed, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload placed order %d: %w", orderID, err)
	}

	s.hub.Publish(events.Event{Kind: events.KindNewOrder, Order: placed})

	return &PlaceOrderResult{Order: placed, Warnings: warnings}, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order %d: %w", orderID, err)
	}
	order.OrderItems = items
	return order, nil
}

// UpdateOrderStatus drives the state machine. Illegal transitions are
// rejected; a transition to cancelled restores tracked stock best-effort
// before the status is written, and restoration failures never block the
// cancellation.
func (s *orderService) UpdateOrderStatus(orderID int64, newStatus string) (*UpdateStatusResult, error) {
	if !IsValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, newStatus)
	}

	currentOrder, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}

	if !CanTransition(currentOrder.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, currentOrder.Status, newStatus)
	}

	var warnings []string
	if newStatus == StatusCancelled {
		warnings, err = s.restoreStockForOrder(orderID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.UpdateOrderStatus(orderID, newStatus, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	kind := events.KindStatusUpdate
	if newStatus == StatusReady {
		kind = events.KindOrderReady
	}
	s.hub.Publish(events.Event{Kind: kind, Order: updated})

	return &UpdateStatusResult{Order: updated, Warnings: warnings}, nil
}

// restoreStockForOrder increments tracked stock for every item on the order.
// Failures are collected as warnings; they must never block the cancellation.
func (s *orderService) restoreStockForOrder(orderID int64) ([]string, error) {
	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items for stock return: %w", err)
	}

	var warnings []string
	for _, item := range items {
		if item.MenuItem == nil || !item.MenuItem.TracksStock() {
			continue
		}
		if err := s.adjustStockWithRetry(item.MenuID, item.Quantity, orderID, models.MovementReasonReturn); err != nil {
			utils.LogWarn("Stock restoration failed during cancellation", map[string]interface{}{
				"order_id": orderID, "menu_id": item.MenuID, "error": err.Error(),
			})
			warnings = append(warnings, fmt.Sprintf("stock restoration failed for %q: %v", item.MenuItem.Name, err))
		}
	}
	return warnings, nil
}

// adjustStockWithRetry applies one atomic stock adjustment with bounded
// retries, then records the movement in the audit trail. Guard rejections
// (insufficient stock, untracked item, missing item) are not retried.
func (s *orderService) adjustStockWithRetry(menuID int64, delta int, orderID int64, reason string) error {
	var lastErr error
	for attempt := 0; attempt < stockAdjustAttempts; attempt++ {
		_, err := s.menuRepo.AdjustStock(menuID, delta)
		if err == nil {
			movement := &models.StockMovement{
				MenuID:  menuID,
				OrderID: &orderID,
				Delta:   delta,
				Reason:  reason,
			}
			if _, mvErr := s.movementRepo.CreateMovement(movement); mvErr != nil {
				// Audit trail only; the adjustment itself succeeded.
				utils.LogWarn("Failed to record stock movement", map[string]interface{}{
					"menu_id": menuID, "order_id": orderID, "error": mvErr.Error(),
				})
			}
			return nil
		}
		lastErr = err
		if errors.Is(err, repositories.ErrStockInsufficient) ||
			errors.Is(err, repositories.ErrStockNotTracked) ||
			errors.Is(err, repositories.ErrNotFound) {
			return err
		}
	}
	return lastErr
}

// checkTableOrderLimit enforces the max_orders_per_table setting against the
// table's active (non-terminal) orders.
func (s *orderService) checkTableOrderLimit(tableID int64) error {
	limit := defaultMaxOrdersPerTable
	setting, err := s.settingRepo.GetSettingByKey(models.SettingMaxOrdersPerTable)
	if err == nil && setting.SettingValue != nil {
		if parsed, parseErr := strconv.Atoi(*setting.SettingValue); parseErr == nil && parsed > 0 {
			limit = parsed
		}
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		utils.LogWarn("Failed to read max_orders_per_table setting, using default", map[string]interface{}{
			"error": err.Error(),
		})
	}

	active, err := s.orderRepo.CountActiveOrdersByTable(tableID)
	if err != nil {
		return fmt.Errorf("failed to count active orders for table %d: %w", tableID, err)
	}
	if active >= limit {
		return fmt.Errorf("%w: %d active orders, limit %d", ErrTableOrderLimit, active, limit)
	}
	return nil
}

// CancelOrphanOrders cancels pending orders older than the grace period that
// have no items, the documented inconsistency window between checkout steps
// 2 and 3. Returns how many were cancelled.
func (s *orderService) CancelOrphanOrders(grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace)
	ids, err := s.orderRepo.GetOrphanOrderIDs(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find orphan orders: %w", err)
	}

	cancelled := 0
	for _, id := range ids {
		if err := s.orderRepo.UpdateOrderStatus(id, StatusCancelled, time.Now()); err != nil {
			utils.LogWarn("Failed to cancel orphan order", map[string]interface{}{
				"order_id": id, "error": err.Error(),
			})
			continue
		}
		cancelled++
		utils.LogInfo("Cancelled orphan order with no items", map[string]interface{}{"order_id": id})
	}
	return cancelled, nil
}

// StartOrphanSweeper runs CancelOrphanOrders on a ticker until ctx is done.
func (s *orderService) StartOrphanSweeper(ctx context.Context, interval, grace time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.CancelOrphanOrders(grace); err != nil {
					utils.LogError(err, "Orphan order sweep failed")
				}
			}
		}
	}()
}
