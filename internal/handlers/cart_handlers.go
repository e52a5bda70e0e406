package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_order_backend/internal/middleware"
	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/services"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartSessionHeader carries the opaque customer session key. The first cart
// operation without one gets a fresh key back in the same header; the client
// echoes it on every later call.
const CartSessionHeader = "X-Cart-Session"

// CartHandler serves the customer-facing flow behind a table QR token:
// menu browsing, cart mutation, and checkout.
type CartHandler struct {
	carts        *services.CartBank
	tableService services.TableService
	menuService  services.MenuService
	orderService services.OrderService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cb *services.CartBank, ts services.TableService, ms services.MenuService, os services.OrderService) *CartHandler {
	return &CartHandler{carts: cb, tableService: ts, menuService: ms, orderService: os}
}

// AddCartItemRequest adds one menu item to the cart.
type AddCartItemRequest struct {
	MenuID       int64  `json:"menu_id" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,gt=0"`
	SpecialNotes string `json:"special_notes"`
}

// UpdateCartItemRequest edits a cart line. Quantity zero removes the line.
type UpdateCartItemRequest struct {
	Quantity     *int    `json:"quantity"`
	SpecialNotes *string `json:"special_notes"`
}

// CheckoutRequest carries order-level notes for checkout.
type CheckoutRequest struct {
	SpecialNotes *string `json:"special_notes"`
}

// CartResponse is the cart snapshot returned after every cart operation.
type CartResponse struct {
	Items []services.CartItem `json:"items"`
	Total int64               `json:"total"`
}

// GetTableContext resolves the QR token into the table the customer scanned.
func (h *CartHandler) GetTableContext(c *gin.Context) {
	table, ok := h.resolveTable(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, table)
}

// GetMenu lists the available menu for the customer view.
func (h *CartHandler) GetMenu(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}

	available := true
	filters := models.MenuFilters{Available: &available}
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	items, err := h.menuService.GetMenuItems(filters)
	if err != nil {
		utils.LogError(err, "GetMenu: Error from menuService.GetMenuItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GetCart returns the current cart snapshot for the session.
func (h *CartHandler) GetCart(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}
	cart := h.carts.Get(h.sessionKey(c))
	c.JSON(http.StatusOK, cartSnapshot(cart))
}

// AddCartItem adds a menu item to the session's cart. Adding an item already
// in the cart merges by incrementing the quantity; existing notes stay.
func (h *CartHandler) AddCartItem(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AddCartItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.menuService.GetMenuItemByID(req.MenuID)
	if err != nil {
		utils.LogError(err, "AddCartItem: Error from menuService.GetMenuItemByID")
		if errors.Is(err, services.ErrMenuNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu item.", "Internal error"))
		}
		return
	}
	if !item.IsAvailable {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu item is not available.", item.Name))
		return
	}

	cart := h.carts.Get(h.sessionKey(c))
	cart.AddItem(*item, req.Quantity, req.SpecialNotes)
	c.JSON(http.StatusOK, cartSnapshot(cart))
}

// UpdateCartItem edits quantity or notes for one cart line.
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}

	menuID, err := strconv.ParseInt(c.Param("menu_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateCartItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	cart := h.carts.Get(h.sessionKey(c))
	if req.Quantity != nil {
		cart.UpdateQuantity(menuID, *req.Quantity)
	}
	if req.SpecialNotes != nil {
		cart.UpdateNotes(menuID, *req.SpecialNotes)
	}
	c.JSON(http.StatusOK, cartSnapshot(cart))
}

// RemoveCartItem drops one cart line.
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}

	menuID, err := strconv.ParseInt(c.Param("menu_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	cart := h.carts.Get(h.sessionKey(c))
	cart.RemoveItem(menuID)
	c.JSON(http.StatusOK, cartSnapshot(cart))
}

// ClearCart empties the session's cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	if _, ok := h.resolveTable(c); !ok {
		return
	}
	cart := h.carts.Get(h.sessionKey(c))
	cart.Clear()
	c.JSON(http.StatusOK, cartSnapshot(cart))
}

// Checkout places the cart as an order for the scanned table and drops the
// cart on success. Stock bookkeeping warnings come back alongside the order;
// they do not mean the order failed.
func (h *CartHandler) Checkout(c *gin.Context) {
	table, ok := h.resolveTable(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.LogError(err, "Checkout: Failed to bind JSON")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}

	sessionKey := h.sessionKey(c)
	cart, ok := h.carts.Peek(sessionKey)
	if !ok || cart.Len() == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Cart is empty.", "add at least one item before checkout"))
		return
	}

	result, err := h.orderService.PlaceOrder(services.PlaceOrderRequest{
		TableID:      table.ID,
		SpecialNotes: req.SpecialNotes,
		Items:        cart.Items(),
	})
	if err != nil {
		utils.LogError(err, "Checkout: Error from orderService.PlaceOrder")
		middleware.RecordOrderOperation("place", "rejected")
		switch {
		case errors.Is(err, services.ErrInsufficientStock):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock for one or more items.", err.Error()))
		case errors.Is(err, services.ErrMenuItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "One or more items are no longer on the menu.", err.Error()))
		case errors.Is(err, services.ErrTableOrderLimit):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table has too many active orders.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid checkout request.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to place order.", "Internal error"))
		}
		return
	}

	middleware.RecordOrderOperation("place", "success")
	h.carts.Drop(sessionKey)
	c.JSON(http.StatusCreated, result)
}

// GetOrder serves customer order tracking. The order must belong to the
// scanned table; the QR token is the only credential a customer has.
func (h *CartHandler) GetOrder(c *gin.Context) {
	table, ok := h.resolveTable(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		utils.LogError(err, "GetOrder: Error from orderService.GetOrderByID")
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		}
		return
	}
	if order.TableID != table.ID {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", "order does not belong to this table"))
		return
	}
	c.JSON(http.StatusOK, order)
}

// resolveTable maps the qr_token path param to an active table, writing the
// error response itself when it fails.
func (h *CartHandler) resolveTable(c *gin.Context) (*models.Table, bool) {
	token := c.Param("qr_token")
	table, err := h.tableService.ResolveTableByToken(token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown QR code.", "no table for this token"))
		case errors.Is(err, services.ErrTableInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Table is not accepting orders.", "table is deactivated"))
		default:
			utils.LogError(err, "resolveTable: Error from tableService.ResolveTableByToken")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve table.", "Internal error"))
		}
		return nil, false
	}
	return table, true
}

// sessionKey returns the cart key for this request, minting a session ID when
// the client has none yet. The key is scoped by QR token so sessions at
// different tables never collide.
func (h *CartHandler) sessionKey(c *gin.Context) string {
	session := c.GetHeader(CartSessionHeader)
	if session == "" {
		session = uuid.NewString()
	}
	c.Header(CartSessionHeader, session)
	return c.Param("qr_token") + ":" + session
}

func cartSnapshot(cart *services.Cart) CartResponse {
	return CartResponse{Items: cart.Items(), Total: cart.Total()}
}
