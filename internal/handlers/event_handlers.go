package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cafe_order_backend/internal/events"
	"cafe_order_backend/internal/services"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventHandler streams order events over SSE, fed by the in-process hub.
type EventHandler struct {
	hub          *events.Hub
	tableService services.TableService
	orderService services.OrderService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(hub *events.Hub, ts services.TableService, os services.OrderService) *EventHandler {
	return &EventHandler{hub: hub, tableService: ts, orderService: os}
}

// StreamOrderEvents streams status changes for one order to the customer who
// placed it. The subscriber key is derived from the cart session, so a client
// that re-subscribes for the same order reuses its existing feed instead of
// opening a second one.
func (h *EventHandler) StreamOrderEvents(c *gin.Context) {
	token := c.Param("qr_token")
	table, err := h.tableService.ResolveTableByToken(token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTableNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown QR code.", "no table for this token"))
		case errors.Is(err, services.ErrTableInactive):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Table is not accepting orders.", "table is deactivated"))
		default:
			utils.LogError(err, "StreamOrderEvents: Error from tableService.ResolveTableByToken")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve table.", "Internal error"))
		}
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order ID format.", err.Error()))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
		} else {
			utils.LogError(err, "StreamOrderEvents: Error from orderService.GetOrderByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		}
		return
	}
	if order.TableID != table.ID {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", "order does not belong to this table"))
		return
	}

	session := c.GetHeader(CartSessionHeader)
	if session == "" {
		session = uuid.NewString()
	}
	key := token + ":" + session + ":order:" + utils.Int64ToStr(orderID)

	sub := h.hub.Subscribe(key, orderID, 16)
	defer sub.Cancel()

	// The current order snapshot goes out first, so a client that connected
	// after a transition is immediately consistent.
	h.stream(c, sub, &events.Event{Kind: events.KindStatusUpdate, Order: order})
}

// StreamAllOrderEvents streams every order event to the staff dashboard.
// The key carries a per-connection nonce: keying by user alone would make a
// second dashboard tab share the first tab's subscription, splitting events
// between them and closing both feeds on the first disconnect.
func (h *EventHandler) StreamAllOrderEvents(c *gin.Context) {
	username, _ := c.Get("username")
	key := fmt.Sprintf("staff:%v:%s", username, uuid.NewString())

	sub := h.hub.Subscribe(key, 0, 64)
	defer sub.Cancel()

	h.stream(c, sub, nil)
}

// stream writes SSE frames until the client disconnects or the subscription
// channel closes. An optional initial event is sent before live events.
func (h *EventHandler) stream(c *gin.Context, sub *events.Subscription, initial *events.Event) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	if initial != nil {
		c.SSEvent(string(initial.Kind), initial)
		c.Writer.Flush()
	}

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Kind), event)
			return true
		}
	})
}
