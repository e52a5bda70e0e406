package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
	"cafe_order_backend/internal/services"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// CreateMenuItem handles creating a new menu item.
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var req services.CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateMenuItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.menuService.CreateMenuItem(req)
	if err != nil {
		utils.LogError(err, "CreateMenuItem: Error from menuService.CreateMenuItem")
		respondMenuError(c, err, "Failed to create menu item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetMenuItems handles listing menu items with filters.
func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	var filters models.MenuFilters
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if availableStr := c.Query("available"); availableStr != "" {
		available, err := strconv.ParseBool(availableStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid available format.", err.Error()))
			return
		}
		filters.Available = &available
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	items, err := h.menuService.GetMenuItems(filters)
	if err != nil {
		utils.LogError(err, "GetMenuItems: Error from menuService.GetMenuItems")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu items.", "Internal error"))
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GetMenuItemByID handles fetching a single menu item.
func (h *MenuHandler) GetMenuItemByID(c *gin.Context) {
	menuID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	item, err := h.menuService.GetMenuItemByID(menuID)
	if err != nil {
		utils.LogError(err, "GetMenuItemByID: Error from menuService.GetMenuItemByID")
		respondMenuError(c, err, "Failed to fetch menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateMenuItem handles editing a menu item. Omitted fields keep their
// current values.
func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	menuID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	var req services.UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateMenuItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	item, err := h.menuService.UpdateMenuItem(menuID, req)
	if err != nil {
		utils.LogError(err, "UpdateMenuItem: Error from menuService.UpdateMenuItem")
		respondMenuError(c, err, "Failed to update menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMenuItem handles deleting a menu item. Historical order lines keep
// their price snapshots.
func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	menuID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	if err := h.menuService.DeleteMenuItem(menuID); err != nil {
		utils.LogError(err, "DeleteMenuItem: Error from menuService.DeleteMenuItem")
		respondMenuError(c, err, "Failed to delete menu item.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted successfully"})
}

// AdjustStock handles a manual stock correction by staff.
func (h *MenuHandler) AdjustStock(c *gin.Context) {
	menuID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item ID format.", err.Error()))
		return
	}

	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AdjustStock: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	adjustment, err := h.menuService.AdjustStock(menuID, req.Delta)
	if err != nil {
		utils.LogError(err, "AdjustStock: Error from menuService.AdjustStock")
		if errors.Is(err, repositories.ErrStockInsufficient) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Stock cannot go below zero.", err.Error()))
		} else if errors.Is(err, repositories.ErrStockNotTracked) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu item does not track stock.", err.Error()))
		} else {
			respondMenuError(c, err, "Failed to adjust stock.")
		}
		return
	}
	c.JSON(http.StatusOK, adjustment)
}

// GetStockMovements lists recent stock movement audit rows.
func (h *MenuHandler) GetStockMovements(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid limit format.", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	movements, err := h.menuService.GetStockMovements(limit)
	if err != nil {
		utils.LogError(err, "GetStockMovements: Error from menuService.GetStockMovements")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock movements.", "Internal error"))
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, movements)
}

func respondMenuError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrMenuNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, services.ErrMenuNameExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu item name already exists.", err.Error()))
	case errors.Is(err, services.ErrInvalidCategory), errors.Is(err, services.ErrInvalidMenuFields):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu item fields.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}
