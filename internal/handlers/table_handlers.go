package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/services"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table service.
type TableHandler struct {
	tableService    services.TableService
	customerBaseURL string
}

// NewTableHandler creates a new TableHandler. Responses carry the customer
// URL each QR code should point at, built from CUSTOMER_BASE_URL.
func NewTableHandler(ts services.TableService) *TableHandler {
	return &TableHandler{
		tableService:    ts,
		customerBaseURL: utils.Getenv("CUSTOMER_BASE_URL", "http://localhost:5173"),
	}
}

func (h *TableHandler) withCustomerURL(table *models.Table) *models.Table {
	table.CustomerURL = h.customerBaseURL + "/table/" + table.QRToken
	return table
}

// CreateTable registers a new table and mints its QR token.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateTable: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.CreateTable(req)
	if err != nil {
		utils.LogError(err, "CreateTable: Error from tableService.CreateTable")
		if errors.Is(err, services.ErrTableNumberExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Table number already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table fields.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, h.withCustomerURL(table))
}

// GetTables lists tables, optionally filtered by active state.
func (h *TableHandler) GetTables(c *gin.Context) {
	var filters models.TableFilters
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid active format.", err.Error()))
			return
		}
		filters.Active = &active
	}

	tables, err := h.tableService.GetTables(filters)
	if err != nil {
		utils.LogError(err, "GetTables: Error from tableService.GetTables")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tables.", "Internal error"))
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	for i := range tables {
		h.withCustomerURL(&tables[i])
	}
	c.JSON(http.StatusOK, tables)
}

// GetTableByID fetches a single table.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	tableID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	table, err := h.tableService.GetTableByID(tableID)
	if err != nil {
		utils.LogError(err, "GetTableByID: Error from tableService.GetTableByID")
		respondTableError(c, err, "Failed to fetch table.")
		return
	}
	c.JSON(http.StatusOK, h.withCustomerURL(table))
}

// RegenerateQRToken mints a fresh QR token for a table, invalidating printed
// codes.
func (h *TableHandler) RegenerateQRToken(c *gin.Context) {
	tableID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	table, err := h.tableService.RegenerateQRToken(tableID)
	if err != nil {
		utils.LogError(err, "RegenerateQRToken: Error from tableService.RegenerateQRToken")
		respondTableError(c, err, "Failed to regenerate QR token.")
		return
	}
	c.JSON(http.StatusOK, h.withCustomerURL(table))
}

// SetTableActiveRequest toggles whether a table accepts new sessions.
type SetTableActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetTableActive activates or deactivates a table.
func (h *TableHandler) SetTableActive(c *gin.Context) {
	tableID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	var req SetTableActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SetTableActive: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.SetTableActive(tableID, *req.IsActive)
	if err != nil {
		utils.LogError(err, "SetTableActive: Error from tableService.SetTableActive")
		respondTableError(c, err, "Failed to update table.")
		return
	}
	c.JSON(http.StatusOK, h.withCustomerURL(table))
}

// DeleteTable removes a table.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	tableID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table ID format.", err.Error()))
		return
	}

	if err := h.tableService.DeleteTable(tableID); err != nil {
		utils.LogError(err, "DeleteTable: Error from tableService.DeleteTable")
		respondTableError(c, err, "Failed to delete table.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

func respondTableError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrTableNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}
