package handlers

import (
	"errors"
	"net/http"

	"cafe_order_backend/internal/services"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingHandler holds the setting service.
type SettingHandler struct {
	settingService services.SettingService
}

// NewSettingHandler creates a new SettingHandler.
func NewSettingHandler(ss services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: ss}
}

// GetSettings lists all application settings.
func (h *SettingHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingService.GetSettings()
	if err != nil {
		utils.LogError(err, "GetSettings: Error from settingService.GetSettings")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch settings.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetSettingByKey fetches a single setting.
func (h *SettingHandler) GetSettingByKey(c *gin.Context) {
	key := c.Param("key")
	setting, err := h.settingService.GetSettingByKey(key)
	if err != nil {
		utils.LogError(err, "GetSettingByKey: Error from settingService.GetSettingByKey for key "+key)
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Setting not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates or replaces one setting.
func (h *SettingHandler) UpsertSetting(c *gin.Context) {
	var req services.UpsertSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpsertSetting: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	setting, err := h.settingService.UpsertSetting(req)
	if err != nil {
		utils.LogError(err, "UpsertSetting: Error from settingService.UpsertSetting")
		if errors.Is(err, services.ErrSettingValue) || errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid setting value.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// DeleteSettingByKey removes one setting; readers fall back to defaults.
func (h *SettingHandler) DeleteSettingByKey(c *gin.Context) {
	key := c.Param("key")
	if err := h.settingService.DeleteSettingByKey(key); err != nil {
		utils.LogError(err, "DeleteSettingByKey: Error from settingService.DeleteSettingByKey for key "+key)
		if errors.Is(err, services.ErrSettingNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Setting not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete setting.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Setting deleted successfully"})
}
