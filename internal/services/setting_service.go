package services

import (
	"errors"
	"fmt"
	"strconv"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
)

var (
	ErrSettingNotFound = errors.New("setting not found")
	ErrSettingValue    = errors.New("invalid setting value")
)

// UpsertSettingRequest carries one key-value pair from the admin settings
// screen.
type UpsertSettingRequest struct {
	SettingKey   string  `json:"setting_key" binding:"required"`
	SettingValue *string `json:"setting_value"`
	Description  *string `json:"description"`
}

// --- SettingService Interface ---

type SettingService interface {
	GetSettings() ([]models.ApplicationSetting, error)
	GetSettingByKey(key string) (*models.ApplicationSetting, error)
	UpsertSetting(req UpsertSettingRequest) (*models.ApplicationSetting, error)
	DeleteSettingByKey(key string) error
}

type settingService struct {
	settingRepo repositories.SettingRepository
}

// NewSettingService creates a new instance of SettingService.
func NewSettingService(sr repositories.SettingRepository) SettingService {
	return &settingService{settingRepo: sr}
}

func (s *settingService) GetSettings() ([]models.ApplicationSetting, error) {
	settings, err := s.settingRepo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

func (s *settingService) GetSettingByKey(key string) (*models.ApplicationSetting, error) {
	setting, err := s.settingRepo.GetSettingByKey(key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return nil, err
	}
	return setting, nil
}

func (s *settingService) UpsertSetting(req UpsertSettingRequest) (*models.ApplicationSetting, error) {
	if req.SettingKey == "" {
		return nil, fmt.Errorf("%w: setting key is required", ErrValidation)
	}
	if err := validateSettingValue(req.SettingKey, req.SettingValue); err != nil {
		return nil, err
	}

	setting := &models.ApplicationSetting{
		SettingKey:   req.SettingKey,
		SettingValue: req.SettingValue,
		Description:  req.Description,
	}
	if err := s.settingRepo.UpsertSetting(setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *settingService) DeleteSettingByKey(key string) error {
	if err := s.settingRepo.DeleteSettingByKey(key); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return err
	}
	return nil
}

// validateSettingValue enforces value shapes for the well-known keys. Unknown
// keys are stored as-is.
func validateSettingValue(key string, value *string) error {
	if value == nil {
		return nil
	}
	switch key {
	case models.SettingEnableNotifications:
		if *value != "true" && *value != "false" {
			return fmt.Errorf("%w: %s must be true or false", ErrSettingValue, key)
		}
	case models.SettingAutoRefreshInterval, models.SettingMaxOrdersPerTable:
		parsed, err := strconv.Atoi(*value)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", ErrSettingValue, key)
		}
	case models.SettingDefaultCategory:
		if !models.IsValidMenuCategory(*value) {
			return fmt.Errorf("%w: %s must be a valid menu category", ErrSettingValue, key)
		}
	}
	return nil
}
