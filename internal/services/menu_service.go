package services

import (
	"errors"
	"fmt"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"
)

var (
	ErrMenuNotFound      = errors.New("menu item not found")
	ErrMenuNameExists    = errors.New("menu item name already exists")
	ErrInvalidCategory   = errors.New("invalid menu category")
	ErrInvalidMenuFields = errors.New("invalid menu item fields")
)

// CreateMenuItemRequest is used for creating a menu item.
type CreateMenuItemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description"`
	Price         int64   `json:"price" binding:"min=0"`
	Category      string  `json:"category" binding:"required"`
	IsAvailable   *bool   `json:"is_available"`
	StockQuantity *int    `json:"stock_quantity"`
	ImageURL      *string `json:"image_url"`
}

// UpdateMenuItemRequest is used for editing a menu item. Nil fields are left
// unchanged.
type UpdateMenuItemRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	Category      *string `json:"category"`
	IsAvailable   *bool   `json:"is_available"`
	StockQuantity *int    `json:"stock_quantity"`
	ClearStock    bool    `json:"clear_stock"` // switch the item to untracked
	ImageURL      *string `json:"image_url"`
}

// AdjustStockRequest is a manual stock correction by staff.
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// --- MenuService Interface ---

type MenuService interface {
	CreateMenuItem(req CreateMenuItemRequest) (*models.MenuItem, error)
	GetMenuItems(filters models.MenuFilters) ([]models.MenuItem, error)
	GetMenuItemByID(menuID int64) (*models.MenuItem, error)
	UpdateMenuItem(menuID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(menuID int64) error
	AdjustStock(menuID int64, delta int) (*models.StockAdjustment, error)
	GetStockMovements(limit int) ([]models.StockMovement, error)
}

type menuService struct {
	menuRepo     repositories.MenuRepository
	movementRepo repositories.StockMovementRepository
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository, smr repositories.StockMovementRepository) MenuService {
	return &menuService{menuRepo: mr, movementRepo: smr}
}

func (s *menuService) CreateMenuItem(req CreateMenuItemRequest) (*models.MenuItem, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidMenuFields)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidMenuFields)
	}
	if !models.IsValidMenuCategory(req.Category) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, req.Category)
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidMenuFields)
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := &models.MenuItem{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		IsAvailable:   available,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
	}
	if _, err := s.menuRepo.CreateMenuItem(item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrMenuNameExists, req.Name)
		}
		return nil, err
	}
	applyImageFallback(item)
	return item, nil
}

func (s *menuService) GetMenuItems(filters models.MenuFilters) ([]models.MenuItem, error) {
	items, err := s.menuRepo.GetMenuItems(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}
	for i := range items {
		applyImageFallback(&items[i])
	}
	return items, nil
}

func (s *menuService) GetMenuItemByID(menuID int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(menuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	applyImageFallback(item)
	return item, nil
}

func (s *menuService) UpdateMenuItem(menuID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(menuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidMenuFields)
		}
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidMenuFields)
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		if !models.IsValidMenuCategory(*req.Category) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, *req.Category)
		}
		item.Category = *req.Category
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.ClearStock {
		item.StockQuantity = nil
	} else if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidMenuFields)
		}
		item.StockQuantity = req.StockQuantity
	}
	if req.ImageURL != nil {
		item.ImageURL = req.ImageURL
	}

	if err := s.menuRepo.UpdateMenuItem(item); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrMenuNameExists, item.Name)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	applyImageFallback(item)
	return item, nil
}

func (s *menuService) DeleteMenuItem(menuID int64) error {
	// Historical order items keep their menu_id and snapshot price; the menu
	// row itself can go.
	if _, err := s.menuRepo.DeleteMenuItem(menuID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuNotFound
		}
		return err
	}
	return nil
}

func (s *menuService) AdjustStock(menuID int64, delta int) (*models.StockAdjustment, error) {
	adjustment, err := s.menuRepo.AdjustStock(menuID, delta)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, err
	}
	movement := &models.StockMovement{
		MenuID: menuID,
		Delta:  delta,
		Reason: models.MovementReasonCorrection,
	}
	if _, mvErr := s.movementRepo.CreateMovement(movement); mvErr != nil {
		// The adjustment itself succeeded; the audit row is best-effort.
		return adjustment, nil
	}
	return adjustment, nil
}

func (s *menuService) GetStockMovements(limit int) ([]models.StockMovement, error) {
	return s.movementRepo.GetMovements(limit)
}

func applyImageFallback(item *models.MenuItem) {
	if item.ImageURL == nil || *item.ImageURL == "" {
		fallback := models.DefaultImageURL(item.Category)
		item.ImageURL = &fallback
	}
}
