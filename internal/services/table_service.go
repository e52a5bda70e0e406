package services

import (
	"errors"
	"fmt"

	"cafe_order_backend/internal/models"
	"cafe_order_backend/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrTableInactive     = errors.New("table is not active")
	ErrTableNumberExists = errors.New("table number already exists")
)

// CreateTableRequest is used for registering a new table.
type CreateTableRequest struct {
	TableNumber int `json:"table_number" binding:"required,gt=0"`
}

// --- TableService Interface ---

type TableService interface {
	CreateTable(req CreateTableRequest) (*models.Table, error)
	GetTables(filters models.TableFilters) ([]models.Table, error)
	GetTableByID(tableID int64) (*models.Table, error)
	// ResolveTableByToken looks a table up by its QR token and rejects
	// inactive tables; this is the customer entry point.
	ResolveTableByToken(token string) (*models.Table, error)
	RegenerateQRToken(tableID int64) (*models.Table, error)
	SetTableActive(tableID int64, active bool) (*models.Table, error)
	DeleteTable(tableID int64) error
}

type tableService struct {
	tableRepo repositories.TableRepository
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository) TableService {
	return &tableService{tableRepo: tr}
}

func (s *tableService) CreateTable(req CreateTableRequest) (*models.Table, error) {
	if req.TableNumber <= 0 {
		return nil, fmt.Errorf("%w: table number must be positive", ErrValidation)
	}
	table := &models.Table{
		TableNumber: req.TableNumber,
		QRToken:     uuid.NewString(),
		IsActive:    true,
	}
	if _, err := s.tableRepo.CreateTable(table); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %d", ErrTableNumberExists, req.TableNumber)
		}
		return nil, err
	}
	return table, nil
}

func (s *tableService) GetTables(filters models.TableFilters) ([]models.Table, error) {
	tables, err := s.tableRepo.GetTables(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) GetTableByID(tableID int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return table, nil
}

func (s *tableService) ResolveTableByToken(token string) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByQRToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	if !table.IsActive {
		return nil, ErrTableInactive
	}
	return table, nil
}

// RegenerateQRToken replaces the table's QR token, invalidating any printed
// codes for it.
func (s *tableService) RegenerateQRToken(tableID int64) (*models.Table, error) {
	table, err := s.GetTableByID(tableID)
	if err != nil {
		return nil, err
	}
	table.QRToken = uuid.NewString()
	if err := s.tableRepo.UpdateTable(table); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return table, nil
}

func (s *tableService) SetTableActive(tableID int64, active bool) (*models.Table, error) {
	table, err := s.GetTableByID(tableID)
	if err != nil {
		return nil, err
	}
	table.IsActive = active
	if err := s.tableRepo.UpdateTable(table); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return table, nil
}

func (s *tableService) DeleteTable(tableID int64) error {
	if _, err := s.tableRepo.DeleteTable(tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return err
	}
	return nil
}
