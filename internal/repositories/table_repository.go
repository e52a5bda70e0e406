package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafe_order_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for table-related database operations.
type TableRepository interface {
	CreateTable(table *models.Table) (int64, error)
	GetTableByID(tableID int64) (*models.Table, error)
	GetTableByQRToken(token string) (*models.Table, error)
	GetTables(filters models.TableFilters) ([]models.Table, error)
	UpdateTable(table *models.Table) error
	DeleteTable(tableID int64) (int64, error)
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) CreateTable(table *models.Table) (int64, error) {
	query := `INSERT INTO tables (table_number, qr_token, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	currentTime := time.Now()
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime

	err := r.db.QueryRow(query,
		table.TableNumber, table.QRToken, table.IsActive, table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: table number %d already exists (constraint: %s)", ErrDuplicateKey, table.TableNumber, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating table: %v", ErrDatabaseError, err)
	}
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(tableID int64) (*models.Table, error) {
	return r.getTable(`SELECT id, table_number, qr_token, is_active, created_at, updated_at
	                   FROM tables WHERE id = $1`, tableID)
}

func (r *tableRepository) GetTableByQRToken(token string) (*models.Table, error) {
	return r.getTable(`SELECT id, table_number, qr_token, is_active, created_at, updated_at
	                   FROM tables WHERE qr_token = $1`, token)
}

func (r *tableRepository) getTable(query string, arg interface{}) (*models.Table, error) {
	table := &models.Table{}
	err := r.db.QueryRow(query, arg).Scan(
		&table.ID, &table.TableNumber, &table.QRToken, &table.IsActive,
		&table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table: %v", ErrDatabaseError, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(filters models.TableFilters) ([]models.Table, error) {
	tables := []models.Table{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, table_number, qr_token, is_active, created_at, updated_at FROM tables`)

	var args []interface{}
	if filters.Active != nil {
		queryBuilder.WriteString(" WHERE is_active = $1")
		args = append(args, *filters.Active)
	}
	queryBuilder.WriteString(" ORDER BY table_number")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Table
		err := rows.Scan(&t.ID, &t.TableNumber, &t.QRToken, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) UpdateTable(table *models.Table) error {
	query := `UPDATE tables SET qr_token = $1, is_active = $2, updated_at = $3 WHERE id = $4`
	table.UpdatedAt = time.Now()
	result, err := r.db.Exec(query, table.QRToken, table.IsActive, table.UpdatedAt, table.ID)
	if err != nil {
		return fmt.Errorf("%w: updating table ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for table update ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *tableRepository) DeleteTable(tableID int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM tables WHERE id = $1`, tableID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}
