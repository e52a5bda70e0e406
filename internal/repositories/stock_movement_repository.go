package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"cafe_order_backend/internal/models"
)

// StockMovementRepository appends and lists the stock audit trail. Movements
// are write-once; corrections get their own rows rather than edits.
type StockMovementRepository interface {
	CreateMovement(movement *models.StockMovement) (int64, error)
	GetMovements(limit int) ([]models.StockMovement, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements (menu_id, order_id, delta, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	err := r.db.QueryRow(query,
		movement.MenuID, movement.OrderID, movement.Delta, movement.Reason, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT sm.id, sm.menu_id, sm.order_id, sm.delta, sm.reason, sm.created_at, m.name
	          FROM stock_movements sm
	          LEFT JOIN menus m ON sm.menu_id = m.id
	          ORDER BY sm.created_at DESC
	          LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		var menuName sql.NullString
		err := rows.Scan(&m.ID, &m.MenuID, &m.OrderID, &m.Delta, &m.Reason, &m.CreatedAt, &menuName)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		if menuName.Valid {
			name := menuName.String
			m.MenuName = &name
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock movement rows: %v", ErrDatabaseError, err)
	}
	return movements, nil
}
