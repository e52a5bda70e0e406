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

// MenuRepository defines the interface for menu-related database operations.
type MenuRepository interface {
	CreateMenuItem(item *models.MenuItem) (int64, error)
	GetMenuItemByID(menuID int64) (*models.MenuItem, error)
	GetMenuItems(filters models.MenuFilters) ([]models.MenuItem, error)
	UpdateMenuItem(item *models.MenuItem) error
	DeleteMenuItem(menuID int64) (int64, error)

	// ReadStock returns the current tracked stock for a menu item, or nil when
	// the item does not track stock.
	ReadStock(menuID int64) (*int, error)

	// AdjustStock applies delta to a tracked stock quantity in a single guarded
	// UPDATE. It never performs read-modify-write from the caller side, so
	// concurrent adjustments cannot lose updates, and the guard rejects any
	// decrement that would go negative with ErrStockInsufficient.
	AdjustStock(menuID int64, delta int) (*models.StockAdjustment, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) CreateMenuItem(item *models.MenuItem) (int64, error) {
	query := `INSERT INTO menus
	            (name, description, price, category, is_available, stock_quantity, image_url,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	currentTime := time.Now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = currentTime
	}
	item.UpdatedAt = currentTime

	err := r.db.QueryRow(query,
		item.Name, item.Description, item.Price, item.Category, item.IsAvailable,
		item.StockQuantity, item.ImageURL, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: menu item name '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating menu item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *menuRepository) GetMenuItemByID(menuID int64) (*models.MenuItem, error) {
	item := &models.MenuItem{}
	query := `SELECT id, name, description, price, category, is_available, stock_quantity,
	                 image_url, created_at, updated_at
	          FROM menus
	          WHERE id = $1`
	err := r.db.QueryRow(query, menuID).Scan(
		&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
		&item.IsAvailable, &item.StockQuantity, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, menuID, err)
	}
	return item, nil
}

func (r *menuRepository) GetMenuItems(filters models.MenuFilters) ([]models.MenuItem, error) {
	items := []models.MenuItem{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, description, price, category, is_available,
	       stock_quantity, image_url, created_at, updated_at
	FROM menus`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCounter))
		args = append(args, *filters.Category)
		argCounter++
	}
	if filters.Available != nil {
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", argCounter))
		args = append(args, *filters.Available)
		argCounter++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+*filters.Search+"%")
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category, name")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MenuItem
		err := rows.Scan(
			&item.ID, &item.Name, &item.Description, &item.Price, &item.Category,
			&item.IsAvailable, &item.StockQuantity, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *menuRepository) UpdateMenuItem(item *models.MenuItem) error {
	query := `UPDATE menus
	          SET name = $1, description = $2, price = $3, category = $4, is_available = $5,
	              stock_quantity = $6, image_url = $7, updated_at = $8
	          WHERE id = $9`
	item.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		item.Name, item.Description, item.Price, item.Category, item.IsAvailable,
		item.StockQuantity, item.ImageURL, item.UpdatedAt, item.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: menu item name '%s' already exists (constraint: %s)", ErrDuplicateKey, item.Name, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating menu item ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for menu item update ID %d: %v", ErrDatabaseError, item.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) DeleteMenuItem(menuID int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM menus WHERE id = $1`, menuID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting menu item ID %d: %v", ErrDatabaseError, menuID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting menu item ID %d: %v", ErrDatabaseError, menuID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

func (r *menuRepository) ReadStock(menuID int64) (*int, error) {
	var stock sql.NullInt64
	err := r.db.QueryRow(`SELECT stock_quantity FROM menus WHERE id = $1`, menuID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: reading stock for menu item ID %d: %v", ErrDatabaseError, menuID, err)
	}
	if !stock.Valid {
		return nil, nil
	}
	current := int(stock.Int64)
	return &current, nil
}

func (r *menuRepository) AdjustStock(menuID int64, delta int) (*models.StockAdjustment, error) {
	var newStock int
	query := `UPDATE menus
	          SET stock_quantity = stock_quantity + $1, updated_at = $2
	          WHERE id = $3 AND stock_quantity IS NOT NULL AND stock_quantity + $1 >= 0
	          RETURNING stock_quantity`
	err := r.db.QueryRow(query, delta, time.Now(), menuID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guard rejected the update; distinguish why.
			var stock sql.NullInt64
			checkErr := r.db.QueryRow(`SELECT stock_quantity FROM menus WHERE id = $1`, menuID).Scan(&stock)
			if errors.Is(checkErr, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			if checkErr != nil {
				return nil, fmt.Errorf("%w: checking stock for menu item ID %d: %v", ErrDatabaseError, menuID, checkErr)
			}
			if !stock.Valid {
				return nil, fmt.Errorf("%w: menu item ID %d", ErrStockNotTracked, menuID)
			}
			return nil, fmt.Errorf("%w: menu item ID %d has %d, adjustment %d rejected", ErrStockInsufficient, menuID, stock.Int64, delta)
		}
		return nil, fmt.Errorf("%w: adjusting stock for menu item ID %d: %v", ErrDatabaseError, menuID, err)
	}
	return &models.StockAdjustment{
		MenuID:   menuID,
		OldStock: newStock - delta,
		NewStock: newStock,
	}, nil
}
