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

// OrderRepository defines the interface for order-related database operations.
// Order and OrderItem creation are deliberately separate calls: the checkout
// protocol is a best-effort multi-step sequence with no cross-step
// transactionality, and the reconciliation sweep picks up the orphan window.
type OrderRepository interface {
	CreateOrder(order *models.Order) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	UpdateOrderStatus(orderID int64, newStatus string, updatedAt time.Time) error
	CountActiveOrdersByTable(tableID int64) (int, error)
	GetOrphanOrderIDs(olderThan time.Time) ([]int64, error)

	CreateOrderItems(items []models.OrderItem) error
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
	GetOrderItemsForOrders(orderIDs []int64) ([]models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(order *models.Order) (int64, error) {
	query := `INSERT INTO orders (table_id, status, total_amount, special_notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := r.db.QueryRow(query,
		order.TableID, order.Status, order.TotalAmount, order.SpecialNotes,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	var tableNumber sql.NullInt64
	query := `SELECT o.id, o.table_id, o.status, o.total_amount, o.special_notes,
	                 o.created_at, o.updated_at, t.table_number
	          FROM orders o
	          LEFT JOIN tables t ON o.table_id = t.id
	          WHERE o.id = $1`
	err := r.db.QueryRow(query, orderID).Scan(
		&order.ID, &order.TableID, &order.Status, &order.TotalAmount, &order.SpecialNotes,
		&order.CreatedAt, &order.UpdatedAt, &tableNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if tableNumber.Valid {
		order.Table = &models.Table{ID: order.TableID, TableNumber: int(tableNumber.Int64)}
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.table_id, o.status, o.total_amount, o.special_notes,
            o.created_at, o.updated_at,
            t.table_number,
            COUNT(*) OVER() as total_count
        FROM orders o
        LEFT JOIN tables t ON o.table_id = t.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	for _, excluded := range filters.NotStatuses {
		conditions = append(conditions, fmt.Sprintf("o.status <> $%d", argCounter))
		args = append(args, excluded)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid date filter format: %s, expected YYYY-MM-DD", *filters.Date)
		}
		startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, time.Local)
		endOfDay := startOfDay.AddDate(0, 0, 1)
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
		args = append(args, startOfDay, endOfDay)
		argCounter += 2
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var tableNumber sql.NullInt64

		err := rows.Scan(
			&o.ID, &o.TableID, &o.Status, &o.TotalAmount, &o.SpecialNotes,
			&o.CreatedAt, &o.UpdatedAt,
			&tableNumber,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}

		if tableNumber.Valid {
			o.Table = &models.Table{ID: o.TableID, TableNumber: int(tableNumber.Int64)}
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderStatus(orderID int64, newStatus string, updatedAt time.Time) error {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.Exec(query, newStatus, updatedAt, orderID)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepository) CountActiveOrdersByTable(tableID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders
	          WHERE table_id = $1 AND status NOT IN ('delivered', 'cancelled')`
	err := r.db.QueryRow(query, tableID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting active orders for table ID %d: %v", ErrDatabaseError, tableID, err)
	}
	return count, nil
}

// GetOrphanOrderIDs returns pending orders older than the cutoff that have no
// order items, i.e. checkouts that failed between the order insert and the
// item insert.
func (r *orderRepository) GetOrphanOrderIDs(olderThan time.Time) ([]int64, error) {
	query := `SELECT o.id FROM orders o
	          LEFT JOIN order_items oi ON oi.order_id = o.id
	          WHERE o.status = 'pending' AND o.created_at < $1
	          GROUP BY o.id
	          HAVING COUNT(oi.id) = 0`
	rows, err := r.db.Query(query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("%w: querying orphan orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning orphan order ID: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating orphan order rows: %v", ErrDatabaseError, err)
	}
	return ids, nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`INSERT INTO order_items (order_id, menu_id, quantity, price, special_notes, created_at) VALUES `)

	args := make([]interface{}, 0, len(items)*6)
	currentTime := time.Now()
	for i := range items {
		if items[i].CreatedAt.IsZero() {
			items[i].CreatedAt = currentTime
		}
		base := i * 6
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		queryBuilder.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args,
			items[i].OrderID, items[i].MenuID, items[i].Quantity, items[i].Price,
			items[i].SpecialNotes, items[i].CreatedAt)
	}

	_, err := r.db.Exec(queryBuilder.String(), args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: creating order items (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return fmt.Errorf("%w: creating order items: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	return r.queryOrderItems(`
		SELECT
		    oi.id, oi.order_id, oi.menu_id, oi.quantity, oi.price, oi.special_notes, oi.created_at,
		    m.name, m.category, m.stock_quantity
		FROM order_items oi
		LEFT JOIN menus m ON oi.menu_id = m.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
}

func (r *orderRepository) GetOrderItemsForOrders(orderIDs []int64) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}
	return r.queryOrderItems(`
		SELECT
		    oi.id, oi.order_id, oi.menu_id, oi.quantity, oi.price, oi.special_notes, oi.created_at,
		    m.name, m.category, m.stock_quantity
		FROM order_items oi
		LEFT JOIN menus m ON oi.menu_id = m.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id`, pq.Array(orderIDs))
}

func (r *orderRepository) queryOrderItems(query string, arg interface{}) ([]models.OrderItem, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		var menuName, menuCategory sql.NullString
		var stockQuantity sql.NullInt64

		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuID, &item.Quantity, &item.Price,
			&item.SpecialNotes, &item.CreatedAt,
			&menuName, &menuCategory, &stockQuantity,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item: %v", ErrDatabaseError, err)
		}

		// The menu row may have been deleted since the order was placed; the
		// snapshot price on the item keeps history intact either way.
		if menuName.Valid {
			menuItem := &models.MenuItem{ID: item.MenuID, Name: menuName.String}
			if menuCategory.Valid {
				menuItem.Category = menuCategory.String
			}
			if stockQuantity.Valid {
				stock := int(stockQuantity.Int64)
				menuItem.StockQuantity = &stock
			}
			item.MenuItem = menuItem
		}

		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}
