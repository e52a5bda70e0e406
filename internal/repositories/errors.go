package repositories

import "errors"

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrStockNotTracked is returned when a stock operation targets a menu item
	// whose stock_quantity is NULL.
	ErrStockNotTracked = errors.New("menu item does not track stock")

	// ErrStockInsufficient is returned when an atomic stock decrement would take
	// the tracked quantity below zero. The guarded UPDATE makes this the source
	// of truth under concurrent orders.
	ErrStockInsufficient = errors.New("insufficient stock")
)
