package models

import "time"

// Table represents a physical seating unit. Customers reach it by scanning a
// QR code that encodes the opaque QRToken; the numeric TableNumber is what
// staff see on the dashboard.
type Table struct {
	ID          int64     `json:"id"`
	TableNumber int       `json:"table_number" db:"table_number"`
	QRToken     string    `json:"qr_token" db:"qr_token"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// CustomerURL is the scan target for this table's QR code. It is derived
	// from the configured frontend base URL and never stored.
	CustomerURL string `json:"customer_url,omitempty"`
}

// TableFilters defines the available filters for querying tables.
type TableFilters struct {
	Active *bool `form:"active"`
}
