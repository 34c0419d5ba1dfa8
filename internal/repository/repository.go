// Package repository implements the booking store: SQLite as the primary
// backend, an in-memory fallback, and a failover wrapper combining both.
package repository

import (
	"context"
	"errors"
	"time"

	"tonnenheld/internal/models"
)

// ErrNotFound is returned when the addressed booking record is absent.
var ErrNotFound = errors.New("booking not found")

// NewBooking is the creation payload. ID, createdAt, status and paid are
// assigned by the store: status starts Offen, paid starts false.
type NewBooking struct {
	CustomerName    string
	CustomerAddress string
	ServiceDate     time.Time
	BinType         models.BinType
	ServiceScope    models.ServiceScope
	PriceCents      int64
	IsMonthly       bool
}

// Store is the persistence contract consumed by the booking service.
type Store interface {
	List(ctx context.Context) ([]models.Booking, error)
	Create(ctx context.Context, nb NewBooking) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdatePaid(ctx context.Context, id string, paid bool) error
	Delete(ctx context.Context, id string) error
}
