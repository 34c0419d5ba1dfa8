package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tonnenheld/internal/models"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the failover waits after a primary failure
// before probing the primary again.
const recoveryInterval = time.Minute

// FailoverStore routes calls to the primary store and falls back to the
// secondary when the primary errors. Once the primary is marked down, it is
// only retried after the recovery interval has passed.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

// NewFailoverStore wraps primary with fallback.
func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the next call should go to the primary.
func (f *FailoverStore) usePrimary() bool {
	if !f.isDown.Load() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if time.Since(f.lastCheck) > recoveryInterval {
		f.lastCheck = time.Now()
		return true
	}
	return false
}

func (f *FailoverStore) markDown(op string, err error) {
	if f.isDown.CompareAndSwap(false, true) {
		f.logger.Error().Err(err).Str("operation", op).Msg("primary store failed, switching to fallback")
	} else {
		f.logger.Warn().Err(err).Str("operation", op).Msg("primary store still down")
	}
	f.mu.Lock()
	f.lastCheck = time.Now()
	f.mu.Unlock()
}

func (f *FailoverStore) markUp() {
	if f.isDown.CompareAndSwap(true, false) {
		f.logger.Info().Msg("primary store recovered")
	}
}

// List returns all bookings.
func (f *FailoverStore) List(ctx context.Context) ([]models.Booking, error) {
	if f.usePrimary() {
		bookings, err := f.primary.List(ctx)
		if err == nil {
			f.markUp()
			return bookings, nil
		}
		f.markDown("list", err)
	}
	return f.fallback.List(ctx)
}

// Create inserts a new booking.
func (f *FailoverStore) Create(ctx context.Context, nb NewBooking) (*models.Booking, error) {
	if f.usePrimary() {
		b, err := f.primary.Create(ctx, nb)
		if err == nil {
			f.markUp()
			return b, nil
		}
		f.markDown("create", err)
	}
	return f.fallback.Create(ctx, nb)
}

// UpdateStatus sets the status of a booking.
func (f *FailoverStore) UpdateStatus(ctx context.Context, id, status string) error {
	if f.usePrimary() {
		err := f.primary.UpdateStatus(ctx, id, status)
		if err == nil || err == ErrNotFound {
			f.markUp()
			return err
		}
		f.markDown("update_status", err)
	}
	return f.fallback.UpdateStatus(ctx, id, status)
}

// UpdatePaid sets the paid flag of a booking.
func (f *FailoverStore) UpdatePaid(ctx context.Context, id string, paid bool) error {
	if f.usePrimary() {
		err := f.primary.UpdatePaid(ctx, id, paid)
		if err == nil || err == ErrNotFound {
			f.markUp()
			return err
		}
		f.markDown("update_paid", err)
	}
	return f.fallback.UpdatePaid(ctx, id, paid)
}

// Delete removes a booking.
func (f *FailoverStore) Delete(ctx context.Context, id string) error {
	if f.usePrimary() {
		err := f.primary.Delete(ctx, id)
		if err == nil || err == ErrNotFound {
			f.markUp()
			return err
		}
		f.markDown("delete", err)
	}
	return f.fallback.Delete(ctx, id)
}
