package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"tonnenheld/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps bookings in memory. It backs the failover path when the
// database is unavailable and doubles as the store for tests.
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]models.Booking
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[string]models.Booking)}
}

// List returns all bookings ordered by service date ascending.
func (m *MemoryStore) List(_ context.Context) ([]models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceDate.Before(out[j].ServiceDate) })
	return out, nil
}

// Create stores a new booking with a fresh id.
func (m *MemoryStore) Create(_ context.Context, nb NewBooking) (*models.Booking, error) {
	b := models.Booking{
		ID:              uuid.NewString(),
		CustomerName:    nb.CustomerName,
		CustomerAddress: nb.CustomerAddress,
		ServiceDate:     models.Day(nb.ServiceDate),
		BinType:         nb.BinType,
		ServiceScope:    nb.ServiceScope,
		Status:          models.StatusOpen,
		PriceCents:      nb.PriceCents,
		IsMonthly:       nb.IsMonthly,
		CreatedAt:       time.Now(),
	}

	m.mu.Lock()
	m.bookings[b.ID] = b
	m.mu.Unlock()
	return &b, nil
}

// UpdateStatus sets the status of a booking.
func (m *MemoryStore) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	m.bookings[id] = b
	return nil
}

// UpdatePaid sets the paid flag of a booking.
func (m *MemoryStore) UpdatePaid(_ context.Context, id string, paid bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Paid = paid
	m.bookings[id] = b
	return nil
}

// Delete removes a booking.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	return nil
}
