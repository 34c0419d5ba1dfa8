package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tonnenheld/internal/models"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// SQLiteStore is the primary booking store.
type SQLiteStore struct {
	db     *sql.DB
	logger *zerolog.Logger
}

// NewSQLiteStore opens (or creates) the bookings database at path.
func NewSQLiteStore(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode and busy timeout keep the single-writer workload snappy.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("booking database initialized")
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			customer_name TEXT NOT NULL,
			customer_address TEXT NOT NULL,
			service_date DATETIME NOT NULL,
			bin_type TEXT NOT NULL,
			service_scope TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'Offen',
			price_cents INTEGER NOT NULL DEFAULT 0,
			paid BOOLEAN NOT NULL DEFAULT 0,
			is_monthly BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_service_date ON bookings(service_date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_monthly ON bookings(is_monthly)`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// List returns all bookings ordered by service date ascending.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_address, service_date, bin_type,
		       service_scope, status, price_cents, paid, is_monthly, created_at
		FROM bookings
		ORDER BY service_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID, &b.CustomerName, &b.CustomerAddress, &b.ServiceDate,
			&b.BinType, &b.ServiceScope, &b.Status, &b.PriceCents,
			&b.Paid, &b.IsMonthly, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Create inserts a new booking with a fresh id, status Offen and paid false.
func (s *SQLiteStore) Create(ctx context.Context, nb NewBooking) (*models.Booking, error) {
	b := &models.Booking{
		ID:              uuid.NewString(),
		CustomerName:    nb.CustomerName,
		CustomerAddress: nb.CustomerAddress,
		ServiceDate:     models.Day(nb.ServiceDate),
		BinType:         nb.BinType,
		ServiceScope:    nb.ServiceScope,
		Status:          models.StatusOpen,
		PriceCents:      nb.PriceCents,
		Paid:            false,
		IsMonthly:       nb.IsMonthly,
		CreatedAt:       time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, customer_name, customer_address, service_date,
			bin_type, service_scope, status, price_cents, paid, is_monthly, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CustomerName, b.CustomerAddress, b.ServiceDate,
		b.BinType, b.ServiceScope, b.Status, b.PriceCents, b.Paid, b.IsMonthly, b.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return b, nil
}

// UpdateStatus sets the status of a booking.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	return s.exec(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
}

// UpdatePaid sets the paid flag of a booking.
func (s *SQLiteStore) UpdatePaid(ctx context.Context, id string, paid bool) error {
	return s.exec(ctx, `UPDATE bookings SET paid = ? WHERE id = ?`, paid, id)
}

// Delete removes a booking.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM bookings WHERE id = ?`, id)
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
