package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tonnenheld/internal/models"
	"tonnenheld/internal/repository"

	"github.com/rs/zerolog"
)

// ReminderConfig tunes the daily pickup reminder.
type ReminderConfig struct {
	Timezone      string
	Hour          int
	Minute        int
	CheckInterval time.Duration
}

// DefaultReminderConfig sends the reminder at 17:00 local time, one hour
// before the booking deadline.
func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		Timezone:      "Europe/Berlin",
		Hour:          17,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// Reminder sends the operator a daily summary of tomorrow's open bookings.
type Reminder struct {
	config   ReminderConfig
	store    repository.Store
	notifier Notifier
	location *time.Location
	logger   *zerolog.Logger

	mu          sync.Mutex
	lastRunDate string
}

// NewReminder builds the scheduler. It fails only on an invalid timezone.
func NewReminder(cfg ReminderConfig, store repository.Store, notifier Notifier, logger *zerolog.Logger) (*Reminder, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	return &Reminder{
		config:   cfg,
		store:    store,
		notifier: notifier,
		location: loc,
		logger:   logger,
	}, nil
}

// Start runs the reminder loop until the context is cancelled.
func (r *Reminder) Start(ctx context.Context) {
	r.logger.Info().
		Int("hour", r.config.Hour).
		Int("minute", r.config.Minute).
		Msg("pickup reminder started")

	ticker := time.NewTicker(r.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick fires at most once per day, after the configured time has passed.
func (r *Reminder) tick(ctx context.Context) {
	now := time.Now().In(r.location)
	today := now.Format("2006-01-02")

	r.mu.Lock()
	alreadyRan := r.lastRunDate == today
	r.mu.Unlock()

	if alreadyRan {
		return
	}
	if now.Hour() < r.config.Hour || (now.Hour() == r.config.Hour && now.Minute() < r.config.Minute) {
		return
	}

	if err := r.SendSummary(ctx, now.AddDate(0, 0, 1)); err != nil {
		r.logger.Error().Err(err).Msg("pickup reminder failed")
		return
	}

	r.mu.Lock()
	r.lastRunDate = today
	r.mu.Unlock()
}

// SendSummary notifies the operator about the open bookings on the given
// day. Service dates are stored as UTC midnights while day arrives in the
// reminder's location, so the match is on the calendar date, never on the
// instant. No bookings means no message.
func (r *Reminder) SendSummary(ctx context.Context, day time.Time) error {
	bookings, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	target := day.In(r.location)
	targetDate := target.Format("2006-01-02")
	var due []models.Booking
	for _, b := range bookings {
		if b.IsOpen() && b.ServiceDay().Format("2006-01-02") == targetDate {
			due = append(due, b)
		}
	}
	if len(due) == 0 {
		return nil
	}

	var sb strings.Builder
	for _, b := range due {
		fmt.Fprintf(&sb, "- %s, %s: %s (%s)\n", b.CustomerName, b.CustomerAddress, b.BinType, b.ServiceScope)
	}

	subject := fmt.Sprintf("Morgen %d Termin(e): %s", len(due), target.Format("02.01.2006"))
	if err := r.notifier.Notify(ctx, subject, sb.String()); err != nil {
		return err
	}

	r.logger.Info().Int("bookings", len(due)).Str("day", targetDate).Msg("pickup reminder sent")
	return nil
}
