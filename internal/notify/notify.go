// Package notify delivers booking notifications to the operator. Delivery is
// fire-and-forget: failures are logged and never surface to the caller.
package notify

import (
	"context"
	"fmt"
	"time"

	"tonnenheld/internal/metrics"
	"tonnenheld/internal/models"

	"github.com/rs/zerolog"
)

// Notifier sends one message about a booking.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Dispatcher fans a booking event out to the configured notifier in the
// background.
type Dispatcher struct {
	notifier Notifier
	channel  string
	logger   *zerolog.Logger
	timeout  time.Duration
}

// NewDispatcher wraps a notifier. A nil notifier disables dispatch.
func NewDispatcher(notifier Notifier, channel string, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		channel:  channel,
		logger:   logger,
		timeout:  15 * time.Second,
	}
}

// BookingCreated announces a new booking without blocking the caller.
func (d *Dispatcher) BookingCreated(b *models.Booking) {
	if d == nil || d.notifier == nil {
		return
	}

	kind := "Einzeltermin"
	if b.IsMonthly {
		kind = "Monatsservice"
	}
	subject := fmt.Sprintf("Neue Buchung: %s am %s", b.BinType, b.ServiceDate.Format("02.01.2006"))
	body := fmt.Sprintf(
		"Kunde: %s\nAdresse: %s\nTonne: %s\nLeistung: %s\nDatum: %s\nArt: %s\nPreis: %.2f EUR",
		b.CustomerName, b.CustomerAddress, b.BinType, b.ServiceScope,
		b.ServiceDate.Format("02.01.2006"), kind, float64(b.PriceCents)/100,
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, subject, body); err != nil {
			metrics.NotificationsSent.WithLabelValues(d.channel, "error").Inc()
			d.logger.Error().Err(err).Str("booking_id", b.ID).Msg("notification failed")
			return
		}
		metrics.NotificationsSent.WithLabelValues(d.channel, "ok").Inc()
		d.logger.Info().Str("booking_id", b.ID).Str("channel", d.channel).Msg("notification sent")
	}()
}
