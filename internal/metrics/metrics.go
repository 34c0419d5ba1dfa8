// Package metrics exposes the Prometheus instrumentation of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BookingsCreated counts accepted bookings by bin type.
	BookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "bookings_created_total",
			Help:      "Number of bookings created.",
		},
		[]string{"bin_type", "monthly"},
	)

	// BookingsCompleted counts bookings marked done.
	BookingsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "bookings_completed_total",
			Help:      "Number of bookings marked completed.",
		},
	)

	// BookingsDeleted counts removed bookings.
	BookingsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "bookings_deleted_total",
			Help:      "Number of bookings deleted.",
		},
	)

	// SubscriptionRollovers counts follow-up occurrences created when a
	// monthly booking completes.
	SubscriptionRollovers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "subscription_rollovers_total",
			Help:      "Number of subscription follow-up bookings created.",
		},
	)

	// NotificationsSent counts outbound notifications by channel and outcome.
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "notifications_sent_total",
			Help:      "Number of notification attempts.",
		},
		[]string{"channel", "status"},
	)

	// ScheduleLookups counts resolver queries by outcome.
	ScheduleLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tonnenheld",
			Name:      "schedule_lookups_total",
			Help:      "Number of schedule resolver lookups.",
		},
		[]string{"result"},
	)
)

var registerOnce sync.Once

// Register installs all collectors into the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BookingsCreated,
			BookingsCompleted,
			BookingsDeleted,
			SubscriptionRollovers,
			NotificationsSent,
			ScheduleLookups,
		)
	})
}
