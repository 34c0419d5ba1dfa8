// Package service implements the booking workflows on top of the store, the
// schedule resolver and the loyalty engine.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"tonnenheld/internal/events"
	"tonnenheld/internal/loyalty"
	"tonnenheld/internal/metrics"
	"tonnenheld/internal/models"
	"tonnenheld/internal/pricing"
	"tonnenheld/internal/repository"
	"tonnenheld/internal/schedule"

	"github.com/rs/zerolog"
)

// Validation errors. They are distinguishable from storage errors so the API
// layer can map them to client-facing status codes.
var (
	ErrInvalidBinType     = errors.New("unknown bin type")
	ErrInvalidScope       = errors.New("unknown service scope")
	ErrDeadlineExceeded   = errors.New("booking deadline has passed")
	ErrEmptyCustomer      = errors.New("customer name and address are required")
	ErrSubscriptionAbsent = errors.New("no open subscription bookings found")
)

// EventPublisher is the slice of the event bus the service needs.
type EventPublisher interface {
	Publish(event events.Event)
}

// BookingService coordinates booking writes, loyalty reads and the
// subscription lifecycle.
type BookingService struct {
	store        repository.Store
	resolver     *schedule.Resolver
	bus          EventPublisher
	logger       *zerolog.Logger
	deadlineHour int
	// location anchors the deadline cutoff to the operator's wall clock.
	location *time.Location

	// now is swappable for tests.
	now func() time.Time
}

// NewBookingService wires the service. deadlineHour is the local hour on the
// day before service after which bookings for that date are rejected.
func NewBookingService(store repository.Store, resolver *schedule.Resolver, bus EventPublisher, deadlineHour int, logger *zerolog.Logger) *BookingService {
	if deadlineHour <= 0 {
		deadlineHour = 18
	}
	return &BookingService{
		store:        store,
		resolver:     resolver,
		bus:          bus,
		logger:       logger,
		deadlineHour: deadlineHour,
		location:     time.UTC,
		now:          time.Now,
	}
}

// SetLocation sets the timezone the deadline cutoff is evaluated in.
func (s *BookingService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetNow overrides the service clock. Used by tests to pin the deadline
// check to a fixed instant.
func (s *BookingService) SetNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateRequest carries the client input for a new booking.
type CreateRequest struct {
	CustomerName    string              `json:"name"`
	CustomerAddress string              `json:"address"`
	ServiceDate     time.Time           `json:"date"`
	BinType         models.BinType      `json:"bin_type"`
	ServiceScope    models.ServiceScope `json:"service_scope"`
	IsMonthly       bool                `json:"monthly"`
}

// Validate checks the request fields without touching storage.
func (s *BookingService) Validate(req CreateRequest) error {
	if req.CustomerName == "" || req.CustomerAddress == "" {
		return ErrEmptyCustomer
	}
	if !req.BinType.Valid() {
		return ErrInvalidBinType
	}
	if !req.ServiceScope.Valid() {
		return ErrInvalidScope
	}
	return s.checkDeadline(req.ServiceDate)
}

// checkDeadline enforces the cutoff: a booking for day D must arrive before
// the deadline hour on D-1. The cutoff instant is built from the calendar
// date in the configured location, so a UTC-parsed service date and a
// localized server clock agree on the same wall-clock deadline.
func (s *BookingService) checkDeadline(serviceDate time.Time) error {
	y, m, d := serviceDate.Date()
	deadline := time.Date(y, m, d, s.deadlineHour, 0, 0, 0, s.location).AddDate(0, 0, -1)
	if s.now().After(deadline) {
		return ErrDeadlineExceeded
	}
	return nil
}

// Create validates, prices and stores a new booking, then publishes the
// created event.
func (s *BookingService) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	nb := repository.NewBooking{
		CustomerName:    req.CustomerName,
		CustomerAddress: req.CustomerAddress,
		ServiceDate:     req.ServiceDate,
		BinType:         req.BinType,
		ServiceScope:    req.ServiceScope,
		PriceCents:      pricing.PriceCents(req.ServiceScope, req.IsMonthly),
		IsMonthly:       req.IsMonthly,
	}

	booking, err := s.store.Create(ctx, nb)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.BookingsCreated.WithLabelValues(string(booking.BinType), monthlyLabel(booking.IsMonthly)).Inc()
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("bin_type", string(booking.BinType)).
		Time("service_date", booking.ServiceDate).
		Bool("monthly", booking.IsMonthly).
		Msg("booking created")

	payload, _ := json.Marshal(booking)
	s.bus.Publish(events.Event{Type: events.TypeBookingCreated, BookingID: booking.ID, Payload: payload})
	return booking, nil
}

// List returns all bookings with their loyalty free flags applied.
type BookingView struct {
	models.Booking
	Free bool `json:"free"`
}

func (s *BookingService) List(ctx context.Context) ([]BookingView, error) {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	result := loyalty.Compute(bookings)
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, BookingView{Booking: b, Free: result.IsFree(b.ID)})
	}
	return views, nil
}

// Complete marks a booking done. For monthly bookings the next occurrence is
// created from the schedule so the subscription keeps running.
func (s *BookingService) Complete(ctx context.Context, id string) error {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	var booking *models.Booking
	for i := range bookings {
		if bookings[i].ID == id {
			booking = &bookings[i]
			break
		}
	}
	if booking == nil {
		return repository.ErrNotFound
	}

	if err := s.store.UpdateStatus(ctx, id, models.StatusDone); err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}
	metrics.BookingsCompleted.Inc()
	s.logger.Info().Str("booking_id", id).Msg("booking completed")
	s.bus.Publish(events.Event{Type: events.TypeBookingCompleted, BookingID: id})

	if booking.IsMonthly {
		s.rollover(ctx, booking)
	}
	return nil
}

// rollover creates the next subscription occurrence after the completed
// booking's service day. Without a schedule for the street nothing happens.
func (s *BookingService) rollover(ctx context.Context, completed *models.Booking) {
	street := models.StreetFromAddress(completed.CustomerAddress)
	dates := s.resolver.NextDates(street, completed.BinType, schedule.LookaheadDates)

	var next time.Time
	for _, d := range dates {
		if d.After(completed.ServiceDay()) {
			next = d
			break
		}
	}
	if next.IsZero() {
		s.logger.Warn().
			Str("booking_id", completed.ID).
			Str("street", street).
			Msg("no follow-up date found, subscription paused")
		return
	}

	nb := repository.NewBooking{
		CustomerName:    completed.CustomerName,
		CustomerAddress: completed.CustomerAddress,
		ServiceDate:     next,
		BinType:         completed.BinType,
		ServiceScope:    completed.ServiceScope,
		PriceCents:      pricing.PriceCents(completed.ServiceScope, true),
		IsMonthly:       true,
	}
	created, err := s.store.Create(ctx, nb)
	if err != nil {
		s.logger.Error().Err(err).Str("booking_id", completed.ID).Msg("rollover failed")
		return
	}

	metrics.SubscriptionRollovers.Inc()
	s.logger.Info().
		Str("completed_id", completed.ID).
		Str("next_id", created.ID).
		Time("next_date", next).
		Msg("subscription rolled over")
	s.bus.Publish(events.Event{Type: events.TypeBookingRolledOver, BookingID: created.ID})
}

// SetPaid toggles the paid flag of a booking.
func (s *BookingService) SetPaid(ctx context.Context, id string, paid bool) error {
	if err := s.store.UpdatePaid(ctx, id, paid); err != nil {
		return err
	}
	s.logger.Info().Str("booking_id", id).Bool("paid", paid).Msg("payment flag updated")
	return nil
}

// Delete removes one booking.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.BookingsDeleted.Inc()
	s.logger.Info().Str("booking_id", id).Msg("booking deleted")
	s.bus.Publish(events.Event{Type: events.TypeBookingDeleted, BookingID: id})
	return nil
}

// Stats bundles the loyalty view over the whole history.
type Stats struct {
	Customers []loyalty.CustomerStats `json:"customers"`
	Earnings  loyalty.Earnings        `json:"earnings"`
}

// Stats computes customer loyalty standings and earnings totals.
func (s *BookingService) Stats(ctx context.Context) (*Stats, error) {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	result := loyalty.Compute(bookings)
	customers := make([]loyalty.CustomerStats, 0, len(result.Customers))
	for _, c := range result.Customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Key < customers[j].Key })

	return &Stats{
		Customers: customers,
		Earnings:  loyalty.ComputeEarnings(bookings, result.FreeIDs),
	}, nil
}

// Subscription is the projected view of one monthly bundle.
type Subscription struct {
	Key             string              `json:"key"`
	CustomerName    string              `json:"name"`
	CustomerAddress string              `json:"address"`
	BinType         models.BinType      `json:"bin_type"`
	ServiceScope    models.ServiceScope `json:"service_scope"`
	Plan            []loyalty.PlanSlot  `json:"plan"`
}

// Subscriptions projects upcoming occurrences for every monthly bundle.
func (s *BookingService) Subscriptions(ctx context.Context, slots int) ([]Subscription, error) {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	subs := make([]Subscription, 0)
	for key, bundle := range loyalty.Bundles(bookings) {
		latest := bundle[len(bundle)-1]
		street := models.StreetFromAddress(latest.CustomerAddress)
		dates := s.resolver.NextDates(street, latest.BinType, slots)

		subs = append(subs, Subscription{
			Key:             key,
			CustomerName:    latest.CustomerName,
			CustomerAddress: latest.CustomerAddress,
			BinType:         latest.BinType,
			ServiceScope:    latest.ServiceScope,
			Plan:            loyalty.BuildPlan(bundle, dates, slots),
		})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Key < subs[j].Key })
	return subs, nil
}

// CancelSubscription deletes the open bookings of a bundle. Completed history
// stays so loyalty positions survive a later re-subscription.
func (s *BookingService) CancelSubscription(ctx context.Context, name, address string, bin models.BinType) (int, error) {
	bookings, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load bookings: %w", err)
	}

	key := models.BundleKey(name, address, bin)
	cancelled := 0
	for _, b := range bookings {
		if !b.IsMonthly || !b.IsOpen() || b.BundleKey() != key {
			continue
		}
		if err := s.store.Delete(ctx, b.ID); err != nil {
			return cancelled, fmt.Errorf("cancel booking %s: %w", b.ID, err)
		}
		cancelled++
	}
	if cancelled == 0 {
		return 0, ErrSubscriptionAbsent
	}

	s.logger.Info().Str("bundle", key).Int("cancelled", cancelled).Msg("subscription cancelled")
	return cancelled, nil
}

func monthlyLabel(monthly bool) string {
	if monthly {
		return "monthly"
	}
	return "single"
}
