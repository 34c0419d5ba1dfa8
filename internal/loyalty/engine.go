// Package loyalty derives reward status, earnings and subscription
// projections from a snapshot of bookings. Everything here is a pure
// function over its input: results are recomputed on every read instead of
// cached, so they can never go stale.
package loyalty

import (
	"sort"
	"time"

	"tonnenheld/internal/models"
)

// CycleLength is the loyalty cadence: every 6th pickup in a customer's
// history is free.
const CycleLength = 6

// CustomerStats summarizes one customer's history.
type CustomerStats struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Address string `json:"address"`
	// Count covers the entire history, open and completed alike.
	Count        int `json:"count"`
	PaidCount    int `json:"paid_count"`
	FreeCount    int `json:"free_count"`
	OrdersNeeded int `json:"orders_needed"`
}

// Result is the outcome of a loyalty computation over a booking snapshot.
type Result struct {
	FreeIDs   map[string]struct{}
	Customers map[string]CustomerStats
}

// IsFree reports whether the booking id was marked free.
func (r Result) IsFree(id string) bool {
	_, ok := r.FreeIDs[id]
	return ok
}

// Compute groups the bookings by customer key, orders each history by
// service date and flags every 6th position as free. Name and address in
// the stats carry the casing of the customer's most recent booking.
func Compute(bookings []models.Booking) Result {
	byCustomer := make(map[string][]models.Booking)
	for _, b := range bookings {
		key := b.CustomerKey()
		byCustomer[key] = append(byCustomer[key], b)
	}

	result := Result{
		FreeIDs:   make(map[string]struct{}),
		Customers: make(map[string]CustomerStats, len(byCustomer)),
	}

	for key, history := range byCustomer {
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].ServiceDay().Before(history[j].ServiceDay())
		})

		paid := 0
		for pos, b := range history {
			if (pos+1)%CycleLength == 0 {
				result.FreeIDs[b.ID] = struct{}{}
			}
			if b.Paid {
				paid++
			}
		}

		latest := history[len(history)-1]
		count := len(history)
		freeCount := count / CycleLength
		result.Customers[key] = CustomerStats{
			Key:          key,
			Name:         latest.CustomerName,
			Address:      latest.CustomerAddress,
			Count:        count,
			PaidCount:    paid,
			FreeCount:    freeCount,
			OrdersNeeded: (freeCount+1)*CycleLength - count,
		}
	}
	return result
}

// Earnings are aggregate sums over completed bookings, in cents. Free
// bookings contribute zero to all three regardless of their stored price.
type Earnings struct {
	TotalCents int64 `json:"total_cents"`
	PaidCents  int64 `json:"paid_cents"`
	OpenCents  int64 `json:"open_cents"`
}

// ComputeEarnings sums prices over completed, non-free bookings. The open
// amount is always total minus paid.
func ComputeEarnings(bookings []models.Booking, freeIDs map[string]struct{}) Earnings {
	var e Earnings
	for _, b := range bookings {
		if b.Status != models.StatusDone {
			continue
		}
		if _, free := freeIDs[b.ID]; free {
			continue
		}
		e.TotalCents += b.PriceCents
		if b.Paid {
			e.PaidCents += b.PriceCents
		}
	}
	e.OpenCents = e.TotalCents - e.PaidCents
	return e
}

// PlanSlot is one upcoming occurrence in a subscription projection.
type PlanSlot struct {
	Date time.Time `json:"date"`
	// Position is the 1-based place in the loyalty cycle; the occurrence
	// is free when it reaches the cycle length.
	Position  int    `json:"position"`
	Free      bool   `json:"free"`
	BookingID string `json:"booking_id,omitempty"`
}

// BuildPlan projects the next occurrences for one subscription bundle.
// dates come from the schedule resolver; bundle holds every booking of the
// bundle in any order. A real open booking always anchors slot 0: when the
// resolver's earliest date lies after its service date, the open booking's
// date is prepended. Slots matching an open booking by day carry its id.
func BuildPlan(bundle []models.Booking, dates []time.Time, slots int) []PlanSlot {
	if slots <= 0 {
		return nil
	}

	completed := 0
	openByDay := make(map[string]string)
	var anchor *models.Booking
	for i := range bundle {
		b := &bundle[i]
		if b.Status == models.StatusDone {
			completed++
			continue
		}
		openByDay[b.ServiceDay().Format("2006-01-02")] = b.ID
		if anchor == nil || b.ServiceDay().Before(anchor.ServiceDay()) {
			anchor = b
		}
	}

	projected := make([]time.Time, 0, slots)
	if anchor != nil && (len(dates) == 0 || anchor.ServiceDay().Before(models.Day(dates[0]))) {
		projected = append(projected, anchor.ServiceDay())
	}
	for _, d := range dates {
		projected = append(projected, models.Day(d))
	}
	if len(projected) > slots {
		projected = projected[:slots]
	}

	plan := make([]PlanSlot, 0, len(projected))
	for i, d := range projected {
		pos := (completed+i)%CycleLength + 1
		plan = append(plan, PlanSlot{
			Date:      d,
			Position:  pos,
			Free:      pos == CycleLength,
			BookingID: openByDay[d.Format("2006-01-02")],
		})
	}
	return plan
}

// Bundles groups the monthly bookings by subscription bundle key
// (customer plus bin type).
func Bundles(bookings []models.Booking) map[string][]models.Booking {
	out := make(map[string][]models.Booking)
	for _, b := range bookings {
		if !b.IsMonthly {
			continue
		}
		key := b.BundleKey()
		out[key] = append(out[key], b)
	}
	return out
}
