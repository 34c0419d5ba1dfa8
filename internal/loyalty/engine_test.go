package loyalty

import (
	"fmt"
	"testing"
	"time"

	"tonnenheld/internal/models"

	"github.com/stretchr/testify/assert"
)

func datedBooking(id string, day string) models.Booking {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.Booking{
		ID:              id,
		CustomerName:    "Max Mustermann",
		CustomerAddress: "Hobergerfeld 5",
		ServiceDate:     d,
		BinType:         models.BinRestmuell,
		ServiceScope:    models.ScopeOut,
		Status:          models.StatusOpen,
		PriceCents:      100,
	}
}

func history(n int) []models.Booking {
	bookings := make([]models.Booking, 0, n)
	for i := 0; i < n; i++ {
		day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 14*i)
		bookings = append(bookings, datedBooking(fmt.Sprintf("b%02d", i+1), day.Format("2006-01-02")))
	}
	return bookings
}

func TestCompute_EverySixthIsFree(t *testing.T) {
	result := Compute(history(13))

	for k := 1; k <= 13; k++ {
		id := fmt.Sprintf("b%02d", k)
		if k%6 == 0 {
			assert.True(t, result.IsFree(id), "position %d should be free", k)
		} else {
			assert.False(t, result.IsFree(id), "position %d should not be free", k)
		}
	}

	stats := result.Customers[models.CustomerKey("Max Mustermann", "Hobergerfeld 5")]
	assert.Equal(t, 13, stats.Count)
	assert.Equal(t, 2, stats.FreeCount)
	assert.Equal(t, 5, stats.OrdersNeeded) // next free at 18
}

func TestCompute_GroupsAcrossCasingAndWhitespace(t *testing.T) {
	a := datedBooking("a", "2026-01-05")
	b := datedBooking("b", "2026-01-19")
	b.CustomerName = "  MAX MUSTERMANN"
	b.CustomerAddress = "hobergerfeld 5 "

	result := Compute([]models.Booking{a, b})
	assert.Len(t, result.Customers, 1)
	stats := result.Customers[a.CustomerKey()]
	assert.Equal(t, 2, stats.Count)
}

func TestCompute_OrderIndependentOfInput(t *testing.T) {
	bookings := history(7)
	reversed := make([]models.Booking, 0, len(bookings))
	for i := len(bookings) - 1; i >= 0; i-- {
		reversed = append(reversed, bookings[i])
	}

	result := Compute(reversed)
	assert.True(t, result.IsFree("b06"))
	assert.False(t, result.IsFree("b07"))
}

func TestCompute_StatsUseLatestCasing(t *testing.T) {
	a := datedBooking("a", "2026-01-05")
	b := datedBooking("b", "2026-02-02")
	b.CustomerName = "MAX MUSTERMANN"

	result := Compute([]models.Booking{b, a})
	stats := result.Customers[a.CustomerKey()]
	assert.Equal(t, "MAX MUSTERMANN", stats.Name)
}

func TestComputeEarnings(t *testing.T) {
	t.Run("Identity", func(t *testing.T) {
		bookings := history(9)
		for i := range bookings {
			bookings[i].Status = models.StatusDone
			bookings[i].Paid = i < 4
		}
		result := Compute(bookings)
		e := ComputeEarnings(bookings, result.FreeIDs)

		assert.Equal(t, e.TotalCents-e.PaidCents, e.OpenCents)
	})

	t.Run("OpenBookingsDoNotEarn", func(t *testing.T) {
		bookings := history(3) // all Offen
		e := ComputeEarnings(bookings, nil)
		assert.Equal(t, Earnings{}, e)
	})

	t.Run("SixCompletedScenario", func(t *testing.T) {
		// Six completed bookings at 1.00 each, first five paid. The 6th
		// is free and contributes nothing even once paid is set.
		bookings := history(6)
		for i := range bookings {
			bookings[i].Status = models.StatusDone
			bookings[i].Paid = true
		}
		result := Compute(bookings)

		stats := result.Customers[bookings[0].CustomerKey()]
		assert.Equal(t, 1, stats.FreeCount)
		assert.True(t, result.IsFree("b06"))

		e := ComputeEarnings(bookings, result.FreeIDs)
		assert.Equal(t, int64(500), e.TotalCents)
		assert.Equal(t, int64(500), e.PaidCents)
		assert.Equal(t, int64(0), e.OpenCents)
	})
}

func TestBuildPlan(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC),
	}

	t.Run("OpenBookingAnchorsFirstSlot", func(t *testing.T) {
		open := datedBooking("open1", "2026-02-16")
		open.IsMonthly = true

		plan := BuildPlan([]models.Booking{open}, dates, 4)
		assert.Len(t, plan, 4)
		assert.Equal(t, models.Day(open.ServiceDate), plan[0].Date)
		assert.Equal(t, "open1", plan[0].BookingID)
		assert.Empty(t, plan[1].BookingID)
	})

	t.Run("PositionsContinueFromCompletedHistory", func(t *testing.T) {
		bundle := history(5)
		for i := range bundle {
			bundle[i].Status = models.StatusDone
			bundle[i].IsMonthly = true
		}

		plan := BuildPlan(bundle, dates, 3)
		assert.Equal(t, 6, plan[0].Position)
		assert.True(t, plan[0].Free)
		assert.Equal(t, 1, plan[1].Position)
		assert.False(t, plan[1].Free)
	})

	t.Run("ResolverDateMatchingOpenBookingCarriesID", func(t *testing.T) {
		open := datedBooking("open2", "2026-03-02")
		open.IsMonthly = true

		plan := BuildPlan([]models.Booking{open}, dates, 3)
		assert.Len(t, plan, 3)
		assert.Equal(t, dates[0], plan[0].Date)
		assert.Equal(t, "open2", plan[0].BookingID)
	})

	t.Run("NoDatesNoAnchor", func(t *testing.T) {
		assert.Empty(t, BuildPlan(nil, nil, 6))
	})

	t.Run("TruncatesToRequestedSlots", func(t *testing.T) {
		plan := BuildPlan(nil, dates, 2)
		assert.Len(t, plan, 2)
	})
}

func TestBundles(t *testing.T) {
	monthly := datedBooking("m1", "2026-01-05")
	monthly.IsMonthly = true
	monthlyOther := datedBooking("m2", "2026-01-12")
	monthlyOther.IsMonthly = true
	monthlyOther.BinType = models.BinBio
	single := datedBooking("s1", "2026-01-19")

	bundles := Bundles([]models.Booking{monthly, monthlyOther, single})
	assert.Len(t, bundles, 2)
	assert.Len(t, bundles[monthly.BundleKey()], 1)
	assert.Len(t, bundles[monthlyOther.BundleKey()], 1)
}
