package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonnenheld/internal/events"
	"tonnenheld/internal/models"
	"tonnenheld/internal/repository"
	"tonnenheld/internal/schedule"
	"tonnenheld/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) (*Server, *repository.MemoryStore) {
	t.Helper()
	logger := zerolog.New(io.Discard)

	resolver := schedule.New(schedule.Config{
		Tables: map[string]map[models.BinType][]string{
			"Hobergerfeld": {
				models.BinRestmuell: {"2026-03-02", "2026-03-16", "2026-03-30"},
			},
		},
		Now: func() time.Time { return time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC) },
	})

	store := repository.NewMemoryStore()
	svc := service.NewBookingService(store, resolver, events.NewEventBus(), 18, &logger)
	svc.SetNow(func() time.Time { return time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC) })

	auth, err := LoadAuth("", &logger)
	assert.NoError(t, err)

	return NewServer(svc, resolver, auth, &logger, Options{RateLimitRPS: 100, RateBurst: 100}), store
}

func TestHandleConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp configResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Hobergerfeld"}, resp.Streets)
	assert.Equal(t, int64(900), resp.Prices["monthly_both"])
	assert.Equal(t, 18, resp.DeadlineHour)
}

func TestHandleDates(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("KnownStreet", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/dates?street=Hobergerfeld&bin=Restm%C3%BCll&count=2", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp datesResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, []string{"2026-03-02", "2026-03-16"}, resp.Dates)
	})

	t.Run("UnknownStreetIsEmptyNotError", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/dates?street=Nirgendwo&bin=Restm%C3%BCll", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp datesResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Dates)
	})

	t.Run("BadCountRejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/dates?street=Hobergerfeld&bin=Restm%C3%BCll&count=viele", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleDatesRange(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/dates/range?street=Hobergerfeld&bin=Restm%C3%BCll&from=2026-03-01&to=2026-03-20", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp datesResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2026-03-02", "2026-03-16"}, resp.Dates)
}

func TestHandleCreateBooking(t *testing.T) {
	body := `{
		"name": "Max Mustermann",
		"address": "Hobergerfeld 5",
		"date": "2026-03-02",
		"bin_type": "Restmüll",
		"service_scope": "Raus & Rein",
		"monthly": false
	}`

	t.Run("Created", func(t *testing.T) {
		srv, store := newTestServer(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		var booking models.Booking
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
		assert.Equal(t, int64(150), booking.PriceCents)
		assert.Equal(t, models.StatusOpen, booking.Status)

		stored, _ := store.List(context.Background())
		assert.Len(t, stored, 1)
	})

	t.Run("ValidationFailureIs422", func(t *testing.T) {
		srv, _ := newTestServer(t)
		bad := strings.Replace(body, "Restmüll", "Atommüll", 1)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(bad)))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("BadDateIs400", func(t *testing.T) {
		srv, _ := newTestServer(t)
		bad := strings.Replace(body, "2026-03-02", "02.03.2026", 1)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(bad)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*Server, *models.Booking) {
		t.Helper()
		srv, store := newTestServer(t)
		b, err := store.Create(ctx, repository.NewBooking{
			CustomerName:    "Max Mustermann",
			CustomerAddress: "Hobergerfeld 5",
			ServiceDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			BinType:         models.BinRestmuell,
			ServiceScope:    models.ScopeOut,
			PriceCents:      500,
			IsMonthly:       true,
		})
		assert.NoError(t, err)
		return srv, b
	}

	t.Run("ListBookings", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/bookings", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Bookings []service.BookingView `json:"bookings"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Bookings, 1)
	})

	t.Run("CompleteRollsMonthlyForward", func(t *testing.T) {
		srv, b := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/bookings/"+b.ID+"/complete", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/bookings", nil))
		var resp struct {
			Bookings []service.BookingView `json:"bookings"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Bookings, 2)
	})

	t.Run("SetPaid", func(t *testing.T) {
		srv, b := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
			"/api/admin/bookings/"+b.ID+"/paid", strings.NewReader(`{"paid": true}`)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("DeleteUnknownIs404", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/bookings/unbekannt", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Subscriptions", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?slots=3", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Subscriptions []service.Subscription `json:"subscriptions"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Subscriptions, 1)
		assert.Len(t, resp.Subscriptions[0].Plan, 3)
	})

	t.Run("SubscriptionsSlotsClamped", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/subscriptions?slots=1000000000", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Subscriptions []service.Subscription `json:"subscriptions"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Subscriptions, 1)
		assert.LessOrEqual(t, len(resp.Subscriptions[0].Plan), maxDateCount)
	})

	t.Run("CancelSubscription", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/subscriptions/cancel",
			strings.NewReader(`{"name":"Max Mustermann","address":"Hobergerfeld 5","bin_type":"Restmüll"}`)))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]int
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp["cancelled"])
	})

	t.Run("Export", func(t *testing.T) {
		srv, _ := seed(t)
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/export", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
		assert.NotZero(t, rec.Body.Len())
	})
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.New(io.Discard)
	resolver := schedule.New(schedule.Config{})
	store := repository.NewMemoryStore()
	svc := service.NewBookingService(store, resolver, events.NewEventBus(), 18, &logger)
	auth, _ := LoadAuth("", &logger)
	srv := NewServer(svc, resolver, auth, &logger, Options{RateLimitRPS: 1, RateBurst: 1})

	routes := srv.Routes()
	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{}`))
		r.RemoteAddr = "10.0.0.1:1234"
		return r
	}

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req())
	assert.NotEqual(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, req())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
