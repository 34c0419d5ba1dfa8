// Package api exposes the HTTP surface: public booking and schedule
// endpoints plus the Basic-Auth-guarded admin endpoints.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tonnenheld/internal/metrics"
	"tonnenheld/internal/models"
	"tonnenheld/internal/pricing"
	"tonnenheld/internal/repository"
	"tonnenheld/internal/schedule"
	"tonnenheld/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dateLayout       = "2006-01-02"
	defaultDateCount = 5
	maxDateCount     = 26
)

// Server holds the handler dependencies.
type Server struct {
	svc      *service.BookingService
	resolver *schedule.Resolver
	auth     *Auth
	cache    *responseCache
	limiter  *ipLimiter
	logger   *zerolog.Logger
}

// Options tunes the optional server features.
type Options struct {
	Redis        *redis.Client
	CacheTTL     time.Duration
	RateLimitRPS int
	RateBurst    int
}

// NewServer wires the handler set.
func NewServer(svc *service.BookingService, resolver *schedule.Resolver, auth *Auth, logger *zerolog.Logger, opts Options) *Server {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 10
	}
	return &Server{
		svc:      svc,
		resolver: resolver,
		auth:     auth,
		cache:    newResponseCache(opts.Redis, opts.CacheTTL),
		limiter:  newIPLimiter(opts.RateLimitRPS, opts.RateBurst),
		logger:   logger,
	}
}

// Routes returns the configured mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/dates", s.handleDates)
	mux.HandleFunc("GET /api/dates/range", s.handleDatesRange)
	mux.HandleFunc("POST /api/bookings", s.limiter.middleware(s.handleCreateBooking))

	mux.HandleFunc("GET /api/admin/bookings", s.auth.Middleware(s.handleListBookings))
	mux.HandleFunc("GET /api/admin/stats", s.auth.Middleware(s.handleStats))
	mux.HandleFunc("GET /api/admin/subscriptions", s.auth.Middleware(s.handleSubscriptions))
	mux.HandleFunc("POST /api/admin/bookings/{id}/complete", s.auth.Middleware(s.handleComplete))
	mux.HandleFunc("POST /api/admin/bookings/{id}/paid", s.auth.Middleware(s.handleSetPaid))
	mux.HandleFunc("DELETE /api/admin/bookings/{id}", s.auth.Middleware(s.handleDelete))
	mux.HandleFunc("POST /api/admin/subscriptions/cancel", s.auth.Middleware(s.handleCancelSubscription))
	mux.HandleFunc("GET /api/admin/export", s.auth.Middleware(s.handleExport))

	return mux
}

type configResponse struct {
	Streets      []string              `json:"streets"`
	BinTypes     []models.BinType      `json:"bin_types"`
	Scopes       []models.ServiceScope `json:"service_scopes"`
	Prices       map[string]int64      `json:"prices_cents"`
	DeadlineHour int                   `json:"deadline_hour"`
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	resp := configResponse{
		Streets:  s.resolver.Streets(),
		BinTypes: models.BinTypes,
		Scopes:   []models.ServiceScope{models.ScopeOut, models.ScopeIn, models.ScopeInOut},
		Prices: map[string]int64{
			"single_one_way":  pricing.PriceCents(models.ScopeOut, false),
			"single_both":     pricing.PriceCents(models.ScopeInOut, false),
			"monthly_one_way": pricing.PriceCents(models.ScopeOut, true),
			"monthly_both":    pricing.PriceCents(models.ScopeInOut, true),
		},
		DeadlineHour: 18,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type datesResponse struct {
	Street string   `json:"street"`
	Bin    string   `json:"bin_type"`
	Dates  []string `json:"dates"`
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	street := r.URL.Query().Get("street")
	bin := models.BinType(r.URL.Query().Get("bin"))

	count := defaultDateCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}
	if count > maxDateCount {
		count = maxDateCount
	}

	key := fmt.Sprintf("dates:%s:%s:%d", street, bin, count)
	var resp datesResponse
	if s.cache.read(r.Context(), key, &resp) {
		metrics.ScheduleLookups.WithLabelValues("cache").Inc()
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	dates := s.resolver.NextDates(street, bin, count)
	resp = datesResponse{Street: street, Bin: string(bin), Dates: formatDates(dates)}
	if len(dates) == 0 {
		metrics.ScheduleLookups.WithLabelValues("empty").Inc()
	} else {
		metrics.ScheduleLookups.WithLabelValues("ok").Inc()
	}

	s.cache.write(r.Context(), key, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDatesRange(w http.ResponseWriter, r *http.Request) {
	street := r.URL.Query().Get("street")
	bin := models.BinType(r.URL.Query().Get("bin"))

	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}

	dates := s.resolver.DatesInRange(street, bin, from, to)
	s.writeJSON(w, http.StatusOK, datesResponse{Street: street, Bin: string(bin), Dates: formatDates(dates)})
}

type createBookingRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Date         string `json:"date"`
	BinType      string `json:"bin_type"`
	ServiceScope string `json:"service_scope"`
	Monthly      bool   `json:"monthly"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	booking, err := s.svc.Create(r.Context(), service.CreateRequest{
		CustomerName:    req.Name,
		CustomerAddress: req.Address,
		ServiceDate:     date,
		BinType:         models.BinType(req.BinType),
		ServiceScope:    models.ServiceScope(req.ServiceScope),
		IsMonthly:       req.Monthly,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.List(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"bookings": views})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	slots := schedule.LookaheadDates
	if raw := r.URL.Query().Get("slots"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "slots must be a positive integer")
			return
		}
		slots = n
	}
	if slots > maxDateCount {
		slots = maxDateCount
	}

	subs, err := s.svc.Subscriptions(r.Context(), slots)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Complete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusDone})
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paid bool `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.svc.SetPaid(r.Context(), r.PathValue("id"), req.Paid); err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"paid": req.Paid})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cancelSubscriptionRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	BinType string `json:"bin_type"`
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req cancelSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	n, err := s.svc.CancelSubscription(r.Context(), req.Name, req.Address, models.BinType(req.BinType))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"cancelled": n})
}

func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrSubscriptionAbsent):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidBinType),
		errors.Is(err, service.ErrInvalidScope),
		errors.Is(err, service.ErrDeadlineExceeded),
		errors.Is(err, service.ErrEmptyCustomer):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}
