package models

import (
	"strings"
	"time"
	"unicode"
)

// BinType is the category of waste container.
type BinType string

const (
	BinRestmuell  BinType = "Restmüll"
	BinPapier     BinType = "Papier"
	BinBio        BinType = "Bio"
	BinGelberSack BinType = "Gelber Sack"
)

// BinTypes lists all known bin types in display order.
var BinTypes = []BinType{BinRestmuell, BinPapier, BinBio, BinGelberSack}

// Valid reports whether the bin type is one of the known categories.
func (b BinType) Valid() bool {
	switch b {
	case BinRestmuell, BinPapier, BinBio, BinGelberSack:
		return true
	}
	return false
}

// ServiceScope describes which half of the curbside task is requested.
type ServiceScope string

const (
	ScopeOut   ServiceScope = "Nur Rausstellen"
	ScopeIn    ServiceScope = "Nur Reinstellen"
	ScopeInOut ServiceScope = "Raus & Rein"
)

// ServiceScopes lists all scopes in display order.
var ServiceScopes = []ServiceScope{ScopeOut, ScopeIn, ScopeInOut}

// Valid reports whether the scope is one of the known values.
func (s ServiceScope) Valid() bool {
	switch s {
	case ScopeOut, ScopeIn, ScopeInOut:
		return true
	}
	return false
}

// Booking status values. Transitions are one-way: Offen -> Erledigt.
const (
	StatusOpen = "Offen"
	StatusDone = "Erledigt"
)

// Booking represents a single curbside service job.
type Booking struct {
	ID              string       `json:"id"`
	CustomerName    string       `json:"customer_name"`
	CustomerAddress string       `json:"customer_address"`
	ServiceDate     time.Time    `json:"service_date"`
	BinType         BinType      `json:"bin_type"`
	ServiceScope    ServiceScope `json:"service_scope"`
	Status          string       `json:"status"`
	// PriceCents is fixed at creation from the rate table and never
	// recomputed. Free status is derived, not stored.
	PriceCents int64     `json:"price_cents"`
	Paid       bool      `json:"paid"`
	IsMonthly  bool      `json:"is_monthly"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsOpen reports whether the booking has not been completed yet.
func (b *Booking) IsOpen() bool {
	return b.Status == StatusOpen
}

// ServiceDay returns the service date truncated to day granularity.
// Stored dates may carry a time component; comparisons must ignore it.
func (b *Booking) ServiceDay() time.Time {
	return Day(b.ServiceDate)
}

// Day truncates a timestamp to midnight in its location.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CustomerKey identifies one customer across casing and whitespace
// differences in the stored name/address strings.
func (b *Booking) CustomerKey() string {
	return CustomerKey(b.CustomerName, b.CustomerAddress)
}

// BundleKey identifies one standing subscription arrangement:
// customer plus bin type.
func (b *Booking) BundleKey() string {
	return b.CustomerKey() + "|" + normalize(string(b.BinType))
}

// CustomerKey builds the normalized grouping key for a name/address pair.
func CustomerKey(name, address string) string {
	return normalize(name) + "|" + normalize(address)
}

// BundleKey builds the normalized grouping key for a subscription bundle.
func BundleKey(name, address string, bin BinType) string {
	return CustomerKey(name, address) + "|" + normalize(string(bin))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StreetFromAddress extracts the street name as the literal prefix before
// the first digit, trimmed. Best-effort parse: addresses without a clean
// name/number split yield whatever precedes the first digit, possibly the
// whole string. Callers must tolerate the result not matching any known
// street.
func StreetFromAddress(address string) string {
	for i, r := range address {
		if unicode.IsDigit(r) {
			return strings.TrimSpace(address[:i])
		}
	}
	return strings.TrimSpace(address)
}
