// Package pricing holds the fixed rate table for curbside services.
package pricing

import "tonnenheld/internal/models"

// Prices in cents. Single-visit rates and monthly subscription rates are
// keyed by service scope; the booking stores the result at creation time.
const (
	singleOneWay  = 100
	singleBothWay = 150
	monthlyOneWay = 500
	monthlyBoth   = 900
)

// PriceCents returns the price for a service scope, depending on whether
// the booking is part of a monthly subscription.
func PriceCents(scope models.ServiceScope, monthly bool) int64 {
	if monthly {
		if scope == models.ScopeInOut {
			return monthlyBoth
		}
		return monthlyOneWay
	}
	if scope == models.ScopeInOut {
		return singleBothWay
	}
	return singleOneWay
}
