// Package rates provides the exchange-rate lookup capability the currency
// conversion adapter depends on.
package rates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when no rate exists for the requested pair.
var ErrUnavailable = errors.New("rates: rate unavailable")

// Rate is a quoted conversion rate between two currencies, valid until
// ExpiresAt.
type Rate struct {
	Base      string          `json:"base"`
	Quote     string          `json:"quote"`
	Value     decimal.Decimal `json:"value"`
	FetchedAt time.Time       `json:"fetchedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the quote is stale at the given instant.
func (r Rate) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Source looks up the conversion rate for one currency pair. Implementations
// must be safe for concurrent use; pipeline runs share one source.
type Source interface {
	Rate(ctx context.Context, base, quote string) (Rate, error)
}

// PairKey normalises a currency pair into a cache key.
func PairKey(base, quote string) string {
	return strings.ToUpper(strings.TrimSpace(base)) + "/" + strings.ToUpper(strings.TrimSpace(quote))
}
