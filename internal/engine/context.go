// Package engine composes independently authored pricing adapters into one
// deterministic calculation pipeline.
package engine

import (
	"strings"
	"time"

	"github.com/noah-isme/pricing-engine/internal/money"
)

// SubjectKind identifies what is being priced.
type SubjectKind string

const (
	// SubjectProduct prices one product line.
	SubjectProduct SubjectKind = "product"
	// SubjectDelivery prices a delivery option.
	SubjectDelivery SubjectKind = "delivery"
	// SubjectPayment prices a payment method fee.
	SubjectPayment SubjectKind = "payment"
	// SubjectOrder prices an entire order.
	SubjectOrder SubjectKind = "order"
)

// Subject describes the priceable thing a pipeline run operates on.
type Subject struct {
	Kind         SubjectKind
	ID           string
	Tags         []string
	BaseCurrency string
	// Prices holds the configured base prices keyed by currency code.
	Prices     map[string]money.Amount
	IsTaxable  bool
	IsNetPrice bool
}

// BasePrice returns the configured price in the given currency.
func (s Subject) BasePrice(currency string) (money.Amount, bool) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	price, ok := s.Prices[code]
	return price, ok
}

// Tag returns the value part of the first "prefix:value" tag on the subject.
func (s Subject) Tag(prefix string) (string, bool) {
	needle := prefix + ":"
	for _, tag := range s.Tags {
		if strings.HasPrefix(tag, needle) {
			return strings.TrimPrefix(tag, needle), true
		}
	}
	return "", false
}

// Discount is an externally sourced reduction the pipeline may apply. It
// carries either a percentage in basis points or a fixed amount off;
// PercentBps takes precedence when both are set.
type Discount struct {
	ID         string
	PercentBps int32
	AmountOff  int64
}

// Context is the read-only input to one pipeline run. Adapters never mutate
// it.
type Context struct {
	Subject  Subject
	Currency string
	// Country is the explicit country parameter, the last resort for tax
	// jurisdiction resolution.
	Country string
	// DeliveryCountry and BillingCountry come from the order addresses and
	// take precedence over Country, in that order.
	DeliveryCountry string
	BillingCountry  string
	Quantity        int
	Discounts       []Discount
	// Date is the reference instant for time-dependent rates. Zero means now.
	Date time.Time
}

// TaxCountry resolves the tax jurisdiction: delivery address first, then
// billing address, then the explicit country parameter.
func (c Context) TaxCountry() string {
	for _, country := range []string{c.DeliveryCountry, c.BillingCountry, c.Country} {
		if trimmed := strings.ToUpper(strings.TrimSpace(country)); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// ReferenceDate returns the instant time-dependent adapters should price at.
func (c Context) ReferenceDate() time.Time {
	if c.Date.IsZero() {
		return time.Now()
	}
	return c.Date
}

// EffectiveQuantity never reports less than one unit.
func (c Context) EffectiveQuantity() int {
	if c.Quantity < 1 {
		return 1
	}
	return c.Quantity
}
