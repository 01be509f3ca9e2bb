package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyRequired is returned when an amount is constructed without a currency code.
	ErrCurrencyRequired = errors.New("money: currency code is required")
	// ErrCurrencyMismatch is returned when arithmetic mixes two currencies.
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Amount is a monetary value expressed in integer minor units of one currency.
// It is a value type; operations return new amounts and never mutate the receiver.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

// New constructs an Amount from integer minor units and an ISO currency code.
func New(value int64, currency string) (Amount, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return Amount{}, fmt.Errorf("%w: %q", ErrCurrencyRequired, currency)
	}
	return Amount{Value: value, Currency: code}, nil
}

// MustNew behaves like New but panics on error. Useful for tests and static tables.
func MustNew(value int64, currency string) Amount {
	a, err := New(value, currency)
	if err != nil {
		panic(err)
	}
	return a
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Amount {
	return Amount{Value: 0, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// IsZero reports whether the amount has a zero value.
func (a Amount) IsZero() bool {
	return a.Value == 0
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{Value: -a.Value, Currency: a.Currency}
}

// Add returns a + b. Adding across currencies is an invariant violation.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value + b.Value, Currency: a.Currency}, nil
}

// Sub returns a - b. Subtracting across currencies is an invariant violation.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Currency != b.Currency {
		return Amount{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, a.Currency, b.Currency)
	}
	return Amount{Value: a.Value - b.Value, Currency: a.Currency}, nil
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Currency)
}

// RoundToNearest rounds value to the nearest multiple of precision, half away
// from zero. A precision below 2 leaves the value untouched.
func RoundToNearest(value, precision int64) int64 {
	if precision <= 1 {
		return value
	}
	rem := value % precision
	if rem == 0 {
		return value
	}
	half := precision / 2
	if rem > 0 {
		if rem >= half+precision%2 {
			return value + (precision - rem)
		}
		return value - rem
	}
	rem = -rem
	if rem >= half+precision%2 {
		return value - (precision - rem)
	}
	return value + rem
}

// Quantize collapses a decimal intermediate to integer minor units, rounding
// half away from zero. Every float or decimal computation must pass through
// here before the result is placed on a Row.
func Quantize(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
