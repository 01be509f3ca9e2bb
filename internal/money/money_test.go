package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountArithmeticExact(t *testing.T) {
	gross := MustNew(1003, "CHF")
	tax := MustNew(77, "CHF")
	net, err := gross.Sub(tax)
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if net.Value != 926 {
		t.Fatalf("expected 926, got %d", net.Value)
	}
	if rounded := RoundToNearest(net.Value, 5); rounded != 925 {
		t.Fatalf("expected 925, got %d", rounded)
	}
}

func TestAmountCurrencyMismatch(t *testing.T) {
	chf := MustNew(100, "CHF")
	eur := MustNew(100, "EUR")
	if _, err := chf.Add(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if _, err := chf.Sub(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestNewRejectsMissingCurrency(t *testing.T) {
	if _, err := New(10, ""); !errors.Is(err, ErrCurrencyRequired) {
		t.Fatalf("expected currency required, got %v", err)
	}
	a, err := New(10, " chf ")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if a.Currency != "CHF" {
		t.Fatalf("expected normalised CHF, got %q", a.Currency)
	}
}

func TestRoundToNearest(t *testing.T) {
	cases := []struct {
		value     int64
		precision int64
		want      int64
	}{
		{926, 5, 925},
		{832, 5, 830},
		{49, 5, 50},
		{-187, 5, -185},
		{1625, 50, 1650},
		{1624, 50, 1600},
		{-1625, 50, -1650},
		{7, 1, 7},
		{0, 5, 0},
	}
	for _, tc := range cases {
		if got := RoundToNearest(tc.value, tc.precision); got != tc.want {
			t.Fatalf("round %d to %d: expected %d, got %d", tc.value, tc.precision, tc.want, got)
		}
	}
}

func TestQuantize(t *testing.T) {
	d := decimal.NewFromInt(1000).Mul(decimal.RequireFromString("0.925"))
	if got := Quantize(d); got != 925 {
		t.Fatalf("expected 925, got %d", got)
	}
	if got := Quantize(decimal.RequireFromString("12.5")); got != 13 {
		t.Fatalf("expected 13, got %d", got)
	}
	if got := Quantize(decimal.RequireFromString("-12.5")); got != -13 {
		t.Fatalf("expected -13, got %d", got)
	}
}

func TestRowValidate(t *testing.T) {
	row := Row{Category: CategoryItems, Amount: MustNew(100, "CHF"), Meta: Meta{Adapter: "test"}}
	if err := row.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	row.Meta.Adapter = ""
	if err := row.Validate(); !errors.Is(err, ErrAdapterRequired) {
		t.Fatalf("expected adapter required, got %v", err)
	}
	row.Meta.Adapter = "test"
	row.Category = Category("BOGUS")
	if err := row.Validate(); err == nil {
		t.Fatal("expected category error")
	}
}
