// Package exchange converts a subject's base-currency price into the target
// currency of the pipeline run.
package exchange

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/rates"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// AdapterKey uniquely identifies the adapter in a registry.
const AdapterKey = "pricing.exchange"

// DefaultPrecision rounds converted amounts to the nearest 50 minor units.
const DefaultPrecision = 50

// Adapter establishes the baseline price in a foreign currency. It replaces
// the accumulated sheet rather than correcting it: conversion defines the
// price, it does not amend one.
type Adapter struct {
	Source rates.Source
	// Supported lists the target currencies the adapter activates for.
	Supported []string
	Precision int64
}

// New constructs the adapter over a rate source.
func New(source rates.Source, supported []string) Adapter {
	normalised := make([]string, 0, len(supported))
	for _, code := range supported {
		normalised = append(normalised, strings.ToUpper(strings.TrimSpace(code)))
	}
	return Adapter{Source: source, Supported: normalised, Precision: DefaultPrecision}
}

// Key implements engine.Adapter.
func (Adapter) Key() string { return AdapterKey }

// Version implements engine.Adapter.
func (Adapter) Version() string { return "1.0.0" }

// Label implements engine.Adapter.
func (Adapter) Label() string { return "Currency conversion" }

// OrderIndex implements engine.Adapter. Conversion establishes the baseline,
// so it runs before discounts and taxes.
func (Adapter) OrderIndex() int { return 1 }

// IsActivatedFor gates on the target currency being supported and differing
// from the subject's base currency. A subject carrying an explicitly
// configured price in the target currency needs no conversion; that price
// wins.
func (a Adapter) IsActivatedFor(pctx engine.Context) bool {
	currency := strings.ToUpper(strings.TrimSpace(pctx.Currency))
	if currency == "" || currency == strings.ToUpper(pctx.Subject.BaseCurrency) {
		return false
	}
	if _, ok := pctx.Subject.BasePrice(currency); ok {
		return false
	}
	return slices.Contains(a.Supported, currency)
}

// Calculate converts the subject's base price. A subject without a price in
// its own base currency yields a pass-through, not an error: a missing
// configuration degrades to zero contribution.
func (a Adapter) Calculate(ctx context.Context, pctx engine.Context, prev *sheet.Sheet) (*sheet.Sheet, error) {
	base, ok := pctx.Subject.BasePrice(pctx.Subject.BaseCurrency)
	if !ok {
		return engine.PassThrough(prev)
	}
	if a.Source == nil {
		return nil, fmt.Errorf("exchange: rate source not configured")
	}

	rate, err := a.Source.Rate(ctx, base.Currency, pctx.Currency)
	if err != nil {
		// A silently unconverted price would be financially wrong; fail the
		// run instead.
		return nil, fmt.Errorf("exchange: %w", err)
	}

	quantity := int64(pctx.EffectiveQuantity())
	converted := money.Quantize(decimal.NewFromInt(base.Value * quantity).Mul(rate.Value))
	converted = money.RoundToNearest(converted, a.precision())

	result := sheet.New(pctx.Currency)
	result.AddItem(money.Row{
		Amount:     money.Amount{Value: converted, Currency: result.Currency()},
		IsTaxable:  pctx.Subject.IsTaxable,
		IsNetPrice: pctx.Subject.IsNetPrice,
		Meta:       money.Meta{Adapter: AdapterKey},
	})
	return result, nil
}

func (a Adapter) precision() int64 {
	if a.Precision <= 0 {
		return DefaultPrecision
	}
	return a.Precision
}
