// Package swisstax applies Swiss VAT to the taxable rows of a calculation
// sheet, splitting gross rows into net and tax portions.
package swisstax

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// AdapterKey uniquely identifies the adapter in a registry.
const AdapterKey = "pricing.tax-ch"

// TagPrefix selects the tax category from a subject tag, e.g.
// "swiss-tax-category:reduced".
const TagPrefix = "swiss-tax-category"

// Tax categories recognised on subject tags.
const (
	CategoryDefault = "default"
	CategoryReduced = "reduced"
	CategorySpecial = "special"
)

// rateChange captures one VAT revision. Entries are ordered newest first; the
// first entry whose effective date is not after the reference date wins.
type rateChange struct {
	effective time.Time
	rates     map[string]float64
}

var rateChanges = []rateChange{
	{
		effective: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		rates: map[string]float64{
			CategoryDefault: 0.081,
			CategoryReduced: 0.026,
			CategorySpecial: 0.038,
		},
	},
	{
		rates: map[string]float64{
			CategoryDefault: 0.077,
			CategoryReduced: 0.025,
			CategorySpecial: 0.037,
		},
	},
}

// RateAt returns the VAT rate for a tax category at the given reference date.
// Unknown categories fall back to the default rate.
func RateAt(category string, at time.Time) float64 {
	for _, change := range rateChanges {
		if change.effective.After(at) {
			continue
		}
		if rate, ok := change.rates[category]; ok {
			return rate
		}
		return change.rates[CategoryDefault]
	}
	return rateChanges[len(rateChanges)-1].rates[CategoryDefault]
}

// Adapter applies Swiss VAT. Activation is gated on the resolved tax country
// being Switzerland or Liechtenstein.
type Adapter struct{}

// New constructs the adapter.
func New() Adapter { return Adapter{} }

// Key implements engine.Adapter.
func (Adapter) Key() string { return AdapterKey }

// Version implements engine.Adapter.
func (Adapter) Version() string { return "1.0.0" }

// Label implements engine.Adapter.
func (Adapter) Label() string { return "Swiss VAT" }

// OrderIndex implements engine.Adapter. Taxes run after discounts, before
// rounding.
func (Adapter) OrderIndex() int { return 20 }

// IsActivatedFor gates on the delivery > billing > explicit country
// precedence resolving to CH or LI.
func (Adapter) IsActivatedFor(pctx engine.Context) bool {
	switch pctx.TaxCountry() {
	case "CH", "LI":
		return true
	}
	return false
}

// Calculate rebuilds the sheet, replacing each taxable row with its net
// portion plus a Taxes row. Non-taxable rows are re-emitted untouched, so the
// grand total is preserved and a second pass finds nothing left to tax.
func (a Adapter) Calculate(_ context.Context, pctx engine.Context, prev *sheet.Sheet) (*sheet.Sheet, error) {
	if prev == nil || prev.Len() == 0 {
		return engine.PassThrough(prev)
	}
	category := CategoryDefault
	if tagged, ok := pctx.Subject.Tag(TagPrefix); ok {
		category = tagged
	}
	rate := RateAt(category, pctx.ReferenceDate())

	result := sheet.New(prev.Currency())
	for row := range prev.FilterBy(nil) {
		if !row.IsTaxable {
			result.Add(row)
			continue
		}
		baseCategory := row.Category
		if row.IsNetPrice {
			tax := money.Quantize(decimal.NewFromInt(row.Amount.Value).Mul(decimal.NewFromFloat(rate)))
			row.IsTaxable = false
			row.Meta = money.Meta{Adapter: AdapterKey}
			result.Add(row)
			a.addTax(result, tax, rate, baseCategory)
			continue
		}
		// Gross row: tax portion = amount - amount/(1+rate).
		divided := money.Quantize(decimal.NewFromInt(row.Amount.Value).
			Div(decimal.NewFromFloat(1 + rate)))
		tax := row.Amount.Value - divided
		row.Amount.Value = divided
		row.IsTaxable = false
		row.Meta = money.Meta{Adapter: AdapterKey}
		result.Add(row)
		a.addTax(result, tax, rate, baseCategory)
	}
	return result, nil
}

func (a Adapter) addTax(result *sheet.Sheet, value int64, rate float64, baseCategory money.Category) {
	if value == 0 {
		return
	}
	result.AddTax(money.Row{
		Amount:       money.Amount{Value: value, Currency: result.Currency()},
		Rate:         rate,
		BaseCategory: baseCategory,
		Meta:         money.Meta{Adapter: AdapterKey},
	})
}
