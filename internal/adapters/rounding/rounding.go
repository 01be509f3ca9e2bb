// Package rounding reconciles category totals against a cash rounding
// precision by appending difference-only correction rows.
package rounding

import (
	"context"

	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// AdapterKey uniquely identifies the adapter in a registry.
const AdapterKey = "pricing.round"

// DefaultPrecision is the cash precision in minor units (Swiss 5-cent
// rounding).
const DefaultPrecision = 5

// RoundFunc rounds a minor-unit value to the given precision for a currency.
type RoundFunc func(value, precision int64, currency string) int64

// Adapter appends per-category correction rows holding the difference
// between each net total and its rounded value. Corrections are never the
// full restated amount, which keeps the sheet an incremental ledger. Running
// the adapter on an already-rounded sheet appends nothing.
type Adapter struct {
	Precision int64
	Round     RoundFunc
}

// New constructs the adapter with the default precision and rounding policy.
func New() Adapter {
	return Adapter{Precision: DefaultPrecision}
}

// Key implements engine.Adapter.
func (Adapter) Key() string { return AdapterKey }

// Version implements engine.Adapter.
func (Adapter) Version() string { return "1.0.0" }

// Label implements engine.Adapter.
func (Adapter) Label() string { return "Cash precision rounding" }

// OrderIndex implements engine.Adapter. Rounding reconciles everything that
// came before, so it runs last.
func (Adapter) OrderIndex() int { return 90 }

// IsActivatedFor implements engine.Adapter; rounding applies universally.
func (Adapter) IsActivatedFor(engine.Context) bool { return true }

// Calculate appends correction rows for each category with a nonzero net
// total, a legacy uncategorised correction for the overall net, and a Taxes
// correction for the tax sum.
func (a Adapter) Calculate(_ context.Context, pctx engine.Context, prev *sheet.Sheet) (*sheet.Sheet, error) {
	if prev == nil {
		return engine.PassThrough(prev)
	}
	currency := prev.Currency()

	var overallNet, roundedSum int64
	for _, category := range money.BaseCategories {
		net := prev.Total(sheet.NetByCategory(category)).Value
		overallNet += net
		// A zero net contributes no correction row.
		if net == 0 {
			continue
		}
		rounded := a.roundTo(net, currency)
		roundedSum += rounded
		a.appendCorrection(prev, category, rounded-net, currency)
	}

	// Legacy consumers derive order gross from the sum of all non-tax
	// categories. When rounding the order as a whole disagrees with the sum
	// of the per-category roundings, an uncategorised residue row reconciles
	// the two.
	if diff := a.roundTo(overallNet, currency) - roundedSum; diff != 0 {
		prev.Add(money.Row{
			Category: money.CategoryNone,
			Amount:   money.Amount{Value: diff, Currency: currency},
			Meta:     money.Meta{Adapter: AdapterKey},
		})
	}

	if taxSum := prev.TaxSum(sheet.Query{}).Value; taxSum != 0 {
		if diff := a.roundTo(taxSum, currency) - taxSum; diff != 0 {
			prev.AddTax(money.Row{
				Amount: money.Amount{Value: diff, Currency: currency},
				Meta:   money.Meta{Adapter: AdapterKey},
			})
		}
	}
	return prev, nil
}

func (a Adapter) appendCorrection(s *sheet.Sheet, category money.Category, diff int64, currency string) {
	if diff == 0 {
		return
	}
	row := money.Row{
		Amount: money.Amount{Value: diff, Currency: currency},
		Meta:   money.Meta{Adapter: AdapterKey},
	}
	switch category {
	case money.CategoryItems:
		s.AddItem(row)
	case money.CategoryDelivery:
		s.AddDelivery(row)
	case money.CategoryPayment:
		s.AddPayment(row)
	case money.CategoryDiscounts:
		s.AddDiscount(row)
	}
}

func (a Adapter) roundTo(value int64, currency string) int64 {
	precision := a.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}
	if a.Round != nil {
		return a.Round(value, precision, currency)
	}
	return money.RoundToNearest(value, precision)
}
