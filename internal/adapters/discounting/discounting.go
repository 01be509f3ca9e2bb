// Package discounting applies externally sourced discounts as negative
// Discounts rows over the accumulated Items total.
package discounting

import (
	"context"

	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// AdapterKey uniquely identifies the adapter in a registry.
const AdapterKey = "pricing.discounts"

// Adapter converts the context's discounts into ledger rows. Discounts are
// capped so that the cumulative reduction never exceeds the eligible Items
// total; a discount that computes to zero contributes no row.
type Adapter struct{}

// New constructs the adapter.
func New() Adapter { return Adapter{} }

// Key implements engine.Adapter.
func (Adapter) Key() string { return AdapterKey }

// Version implements engine.Adapter.
func (Adapter) Version() string { return "1.0.0" }

// Label implements engine.Adapter.
func (Adapter) Label() string { return "Order discounts" }

// OrderIndex implements engine.Adapter. Runs after base prices, before taxes.
func (Adapter) OrderIndex() int { return 10 }

// IsActivatedFor reports whether the context carries any discounts.
func (Adapter) IsActivatedFor(pctx engine.Context) bool {
	return len(pctx.Discounts) > 0
}

// Calculate appends one Discounts row per applicable discount.
func (a Adapter) Calculate(_ context.Context, pctx engine.Context, prev *sheet.Sheet) (*sheet.Sheet, error) {
	if prev == nil {
		return engine.PassThrough(prev)
	}
	eligible := prev.Total(sheet.ByCategory(money.CategoryItems)).Value
	remaining := eligible
	for _, discount := range pctx.Discounts {
		off := amountOff(discount, eligible)
		if off > remaining {
			off = remaining
		}
		if off <= 0 {
			continue
		}
		remaining -= off
		prev.AddDiscount(money.Row{
			Amount:     money.Amount{Value: -off, Currency: prev.Currency()},
			IsTaxable:  pctx.Subject.IsTaxable,
			IsNetPrice: pctx.Subject.IsNetPrice,
			DiscountID: discount.ID,
			Meta:       money.Meta{Adapter: AdapterKey},
		})
	}
	return prev, nil
}

func amountOff(discount engine.Discount, eligible int64) int64 {
	if discount.PercentBps > 0 {
		return (eligible * int64(discount.PercentBps)) / 10000
	}
	return discount.AmountOff
}
