// Package lineitems establishes the base Items rows for a priced subject.
package lineitems

import (
	"context"

	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// AdapterKey uniquely identifies the adapter in a registry.
const AdapterKey = "pricing.line-items"

// Adapter appends the subject's configured base price, multiplied by the
// requested quantity, as the first Items row of the pipeline.
type Adapter struct{}

// New constructs the adapter.
func New() Adapter { return Adapter{} }

// Key implements engine.Adapter.
func (Adapter) Key() string { return AdapterKey }

// Version implements engine.Adapter.
func (Adapter) Version() string { return "1.0.0" }

// Label implements engine.Adapter.
func (Adapter) Label() string { return "Base price line items" }

// OrderIndex implements engine.Adapter. Base prices come first.
func (Adapter) OrderIndex() int { return 0 }

// IsActivatedFor reports whether the subject carries a price in the target
// currency.
func (Adapter) IsActivatedFor(pctx engine.Context) bool {
	_, ok := pctx.Subject.BasePrice(pctx.Currency)
	return ok
}

// Calculate appends one Items row of unit price times quantity.
func (a Adapter) Calculate(_ context.Context, pctx engine.Context, prev *sheet.Sheet) (*sheet.Sheet, error) {
	unit, ok := pctx.Subject.BasePrice(pctx.Currency)
	if !ok {
		return engine.PassThrough(prev)
	}
	if prev == nil {
		prev = sheet.New(pctx.Currency)
	}
	prev.AddItem(money.Row{
		Amount:     money.Amount{Value: unit.Value * int64(pctx.EffectiveQuantity()), Currency: unit.Currency},
		IsTaxable:  pctx.Subject.IsTaxable,
		IsNetPrice: pctx.Subject.IsNetPrice,
		Meta:       money.Meta{Adapter: AdapterKey},
	})
	return prev, nil
}
