package engine

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// Director selects the adapters active for a context, orders them, and folds
// them over an initially empty sheet. It performs no monetary math itself.
type Director struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewDirector constructs a Director over the given registry.
func NewDirector(registry *Registry, logger zerolog.Logger) *Director {
	return &Director{registry: registry, logger: logger}
}

// Calculate runs the pipeline for one pricing context. Adapters run strictly
// sequentially; each depends on the accumulated sheet of all prior adapters.
// The first adapter error aborts the run, since a silently partial price
// would be financially wrong.
func (d *Director) Calculate(ctx context.Context, pctx Context) (*sheet.Sheet, error) {
	result := sheet.New(pctx.Currency)
	if d == nil || d.registry == nil {
		return result, nil
	}

	active := make([]Adapter, 0)
	for _, adapter := range d.registry.Adapters() {
		if adapter.IsActivatedFor(pctx) {
			active = append(active, adapter)
		}
	}
	// Stable: adapters sharing an order index keep registration order.
	slices.SortStableFunc(active, func(a, b Adapter) int {
		return cmp.Compare(a.OrderIndex(), b.OrderIndex())
	})

	for _, adapter := range active {
		started := time.Now()
		next, err := adapter.Calculate(ctx, pctx, result)
		observeAdapterDuration(adapter.Key(), time.Since(started))
		if err != nil {
			recordRun("error")
			return nil, fmt.Errorf("engine: adapter %s: %w", adapter.Key(), err)
		}
		if next != nil {
			result = next
		}
		d.logger.Debug().
			Str("adapter", adapter.Key()).
			Int("order_index", adapter.OrderIndex()).
			Int("rows", result.Len()).
			Int64("total", result.GrandTotal().Value).
			Msg("pricing_adapter_done")
	}

	recordRun("ok")
	d.logger.Debug().
		Str("subject", pctx.Subject.ID).
		Str("currency", pctx.Currency).
		Int("adapters", len(active)).
		Int64("total", result.GrandTotal().Value).
		Msg("pricing_run_done")
	return result, nil
}
