package engine

import (
	"context"

	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// Adapter is the contract every pricing plugin implements. Calculate receives
// the sheet accumulated by earlier adapters and returns the sheet the next
// adapter will see: either the same sheet with rows appended, or a fresh one
// when the adapter replaces the prior calculation entirely.
type Adapter interface {
	// Key uniquely identifies the adapter across the registry.
	Key() string
	Version() string
	Label() string
	// OrderIndex controls execution order; lower runs first.
	OrderIndex() int
	// IsActivatedFor is a pure predicate over the pricing context, evaluated
	// once per pipeline run.
	IsActivatedFor(pctx Context) bool
	Calculate(ctx context.Context, pctx Context, prev *sheet.Sheet) (*sheet.Sheet, error)
}

// PassThrough returns the accumulated sheet unchanged. Adapters that find
// nothing to contribute call this instead of inheriting fallthrough
// behaviour.
func PassThrough(prev *sheet.Sheet) (*sheet.Sheet, error) {
	return prev, nil
}
