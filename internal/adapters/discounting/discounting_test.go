package discounting_test

import (
	"context"
	"testing"

	"github.com/noah-isme/pricing-engine/internal/adapters/discounting"
	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

func itemsSheet(value int64) *sheet.Sheet {
	s := sheet.New("CHF")
	s.AddItem(money.Row{Amount: money.MustNew(value, "CHF"), Meta: money.Meta{Adapter: "test"}})
	return s
}

func TestPercentDiscount(t *testing.T) {
	adapter := discounting.New()
	pctx := engine.Context{
		Currency:  "CHF",
		Discounts: []engine.Discount{{ID: "promo-20", PercentBps: 2000}},
	}
	result, err := adapter.Calculate(context.Background(), pctx, itemsSheet(100_000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.Total(sheet.ByCategory(money.CategoryDiscounts)).Value; got != -20_000 {
		t.Fatalf("expected -20000, got %d", got)
	}
	rows := result.Rows()
	if rows[1].DiscountID != "promo-20" {
		t.Fatalf("expected discount id stamp, got %q", rows[1].DiscountID)
	}
}

func TestFixedDiscountCappedAtEligible(t *testing.T) {
	adapter := discounting.New()
	pctx := engine.Context{
		Currency:  "CHF",
		Discounts: []engine.Discount{{ID: "big", AmountOff: 50_000}},
	}
	result, err := adapter.Calculate(context.Background(), pctx, itemsSheet(30_000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.GrandTotal().Value; got != 0 {
		t.Fatalf("discount must not exceed eligible total, got %d", got)
	}
}

func TestStackedDiscountsShareEligibleTotal(t *testing.T) {
	adapter := discounting.New()
	pctx := engine.Context{
		Currency: "CHF",
		Discounts: []engine.Discount{
			{ID: "half", PercentBps: 5000},
			{ID: "rest", AmountOff: 90_000},
		},
	}
	result, err := adapter.Calculate(context.Background(), pctx, itemsSheet(100_000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.Total(sheet.ByCategory(money.CategoryDiscounts)).Value; got != -100_000 {
		t.Fatalf("expected cumulative cap at -100000, got %d", got)
	}
}

func TestZeroDiscountContributesNoRow(t *testing.T) {
	adapter := discounting.New()
	pctx := engine.Context{
		Currency:  "CHF",
		Discounts: []engine.Discount{{ID: "empty"}},
	}
	result, err := adapter.Calculate(context.Background(), pctx, itemsSheet(10_000))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.Len(); got != 1 {
		t.Fatalf("expected only the items row, got %d rows", got)
	}
}
