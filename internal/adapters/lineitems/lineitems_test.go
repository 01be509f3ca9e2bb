package lineitems_test

import (
	"context"
	"testing"

	"github.com/noah-isme/pricing-engine/internal/adapters/lineitems"
	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

func TestAppendsUnitPriceTimesQuantity(t *testing.T) {
	adapter := lineitems.New()
	pctx := engine.Context{
		Currency: "CHF",
		Quantity: 3,
		Subject: engine.Subject{
			BaseCurrency: "CHF",
			Prices:       map[string]money.Amount{"CHF": money.MustNew(1500, "CHF")},
			IsTaxable:    true,
		},
	}
	if !adapter.IsActivatedFor(pctx) {
		t.Fatal("expected activation with a configured price")
	}
	result, err := adapter.Calculate(context.Background(), pctx, sheet.New("CHF"))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.Total(sheet.ByCategory(money.CategoryItems)).Value; got != 4500 {
		t.Fatalf("expected 4500, got %d", got)
	}
	rows := result.Rows()
	if !rows[0].IsTaxable {
		t.Fatal("expected taxable flag to carry over")
	}
	if rows[0].Meta.Adapter != lineitems.AdapterKey {
		t.Fatalf("expected adapter stamp, got %q", rows[0].Meta.Adapter)
	}
}

func TestInactiveWithoutPriceInCurrency(t *testing.T) {
	adapter := lineitems.New()
	pctx := engine.Context{
		Currency: "CHF",
		Subject: engine.Subject{
			BaseCurrency: "EUR",
			Prices:       map[string]money.Amount{"EUR": money.MustNew(1000, "EUR")},
		},
	}
	if adapter.IsActivatedFor(pctx) {
		t.Fatal("expected no activation without a CHF price")
	}
}

func TestZeroQuantityPricesOneUnit(t *testing.T) {
	adapter := lineitems.New()
	pctx := engine.Context{
		Currency: "CHF",
		Subject: engine.Subject{
			BaseCurrency: "CHF",
			Prices:       map[string]money.Amount{"CHF": money.MustNew(990, "CHF")},
		},
	}
	result, err := adapter.Calculate(context.Background(), pctx, sheet.New("CHF"))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if got := result.GrandTotal().Value; got != 990 {
		t.Fatalf("expected 990, got %d", got)
	}
}
