package swisstax_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricing-engine/internal/adapters/swisstax"
	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

var revisionDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestActivationCountryPrecedence(t *testing.T) {
	adapter := swisstax.New()
	cases := []struct {
		name string
		pctx engine.Context
		want bool
	}{
		{"delivery address wins", engine.Context{DeliveryCountry: "CH", BillingCountry: "DE", Country: "DE"}, true},
		{"delivery address overrides swiss billing", engine.Context{DeliveryCountry: "DE", BillingCountry: "CH"}, false},
		{"billing fallback", engine.Context{BillingCountry: "LI", Country: "DE"}, true},
		{"explicit country fallback", engine.Context{Country: "CH"}, true},
		{"outside switzerland", engine.Context{Country: "DE"}, false},
		{"no country at all", engine.Context{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, adapter.IsActivatedFor(tc.pctx))
		})
	}
}

func TestGrossRowSplitsIntoNetAndTax(t *testing.T) {
	s := sheet.New("CHF")
	s.AddItem(money.Row{
		Amount:    money.MustNew(100, "CHF"),
		IsTaxable: true,
		Meta:      money.Meta{Adapter: "test"},
	})

	adapter := swisstax.New()
	pctx := engine.Context{Currency: "CHF", Country: "CH", Date: revisionDate}
	result, err := adapter.Calculate(context.Background(), pctx, s)
	require.NoError(t, err)

	rows := result.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, money.CategoryItems, rows[0].Category)
	require.False(t, rows[0].IsTaxable)
	require.Equal(t, money.CategoryTaxes, rows[1].Category)
	require.Equal(t, money.CategoryItems, rows[1].BaseCategory)
	require.InEpsilon(t, 0.081, rows[1].Rate, 1e-9)

	// The split must reassemble the original gross amount exactly.
	require.Equal(t, int64(100), rows[0].Amount.Value+rows[1].Amount.Value)
	require.Equal(t, int64(100), result.GrandTotal().Value)
}

func TestNetRowGainsAdditiveTax(t *testing.T) {
	s := sheet.New("CHF")
	s.AddItem(money.Row{
		Amount:     money.MustNew(1000, "CHF"),
		IsTaxable:  true,
		IsNetPrice: true,
		Meta:       money.Meta{Adapter: "test"},
	})

	adapter := swisstax.New()
	pctx := engine.Context{Currency: "CHF", Country: "CH", Date: revisionDate}
	result, err := adapter.Calculate(context.Background(), pctx, s)
	require.NoError(t, err)

	require.Equal(t, int64(1000), result.Total(sheet.ByCategory(money.CategoryItems)).Value)
	require.Equal(t, int64(81), result.TaxSum(sheet.Query{}).Value)
	require.Equal(t, int64(1081), result.GrandTotal().Value)

	// Every row the adapter touched carries its key, net branch included.
	rows := result.Rows()
	require.Len(t, rows, 2)
	require.Equal(t, swisstax.AdapterKey, rows[0].Meta.Adapter)
	require.Equal(t, swisstax.AdapterKey, rows[1].Meta.Adapter)
}

func TestNonTaxableRowsPassUnchanged(t *testing.T) {
	s := sheet.New("CHF")
	s.AddDelivery(money.Row{Amount: money.MustNew(500, "CHF"), Meta: money.Meta{Adapter: "delivery"}})

	adapter := swisstax.New()
	pctx := engine.Context{Currency: "CHF", Country: "CH"}
	result, err := adapter.Calculate(context.Background(), pctx, s)
	require.NoError(t, err)

	rows := result.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "delivery", rows[0].Meta.Adapter)
	require.Equal(t, int64(500), rows[0].Amount.Value)
	require.Equal(t, int64(0), result.TaxSum(sheet.Query{}).Value)
}

func TestTaxationIsIdempotent(t *testing.T) {
	s := sheet.New("CHF")
	s.AddItem(money.Row{Amount: money.MustNew(100, "CHF"), IsTaxable: true, Meta: money.Meta{Adapter: "test"}})

	adapter := swisstax.New()
	pctx := engine.Context{Currency: "CHF", Country: "CH", Date: revisionDate}
	once, err := adapter.Calculate(context.Background(), pctx, s)
	require.NoError(t, err)
	twice, err := adapter.Calculate(context.Background(), pctx, once)
	require.NoError(t, err)
	require.Equal(t, once.GrandTotal().Value, twice.GrandTotal().Value)
	require.Equal(t, once.TaxSum(sheet.Query{}).Value, twice.TaxSum(sheet.Query{}).Value)
}

func TestRateAtRespectsRevisions(t *testing.T) {
	before := revisionDate.Add(-time.Hour)
	after := revisionDate.Add(time.Hour)

	require.InEpsilon(t, 0.077, swisstax.RateAt(swisstax.CategoryDefault, before), 1e-9)
	require.InEpsilon(t, 0.081, swisstax.RateAt(swisstax.CategoryDefault, after), 1e-9)
	require.InEpsilon(t, 0.025, swisstax.RateAt(swisstax.CategoryReduced, before), 1e-9)
	require.InEpsilon(t, 0.026, swisstax.RateAt(swisstax.CategoryReduced, after), 1e-9)
	require.InEpsilon(t, 0.038, swisstax.RateAt(swisstax.CategorySpecial, after), 1e-9)
	// Unknown categories fall back to the default rate.
	require.InEpsilon(t, 0.081, swisstax.RateAt("luxury", after), 1e-9)
}

func TestSubjectTagSelectsReducedRate(t *testing.T) {
	s := sheet.New("CHF")
	s.AddItem(money.Row{Amount: money.MustNew(1000, "CHF"), IsTaxable: true, IsNetPrice: true, Meta: money.Meta{Adapter: "test"}})

	adapter := swisstax.New()
	pctx := engine.Context{
		Currency: "CHF",
		Country:  "CH",
		Date:     revisionDate,
		Subject:  engine.Subject{Tags: []string{"swiss-tax-category:reduced"}},
	}
	result, err := adapter.Calculate(context.Background(), pctx, s)
	require.NoError(t, err)
	require.Equal(t, int64(26), result.TaxSum(sheet.Query{}).Value)
}
