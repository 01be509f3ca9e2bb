// Package sheet implements the append-only ledger of monetary rows produced
// for one priced subject during one pipeline run.
package sheet

import (
	"iter"
	"strings"

	"github.com/noah-isme/pricing-engine/internal/money"
)

// Sheet collects rows for one priced subject. It is append-only within a
// calculation pass; adapters that replace instead of augment return a fresh
// sheet. Queries over missing data yield zero sums, never errors.
type Sheet struct {
	currency string
	rows     []money.Row
}

// New constructs an empty sheet denominated in the given currency.
func New(currency string) *Sheet {
	return &Sheet{currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Currency returns the currency the sheet is denominated in.
func (s *Sheet) Currency() string {
	if s == nil {
		return ""
	}
	return s.currency
}

// Len returns the number of rows appended so far.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rows)
}

// Rows returns a copy of the ordered row ledger.
func (s *Sheet) Rows() []money.Row {
	if s == nil {
		return nil
	}
	out := make([]money.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Add appends a row preserving its category. Used when re-emitting rows from
// a previous sheet and for corrections carrying CategoryNone.
func (s *Sheet) Add(row money.Row) {
	if s == nil {
		return
	}
	if row.Amount.Currency == "" {
		row.Amount.Currency = s.currency
	}
	s.rows = append(s.rows, row)
}

// AddItem appends a row in the Items category.
func (s *Sheet) AddItem(row money.Row) {
	row.Category = money.CategoryItems
	s.Add(row)
}

// AddDelivery appends a row in the Delivery category.
func (s *Sheet) AddDelivery(row money.Row) {
	row.Category = money.CategoryDelivery
	s.Add(row)
}

// AddPayment appends a row in the Payment category.
func (s *Sheet) AddPayment(row money.Row) {
	row.Category = money.CategoryPayment
	s.Add(row)
}

// AddDiscount appends a row in the Discounts category. DiscountID may be
// empty only for engine-level corrections; externally sourced discounts must
// carry the identifier they originate from.
func (s *Sheet) AddDiscount(row money.Row) {
	row.Category = money.CategoryDiscounts
	s.Add(row)
}

// AddTax appends a row in the Taxes category.
func (s *Sheet) AddTax(row money.Row) {
	row.Category = money.CategoryTaxes
	s.Add(row)
}

// FilterBy returns a lazy, restartable sequence over rows matching pred.
// A nil predicate matches every row.
func (s *Sheet) FilterBy(pred func(money.Row) bool) iter.Seq[money.Row] {
	return func(yield func(money.Row) bool) {
		if s == nil {
			return
		}
		for _, row := range s.rows {
			if pred != nil && !pred(row) {
				continue
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Query restricts Total and TaxSum to a subset of the ledger. A nil Category
// matches every row. UseNetPrice computes net-of-tax sums by excluding Taxes
// rows: under the gross-with-embedded-tax convention a tax adapter nets the
// base rows when it splits out their tax portion, so the remaining category
// rows already carry net amounts.
type Query struct {
	Category    *money.Category
	UseNetPrice bool
}

// ByCategory is a convenience constructor for a category-restricted query.
func ByCategory(category money.Category) Query {
	return Query{Category: &category}
}

// NetByCategory restricts to one category and computes its net-of-tax total.
func NetByCategory(category money.Category) Query {
	return Query{Category: &category, UseNetPrice: true}
}

// Total sums rows matching the query. The sheet convention is gross with
// embedded tax: an unrestricted Total covers every row including Taxes.
func (s *Sheet) Total(q Query) money.Amount {
	if s == nil {
		return money.Amount{}
	}
	var sum int64
	for _, row := range s.rows {
		if q.Category != nil && row.Category != *q.Category {
			continue
		}
		if q.UseNetPrice && row.Category == money.CategoryTaxes {
			continue
		}
		sum += row.Amount.Value
	}
	return money.Amount{Value: sum, Currency: s.currency}
}

// GrandTotal sums every row on the sheet.
func (s *Sheet) GrandTotal() money.Amount {
	return s.Total(Query{})
}

// TaxSum sums Taxes rows only, optionally restricted to taxes attributed to
// one base category.
func (s *Sheet) TaxSum(q Query) money.Amount {
	if s == nil {
		return money.Amount{}
	}
	var sum int64
	for _, row := range s.rows {
		if row.Category != money.CategoryTaxes {
			continue
		}
		if q.Category != nil && row.BaseCategory != *q.Category {
			continue
		}
		sum += row.Amount.Value
	}
	return money.Amount{Value: sum, Currency: s.currency}
}
