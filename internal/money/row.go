package money

import (
	"errors"
	"fmt"
)

// Category classifies a ledger row.
type Category string

const (
	// CategoryNone marks correction rows kept outside the per-category totals.
	CategoryNone Category = ""
	// CategoryItems holds product line contributions.
	CategoryItems Category = "ITEMS"
	// CategoryDelivery holds delivery fee contributions.
	CategoryDelivery Category = "DELIVERY"
	// CategoryPayment holds payment fee contributions.
	CategoryPayment Category = "PAYMENT"
	// CategoryDiscounts holds negative discount contributions.
	CategoryDiscounts Category = "DISCOUNTS"
	// CategoryTaxes holds tax contributions, always additive and separate.
	CategoryTaxes Category = "TAXES"
)

// BaseCategories lists the non-tax categories in ledger order.
var BaseCategories = []Category{CategoryItems, CategoryDelivery, CategoryPayment, CategoryDiscounts}

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryItems, CategoryDelivery, CategoryPayment, CategoryDiscounts, CategoryTaxes:
		return true
	}
	return false
}

// ErrAdapterRequired is returned when a row is built without a producing adapter key.
var ErrAdapterRequired = errors.New("money: row adapter key is required")

// Meta carries audit information about the row producer.
type Meta struct {
	Adapter string `json:"adapter"`
}

// Row is one entry in a calculation sheet. Rows are pure data and are never
// mutated once appended; later adapters supersede them with new rows.
type Row struct {
	Category   Category `json:"category"`
	Amount     Amount   `json:"amount"`
	IsTaxable  bool     `json:"isTaxable"`
	IsNetPrice bool     `json:"isNetPrice"`
	// Rate is the tax rate used to derive a Taxes row, zero otherwise.
	Rate float64 `json:"rate,omitempty"`
	// BaseCategory records, on Taxes rows, the category the tax was derived
	// from. Attribution is category-level, not per-row.
	BaseCategory Category `json:"baseCategory,omitempty"`
	DiscountID   string   `json:"discountId,omitempty"`
	Meta         Meta     `json:"meta"`
}

// Validate checks the construction invariants of a row.
func (r Row) Validate() error {
	if !r.Category.Valid() {
		return fmt.Errorf("money: unknown category %q", string(r.Category))
	}
	if r.Amount.Currency == "" {
		return ErrCurrencyRequired
	}
	if r.Meta.Adapter == "" {
		return ErrAdapterRequired
	}
	return nil
}
