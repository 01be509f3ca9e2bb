package quote

import (
	"context"
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricing-engine/internal/common"
	"github.com/noah-isme/pricing-engine/internal/engine"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/sheet"
)

// PriceInput is a configured price for the subject in one currency.
type PriceInput struct {
	Currency string `json:"currency" validate:"required,len=3"`
	Amount   int64  `json:"amount" validate:"gte=0"`
}

// SubjectInput describes the thing being priced.
type SubjectInput struct {
	Kind         string       `json:"kind" validate:"omitempty,oneof=product delivery payment order"`
	ID           string       `json:"id"`
	Tags         []string     `json:"tags"`
	BaseCurrency string       `json:"baseCurrency" validate:"required,len=3"`
	Prices       []PriceInput `json:"prices" validate:"required,min=1,dive"`
	IsTaxable    bool         `json:"taxable"`
	IsNetPrice   bool         `json:"netPrice"`
}

// DiscountInput describes one discount to apply. A discount is either
// percentage-based or a fixed amount off; carrying both is rejected.
type DiscountInput struct {
	ID         string `json:"id" validate:"required"`
	PercentBps int32  `json:"percentBps" validate:"gte=0,lte=10000"`
	AmountOff  int64  `json:"amountOff" validate:"gte=0,excluded_with=PercentBps"`
}

// Request is the payload for a quote calculation.
type Request struct {
	Currency        string          `json:"currency" validate:"required,len=3"`
	Country         string          `json:"country" validate:"omitempty,len=2"`
	DeliveryCountry string          `json:"deliveryCountry" validate:"omitempty,len=2"`
	BillingCountry  string          `json:"billingCountry" validate:"omitempty,len=2"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	Subject         SubjectInput    `json:"subject" validate:"required"`
	Discounts       []DiscountInput `json:"discounts" validate:"dive"`
	Date            string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RowView is one calculation row as returned to clients.
type RowView struct {
	Category     string  `json:"category"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	Taxable      bool    `json:"taxable,omitempty"`
	NetPrice     bool    `json:"netPrice,omitempty"`
	Rate         float64 `json:"rate,omitempty"`
	BaseCategory string  `json:"baseCategory,omitempty"`
	DiscountID   string  `json:"discountId,omitempty"`
	Adapter      string  `json:"adapter"`
}

// Response is the outcome of a quote calculation.
type Response struct {
	QuoteID      string    `json:"quoteId"`
	Currency     string    `json:"currency"`
	Total        int64     `json:"total"`
	TaxSum       int64     `json:"taxSum"`
	Rows         []RowView `json:"rows"`
	CalculatedAt time.Time `json:"calculatedAt"`
}

// Service turns quote requests into priced responses via the engine director.
type Service struct {
	Director *engine.Director
	Validate *validator.Validate
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewService constructs a quote service with a fresh validator.
func NewService(director *engine.Director, logger zerolog.Logger) *Service {
	return &Service{
		Director: director,
		Validate: validator.New(),
		Logger:   logger,
	}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Quote validates the request, runs the adapter pipeline and shapes the result.
func (s *Service) Quote(ctx context.Context, req Request) (Response, error) {
	if s == nil || s.Director == nil {
		return Response{}, common.NewAppError("INTERNAL", "quote service not configured", http.StatusInternalServerError, nil)
	}
	if s.Validate != nil {
		if err := s.Validate.Struct(req); err != nil {
			return Response{}, common.NewAppError("VALIDATION", "invalid quote request", http.StatusUnprocessableEntity, err)
		}
	}

	pctx, err := s.buildContext(req)
	if err != nil {
		return Response{}, err
	}

	result, err := s.Director.Calculate(ctx, pctx)
	if err != nil {
		s.Logger.Error().Err(err).Str("currency", pctx.Currency).Msg("quote calculation failed")
		return Response{}, common.NewAppError("CALCULATION_FAILED", "price could not be calculated", http.StatusBadGateway, err)
	}

	resp := Response{
		QuoteID:      uuid.NewString(),
		Currency:     result.Currency(),
		Total:        result.GrandTotal().Value,
		TaxSum:       result.TaxSum(sheet.Query{}).Value,
		CalculatedAt: s.now(),
	}
	for _, row := range result.Rows() {
		view := RowView{
			Category:     string(row.Category),
			Amount:       row.Amount.Value,
			Currency:     row.Amount.Currency,
			Taxable:      row.IsTaxable,
			NetPrice:     row.IsNetPrice,
			Rate:         row.Rate,
			BaseCategory: string(row.BaseCategory),
			DiscountID:   row.DiscountID,
			Adapter:      row.Meta.Adapter,
		}
		resp.Rows = append(resp.Rows, view)
	}
	return resp, nil
}

func (s *Service) buildContext(req Request) (engine.Context, error) {
	prices := make(map[string]money.Amount, len(req.Subject.Prices))
	for _, p := range req.Subject.Prices {
		cur := strings.ToUpper(strings.TrimSpace(p.Currency))
		prices[cur] = money.Amount{Value: p.Amount, Currency: cur}
	}

	var date time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return engine.Context{}, common.NewAppError("VALIDATION", "invalid date", http.StatusUnprocessableEntity, err)
		}
		date = parsed
	}

	discounts := make([]engine.Discount, 0, len(req.Discounts))
	for _, d := range req.Discounts {
		discounts = append(discounts, engine.Discount{
			ID:         d.ID,
			PercentBps: d.PercentBps,
			AmountOff:  d.AmountOff,
		})
	}

	kind := engine.SubjectKind(strings.TrimSpace(req.Subject.Kind))
	if kind == "" {
		kind = engine.SubjectProduct
	}

	return engine.Context{
		Subject: engine.Subject{
			Kind:         kind,
			ID:           req.Subject.ID,
			Tags:         req.Subject.Tags,
			BaseCurrency: strings.ToUpper(strings.TrimSpace(req.Subject.BaseCurrency)),
			Prices:       prices,
			IsTaxable:    req.Subject.IsTaxable,
			IsNetPrice:   req.Subject.IsNetPrice,
		},
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Country:         req.Country,
		DeliveryCountry: req.DeliveryCountry,
		BillingCountry:  req.BillingCountry,
		Quantity:        req.Quantity,
		Discounts:       discounts,
		Date:            date,
	}, nil
}
