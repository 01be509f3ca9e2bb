package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/pricing-engine/internal/resilience"
)

// DefaultTTL bounds how long a fetched quote is considered fresh.
const DefaultTTL = 10 * time.Minute

// HTTPSource fetches rates from an ECB-style JSON endpoint
// (GET {base}/v1/latest?base=EUR&symbols=CHF).
type HTTPSource struct {
	BaseURL string
	HTTP    resilience.HTTPClient
	TTL     time.Duration
	Now     func() time.Time
}

// Rate fetches the latest quote for the pair. A missing symbol in the
// response maps to ErrUnavailable; transport failures propagate so the
// calling adapter can fail its pipeline run.
func (s *HTTPSource) Rate(ctx context.Context, base, quote string) (Rate, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if base == "" || quote == "" {
		return Rate{}, fmt.Errorf("%w: empty currency pair", ErrUnavailable)
	}

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/v1/latest"
	query := url.Values{}
	query.Set("base", base)
	query.Set("symbols", quote)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return Rate{}, fmt.Errorf("rates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return Rate{}, fmt.Errorf("rates: fetch %s: %w", PairKey(base, quote), err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("rates: fetch %s: unexpected status %s", PairKey(base, quote), resp.Status)
	}

	var payload struct {
		Base  string                 `json:"base"`
		Rates map[string]json.Number `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("rates: decode response: %w", err)
	}
	raw, ok := payload.Rates[quote]
	if !ok {
		return Rate{}, fmt.Errorf("%w: %s", ErrUnavailable, PairKey(base, quote))
	}
	value, err := decimal.NewFromString(raw.String())
	if err != nil || value.Sign() <= 0 {
		return Rate{}, fmt.Errorf("%w: malformed rate %q for %s", ErrUnavailable, raw.String(), PairKey(base, quote))
	}

	now := s.now()
	return Rate{
		Base:      base,
		Quote:     quote,
		Value:     value,
		FetchedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}, nil
}

func (s *HTTPSource) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultTTL
	}
	return s.TTL
}

func (s *HTTPSource) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
