package rates_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricing-engine/internal/rates"
	"github.com/noah-isme/pricing-engine/internal/resilience"
)

type countingSource struct {
	calls int
	value decimal.Decimal
	ttl   time.Duration
	err   error
}

func (s *countingSource) Rate(_ context.Context, base, quote string) (rates.Rate, error) {
	s.calls++
	if s.err != nil {
		return rates.Rate{}, s.err
	}
	now := time.Now()
	return rates.Rate{
		Base:      base,
		Quote:     quote,
		Value:     s.value,
		FetchedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}

func TestMemoryCacheServesFreshQuotes(t *testing.T) {
	source := &countingSource{value: decimal.RequireFromString("0.93"), ttl: time.Minute}
	cache := rates.NewMemoryCache(source, 10)

	ctx := context.Background()
	first, err := cache.Rate(ctx, "EUR", "CHF")
	require.NoError(t, err)
	second, err := cache.Rate(ctx, "eur", "chf")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls, "second lookup must be served from cache")
	require.True(t, first.Value.Equal(second.Value))
}

func TestMemoryCacheRefetchesExpiredQuotes(t *testing.T) {
	source := &countingSource{value: decimal.RequireFromString("0.93"), ttl: -time.Second}
	cache := rates.NewMemoryCache(source, 10)

	ctx := context.Background()
	_, err := cache.Rate(ctx, "EUR", "CHF")
	require.NoError(t, err)
	_, err = cache.Rate(ctx, "EUR", "CHF")
	require.NoError(t, err)
	require.Equal(t, 2, source.calls, "expired quote must trigger a refetch")
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	source := &countingSource{value: decimal.RequireFromString("1.1"), ttl: time.Hour}
	cache := rates.NewMemoryCache(source, 3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := cache.Rate(ctx, "EUR", fmt.Sprintf("C%02d", i))
		require.NoError(t, err)
	}
	// Touch the oldest pair so C01 becomes the eviction candidate.
	_, err := cache.Rate(ctx, "EUR", "C00")
	require.NoError(t, err)
	_, err = cache.Rate(ctx, "EUR", "C03")
	require.NoError(t, err)
	require.Equal(t, 3, cache.Len())

	calls := source.calls
	_, err = cache.Rate(ctx, "EUR", "C00")
	require.NoError(t, err)
	require.Equal(t, calls, source.calls, "recently used pair must survive eviction")
	_, err = cache.Rate(ctx, "EUR", "C01")
	require.NoError(t, err)
	require.Equal(t, calls+1, source.calls, "least recently used pair must have been evicted")
}

func TestHTTPSourceParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "EUR", r.URL.Query().Get("base"))
		require.Equal(t, "CHF", r.URL.Query().Get("symbols"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{"CHF":0.9312}}`))
	}))
	defer server.Close()

	source := &rates.HTTPSource{
		BaseURL: server.URL,
		HTTP:    resilience.HTTPClient{Client: server.Client()},
		TTL:     30 * time.Minute,
	}
	rate, err := source.Rate(context.Background(), "EUR", "CHF")
	require.NoError(t, err)
	require.True(t, rate.Value.Equal(decimal.RequireFromString("0.9312")))
	require.False(t, rate.Expired(time.Now()))
	require.True(t, rate.Expired(time.Now().Add(31*time.Minute)))
}

func TestHTTPSourceMissingSymbolIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"EUR","rates":{}}`))
	}))
	defer server.Close()

	source := &rates.HTTPSource{BaseURL: server.URL, HTTP: resilience.HTTPClient{Client: server.Client()}}
	_, err := source.Rate(context.Background(), "EUR", "XXX")
	require.ErrorIs(t, err, rates.ErrUnavailable)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	source := &countingSource{value: decimal.RequireFromString("0.93"), ttl: time.Minute}
	cache := &rates.RedisCache{
		Client: client,
		Source: source,
		Logger: zerolog.Nop(),
	}

	ctx := context.Background()
	_, err := cache.Rate(ctx, "EUR", "CHF")
	require.NoError(t, err)
	_, err = cache.Rate(ctx, "EUR", "CHF")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls, "second lookup must hit redis")
	require.True(t, mini.Exists("rates:EUR/CHF"))
}

func TestRedisCacheDegradesWithoutRedis(t *testing.T) {
	source := &countingSource{value: decimal.RequireFromString("0.93"), ttl: time.Minute}
	cache := &rates.RedisCache{Source: source, Logger: zerolog.Nop()}
	_, err := cache.Rate(context.Background(), "EUR", "CHF")
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)
}
