package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricing-engine/internal/resilience"
)

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	breaker := resilience.NewBreaker(4, 0.5, time.Minute)
	for i := 0; i < 2; i++ {
		require.True(t, breaker.Allow())
		breaker.Report(true)
	}
	for i := 0; i < 2; i++ {
		require.True(t, breaker.Allow())
		breaker.Report(false)
	}
	require.False(t, breaker.Allow(), "breaker should be open at 50% failures")
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, 10*time.Millisecond)
	require.True(t, breaker.Allow())
	breaker.Report(false)
	require.False(t, breaker.Allow())

	time.Sleep(15 * time.Millisecond)
	require.True(t, breaker.Allow(), "cool-off elapsed, probe allowed")
	breaker.Report(true)
	require.True(t, breaker.Allow(), "successful probe closes the breaker")
}

func TestHTTPClientRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resilience.HTTPClient{
		Client:      server.Client(),
		Breaker:     resilience.NewBreaker(10, 0.9, time.Minute),
		BaseBackoff: time.Millisecond,
		MaxAttempts: 3,
	}
	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(3), hits.Load())
}

func TestHTTPClientReturnsOpenCircuit(t *testing.T) {
	breaker := resilience.NewBreaker(1, 0.5, time.Minute)
	require.True(t, breaker.Allow())
	breaker.Report(false)

	client := resilience.HTTPClient{
		Client:      &http.Client{},
		Breaker:     breaker,
		MaxAttempts: 2,
	}
	req, err := http.NewRequest(http.MethodGet, "http://localhost:0", nil)
	require.NoError(t, err)
	_, err = client.Do(context.Background(), req)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
}

func TestBackoffGrowsExponentially(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, 2*base, resilience.Backoff(base, 2, 0))
	require.Equal(t, 4*base, resilience.Backoff(base, 3, 0))
}
