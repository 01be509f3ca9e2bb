package rates

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// CacheLookupsTotal counts rate cache lookups by layer and outcome.
	CacheLookupsTotal *prometheus.CounterVec
)

// MustRegisterMetrics initialises and registers the rate cache collectors.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_cache_lookups_total",
			Help:      "Count of exchange-rate cache lookups by layer and outcome.",
		}, []string{"layer", "result"})

		if err := reg.Register(CacheLookupsTotal); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				if v, okCast := are.ExistingCollector.(*prometheus.CounterVec); okCast {
					CacheLookupsTotal = v
				}
				return
			}
			panic(fmt.Errorf("register rates metric: %w", err))
		}
	})
}

func recordCacheLookup(layer, result string) {
	if CacheLookupsTotal == nil {
		return
	}
	CacheLookupsTotal.WithLabelValues(layer, result).Inc()
}
