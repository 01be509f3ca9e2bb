package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	// RunsTotal counts pipeline runs by result.
	RunsTotal *prometheus.CounterVec
	// AdapterDuration records per-adapter calculate latency in milliseconds.
	AdapterDuration *prometheus.HistogramVec
)

// MustRegisterMetrics initialises and registers the pipeline collectors.
func MustRegisterMetrics(namespace string, reg prometheus.Registerer) {
	metricsOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_runs_total",
			Help:      "Count of pricing pipeline runs by result.",
		}, []string{"result"})
		AdapterDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_adapter_duration_ms",
			Help:      "Latency of individual adapter calculations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"adapter"})

		mustRegisterCollector(reg, RunsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RunsTotal = v
			}
		})
		mustRegisterCollector(reg, AdapterDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				AdapterDuration = v
			}
		})
	})
}

func recordRun(result string) {
	if RunsTotal == nil {
		return
	}
	RunsTotal.WithLabelValues(result).Inc()
}

func observeAdapterDuration(adapter string, d time.Duration) {
	if AdapterDuration == nil {
		return
	}
	AdapterDuration.WithLabelValues(adapter).Observe(float64(d.Milliseconds()))
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register pricing metric: %w", err))
	}
}
