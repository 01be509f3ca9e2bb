package obs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
	}
	if err := reg.Register(m.ReqTotal); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.ReqTotal = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			panic(fmt.Errorf("register counter: %w", err))
		}
	}
	if err := reg.Register(m.ReqDur); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.ReqDur = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			panic(fmt.Errorf("register histogram: %w", err))
		}
	}
	if err := reg.Register(m.InFlight); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.InFlight = are.ExistingCollector.(prometheus.Gauge)
		} else {
			panic(fmt.Errorf("register gauge: %w", err))
		}
	}
	return m
}
