// Package metrics provides Prometheus metrics collection for the interactions API.
// It exports HTTP request metrics for the router and resolution metrics for the
// interaction core:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//   - interaction_resolutions_total: Counter with entry and outcome labels
//   - interaction_pair_lookups_total: Counter with shape label
//   - interaction_resolution_duration_seconds: Histogram with entry label
//   - reference_data_records: Gauge with kind label
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (client IPs currently tracked)",
		},
	)

	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_resolutions_total",
			Help: "Interaction resolutions by entry point and outcome",
		},
		[]string{"entry", "outcome"},
	)

	PairLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interaction_pair_lookups_total",
			Help: "Store lookups issued by the interaction core, by query shape",
		},
		[]string{"shape"},
	)

	ResolutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interaction_resolution_duration_seconds",
			Help:    "Interaction resolution latency",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"entry"},
	)

	ReferenceDataRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reference_data_records",
			Help: "Records held by the in-memory reference store",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(ResolutionsTotal)
	prometheus.MustRegister(PairLookupsTotal)
	prometheus.MustRegister(ResolutionDuration)
	prometheus.MustRegister(ReferenceDataRecords)
}
