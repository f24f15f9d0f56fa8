package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viechat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "viechat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	StreamFragmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viechat",
			Subsystem: "relay",
			Name:      "stream_fragments_total",
			Help:      "Total text fragments forwarded to clients",
		},
		[]string{"provider"},
	)

	StreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viechat",
			Subsystem: "relay",
			Name:      "stream_errors_total",
			Help:      "Total relay failures by stage (pre_stream or mid_stream)",
		},
		[]string{"provider", "stage"},
	)

	SessionsTrimmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "viechat",
			Subsystem: "store",
			Name:      "sessions_trimmed_total",
			Help:      "Total chat sessions evicted by the retention policy",
		},
	)

	PromptsTrimmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "viechat",
			Subsystem: "store",
			Name:      "prompts_trimmed_total",
			Help:      "Total recent prompts evicted by the retention policy",
		},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordFragment records a forwarded stream fragment
func RecordFragment(provider string) {
	StreamFragmentsTotal.WithLabelValues(provider).Inc()
}

// RecordStreamError records a relay failure
func RecordStreamError(provider, stage string) {
	StreamErrorsTotal.WithLabelValues(provider, stage).Inc()
}

// RecordSessionsTrimmed records evicted sessions
func RecordSessionsTrimmed(n int) {
	SessionsTrimmedTotal.Add(float64(n))
}

// RecordPromptsTrimmed records evicted prompts
func RecordPromptsTrimmed(n int) {
	PromptsTrimmedTotal.Add(float64(n))
}
