package orm

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects request and short-circuit counters. It is safe for
// concurrent use.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	emptyTotal      *prometheus.CounterVec
}

// NewMetrics registers the restorm collectors on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	return &Metrics{
		requestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restorm_requests_total",
				Help: "Total number of HTTP requests sent",
			},
			[]string{"method", "status"},
		),
		requestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restorm_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		emptyTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "restorm_empty_shortcircuits_total",
				Help: "Queries answered without a request because they could match no rows",
			},
			[]string{"resource"},
		),
	}
}

// status is "error" when no response arrived.
func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(method, code).Inc()
	m.requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) observeEmpty(resource string) {
	m.emptyTotal.WithLabelValues(resource).Inc()
}
