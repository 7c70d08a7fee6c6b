package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequests, rateLimited) }

var (
	httpRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request latency by route pattern and status.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 15000, 30000},
		},
		[]string{"route", "status"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		},
		[]string{"route"},
	)
)

func ObserveHTTP(route string, status int, ms int64) {
	httpRequests.WithLabelValues(norm(route), strconv.Itoa(status)).Observe(float64(ms))
}

func IncRateLimited(route string) {
	rateLimited.WithLabelValues(norm(route)).Inc()
}
