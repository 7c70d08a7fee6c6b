package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generatorCalls,
		generatorLatencyMs,
		generatorPromptTokens,
	)
}

var (
	generatorCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_calls_total",
			Help: "Text generator calls by provider and outcome.",
		},
		[]string{"provider", "outcome"}, // outcome: ok | rate_limited | timeout | error
	)

	generatorLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generator_latency_ms",
			Help:    "Text generator call latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000, 30000},
		},
		[]string{"provider"},
	)

	generatorPromptTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_prompt_tokens_total",
			Help: "Prompt tokens sent to the generator, as counted locally.",
		},
		[]string{"provider", "model"},
	)
)

func ObserveGeneratorCall(provider, outcome string, latencyMs int64) {
	generatorCalls.WithLabelValues(norm(provider), norm(outcome)).Inc()
	generatorLatencyMs.WithLabelValues(norm(provider)).Observe(float64(latencyMs))
}

func AddPromptTokens(provider, model string, n int) {
	if n <= 0 {
		return
	}
	generatorPromptTokens.WithLabelValues(norm(provider), norm(model)).Add(float64(n))
}
