package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(extractionAttempts, assessmentsProduced) }

var (
	extractionAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_extraction_attempts_total",
			Help: "Assessment extraction attempts by outcome.",
		},
		[]string{"outcome"}, // success | invalid | no_object | rate_limited | timeout | canceled | upstream_error | error
	)

	assessmentsProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessments_produced_total",
			Help: "Assessments produced, split by generated vs fallback.",
		},
		[]string{"source"},
	)
)

func IncExtractionAttempt(outcome string) {
	extractionAttempts.WithLabelValues(norm(outcome)).Inc()
}

func IncAssessment(source string) {
	assessmentsProduced.WithLabelValues(norm(source)).Inc()
}
