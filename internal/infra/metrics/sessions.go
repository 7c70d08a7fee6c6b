package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(sessionsStarted, submissions, submissionsRecovered) }

var (
	sessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_sessions_started_total",
			Help: "Interview sessions started by interview type.",
		},
		[]string{"interview_type"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_submissions_total",
			Help: "Submit calls by result.",
		},
		[]string{"result"}, // completed | cached | conflict | rolled_back | not_persisted
	)

	submissionsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_submissions_recovered_total",
			Help: "Stale submitting sessions rolled back to active by the reaper.",
		},
	)
)

func IncSessionStarted(interviewType string) {
	sessionsStarted.WithLabelValues(norm(interviewType)).Inc()
}

func IncSubmission(result string) {
	submissions.WithLabelValues(norm(result)).Inc()
}

func AddSubmissionsRecovered(n int) {
	submissionsRecovered.Add(float64(n))
}
