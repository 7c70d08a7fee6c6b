package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(storeConns, sessionCacheLookups, coachInfo) }

var (
	storeConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "interview_store_connections",
			Help: "Postgres pool connections backing the session store, by state.",
		},
		[]string{"state"},
	)

	sessionCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interview_cache_lookups_total",
			Help: "Redis read-through lookups by cache and outcome (hit, miss, stale).",
		},
		[]string{"cache", "outcome"},
	)

	coachInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "interview_coach_info",
			Help: "Always 1; labels identify the running binary.",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetDBPoolStats publishes a pgxpool snapshot. Idle and acquired connections
// do not add up to total while connections are being established.
func SetDBPoolStats(total, idle, inUse int32) {
	for state, n := range map[string]int32{"total": total, "idle": idle, "acquired": inUse} {
		storeConns.WithLabelValues(state).Set(float64(n))
	}
}

func IncCacheRequest(cache, outcome string) {
	sessionCacheLookups.WithLabelValues(norm(cache), norm(outcome)).Inc()
}

func SetBuildInfo(version, commit string) {
	if version == "" {
		version = "dev"
	}
	coachInfo.Reset()
	coachInfo.WithLabelValues(version, norm(commit), runtime.Version()).Set(1)
}
