package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	pending    []prometheus.Collector
	registered bool
)

// register queues collectors from package init; MustRegister flushes them.
func register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	pending = append(pending, cs...)
}

// MustRegister adds every queued collector to the default registry. Calls
// after the first are no-ops, so tests and main can both invoke it.
func MustRegister() {
	mu.Lock()
	defer mu.Unlock()
	if registered {
		return
	}
	prometheus.MustRegister(pending...)
	registered = true
}

// norm lowercases label values and maps blanks to "unknown" to keep
// cardinality predictable.
func norm(s string) string {
	if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
		return s
	}
	return "unknown"
}
