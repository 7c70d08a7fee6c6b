// File: internal/infra/adapters/ai/guard.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
	"interview-coach/internal/infra/metrics"
)

var _ adapter.TextGenerator = (*guarded)(nil)

// guarded bounds each call with a timeout and maps provider failures onto domain errors.
type guarded struct {
	name    string
	inner   adapter.TextGenerator
	timeout time.Duration
	now     func() time.Time
}

func NewGuarded(name string, inner adapter.TextGenerator, timeout time.Duration) adapter.TextGenerator {
	return &guarded{name: name, inner: inner, timeout: timeout, now: time.Now}
}

func (g *guarded) Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := g.now()
	out, err := g.inner.Generate(callCtx, systemInstruction, history, input)
	err = classify(ctx, callCtx, err)
	metrics.ObserveGeneratorCall(g.name, callOutcome(err), g.now().Sub(start).Milliseconds())
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.name, err)
	}
	return out, nil
}

// classify maps a raw provider error onto the domain taxonomy.
// parent is the caller's context; call is the per-call context carrying the timeout.
func classify(parent, call context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstreamRateLimited) || errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, domain.ErrUpstream) {
		return err
	}
	if parent.Err() != nil && errors.Is(err, parent.Err()) {
		// caller went away; not an upstream fault
		return err
	}
	if isRateLimited(err) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamRateLimited, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(call.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}

func isRateLimited(err error) bool {
	if geminiStatus(err) == http.StatusTooManyRequests || openAIStatus(err) == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(err.Error(), "429")
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
