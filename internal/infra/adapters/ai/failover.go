// File: internal/infra/adapters/ai/failover.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*Failover)(nil)

// Provider is a named generator in a failover chain.
type Provider struct {
	Name      string
	Generator adapter.TextGenerator
}

// Failover tries providers in order and moves on when one fails upstream.
// Caller cancellation stops the chain immediately.
type Failover struct {
	providers []Provider
	log       *zerolog.Logger
}

func NewFailover(logger *zerolog.Logger, providers ...Provider) (*Failover, error) {
	kept := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p.Generator != nil {
			p.Name = strings.ToLower(p.Name)
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("failover: no providers configured")
	}
	l := logger.With().Str("component", "GeneratorFailover").Logger()
	return &Failover{providers: kept, log: &l}, nil
}

// Names lists providers in the order they are tried.
func (f *Failover) Names() []string {
	out := make([]string, len(f.providers))
	for i, p := range f.providers {
		out[i] = p.Name
	}
	return out
}

func (f *Failover) Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error) {
	var errs []error
	for i, p := range f.providers {
		out, err := p.Generator.Generate(ctx, systemInstruction, history, input)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, err)
		if i < len(f.providers)-1 {
			f.log.Warn().Err(err).Str("provider", p.Name).Str("next", f.providers[i+1].Name).Msg("generator failed, trying next provider")
		}
	}
	return "", joinUpstream(errs)
}

// joinUpstream keeps the most specific domain error of the chain at the front.
// Rate limiting wins when any provider was throttled, then timeouts.
func joinUpstream(errs []error) error {
	joined := errors.Join(errs...)
	for _, target := range []error{domain.ErrUpstreamRateLimited, domain.ErrUpstreamTimeout} {
		if errors.Is(joined, target) {
			return fmt.Errorf("%w: all providers failed: %v", target, joined)
		}
	}
	return fmt.Errorf("%w: all providers failed: %v", domain.ErrUpstream, joined)
}
