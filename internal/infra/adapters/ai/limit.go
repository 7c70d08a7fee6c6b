package ai

import (
	"context"

	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*limited)(nil)

type limited struct {
	inner adapter.TextGenerator
	sem   chan struct{}
}

// NewLimited caps concurrent calls to inner. A waiting caller gives up when its context ends.
func NewLimited(inner adapter.TextGenerator, maxConcurrent int) adapter.TextGenerator {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limited{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limited) Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, systemInstruction, history, input)
}
