package adapter

import (
	"context"

	"interview-coach/internal/domain/model"
)

// TextGenerator is the port for the external LLM.
//
// Generate sends a system instruction, the prior conversation and a final user
// input, and returns free-form text. Implementations report rate limiting as
// domain.ErrUpstreamRateLimited and deadline expiry as domain.ErrUpstreamTimeout.
type TextGenerator interface {
	Generate(ctx context.Context, systemInstruction string, history []model.Message, input string) (string, error)
}
