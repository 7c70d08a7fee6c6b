package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"interview-coach/internal/config"
	"interview-coach/internal/domain/ports/adapter"
)

// Build assembles the configured providers into one generator.
// Each provider is bounded by the call timeout and the concurrency limit, then chained for failover.
func Build(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.TextGenerator, error) {
	providers := make([]Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		var raw adapter.TextGenerator
		switch name {
		case "gemini":
			g, err := NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.GeminiModel, cfg.MaxOutputTokens)
			if err != nil {
				return nil, fmt.Errorf("gemini: %w", err)
			}
			raw = g
		case "openai":
			g, err := NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.MaxOutputTokens, cfg.MaxPromptTokens)
			if err != nil {
				return nil, fmt.Errorf("openai: %w", err)
			}
			raw = g
		case "noop":
			raw = NewNoopGenerator()
		default:
			return nil, fmt.Errorf("unknown ai provider %q", name)
		}
		gen := NewLimited(NewGuarded(name, raw, cfg.Timeout), cfg.ConcurrentLimit)
		providers = append(providers, Provider{Name: name, Generator: gen})
	}

	f, err := NewFailover(logger, providers...)
	if err != nil {
		return nil, err
	}
	logger.Info().Strs("providers", f.Names()).Msg("text generators ready")
	return f, nil
}
