package ai

import (
	"context"
	"fmt"
	"time"

	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopGenerator)(nil)

// NoopGenerator answers with canned interviewer text for local/dev runs.
// It never emits assessment JSON, so submissions exercise the fallback scorer.
type NoopGenerator struct {
	delay time.Duration
}

func NewNoopGenerator() *NoopGenerator {
	return &NoopGenerator{delay: 50 * time.Millisecond}
}

var noopQuestions = []string{
	"Can you walk me through a recent project you are proud of?",
	"How do you approach learning a technology you have never used?",
	"Describe a time you disagreed with a teammate. What happened?",
	"Why are you interested in this role?",
	"Where do you want your career to be in three years?",
}

func (n *NoopGenerator) Generate(ctx context.Context, _ string, history []model.Message, _ string) (string, error) {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	asked := 0
	for _, m := range history {
		if m.Role == model.RoleAI {
			asked++
		}
	}
	if len(history) > 0 && history[len(history)-1].Role == model.RoleHuman && asked > 0 {
		return fmt.Sprintf("Thanks. %s", noopQuestions[asked%len(noopQuestions)]), nil
	}
	return noopQuestions[asked%len(noopQuestions)], nil
}
