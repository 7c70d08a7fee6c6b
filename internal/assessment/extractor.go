package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
	"interview-coach/internal/infra/metrics"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

const instruction = `You are a JSON generator for interview feedback. Below are question-answer pairs. You must evaluate all of them.
Reply with exactly one JSON object and nothing else: no prose, no markdown.
The object must have these fields:
  "summary": string,
  "response_depth": "Novice" | "Intermediate" | "Advanced",
  "questions_analysis": one entry per pair, each {"question": string, "response": string, "feedback": string,
     "strengths": [string], "improvements": [string], "score": number 0-10,
     "response_depth": "Novice" | "Intermediate" | "Advanced"},
  "coaching_scores": {"clarity_of_motivation": number 1-5, "specificity_of_learning": number 1-5,
     "career_goal_alignment": number 1-5},
  "recommendations": [string],
  "closure_message": string`

// Extractor turns the generator's free-form output into a validated Assessment,
// retrying a fixed number of times before falling back to heuristic scoring.
type Extractor struct {
	gen      adapter.TextGenerator
	attempts int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	log      *zerolog.Logger
}

type Option func(*Extractor)

func WithAttempts(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.attempts = n
		}
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(e *Extractor) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithSleep replaces the wait between attempts; tests use it to avoid real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Extractor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

func NewExtractor(gen adapter.TextGenerator, logger *zerolog.Logger, opts ...Option) *Extractor {
	l := logger.With().Str("component", "AssessmentExtractor").Logger()
	e := &Extractor{
		gen:      gen,
		attempts: DefaultAttempts,
		delay:    DefaultRetryDelay,
		sleep:    sleepCtx,
		log:      &l,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns an Assessment unless ctx ends first. Generator, parse and
// validation errors are absorbed by the retry budget and the deterministic
// fallback; a done ctx is returned as an error so the caller can abandon the
// submission instead of settling for heuristics it never ran out of attempts for.
func (e *Extractor) Extract(ctx context.Context, history []model.Message) (*model.Assessment, error) {
	pairs := model.PairTurns(history)
	if len(pairs) == 0 {
		e.log.Info().Msg("no question/answer pairs; using fallback assessment")
		return e.fallback(history), nil
	}
	qa := BuildQAContext(pairs)

	for attempt := 1; attempt <= e.attempts; attempt++ {
		a, err := e.try(ctx, qa, len(pairs))
		if err == nil {
			metrics.IncExtractionAttempt("success")
			metrics.IncAssessment(string(model.SourceGenerated))
			e.log.Debug().Int("attempt", attempt).Msg("assessment extracted")
			return a, nil
		}
		metrics.IncExtractionAttempt(outcomeOf(err))
		if cerr := ctx.Err(); cerr != nil {
			e.log.Warn().Err(cerr).Int("attempt", attempt).Msg("assessment abandoned")
			return nil, fmt.Errorf("extract assessment: %w", cerr)
		}
		e.log.Warn().Err(err).Int("attempt", attempt).Int("max", e.attempts).Msg("assessment attempt failed")

		if attempt < e.attempts {
			if err := e.sleep(ctx, e.delay); err != nil {
				e.log.Warn().Err(err).Int("attempt", attempt).Msg("assessment abandoned during retry wait")
				return nil, fmt.Errorf("extract assessment: %w", err)
			}
		}
	}
	return e.fallback(history), nil
}

func (e *Extractor) try(ctx context.Context, qa string, pairs int) (*model.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := e.gen.Generate(ctx, instruction, nil, qa)
	if err != nil {
		return nil, err
	}
	a, analysed, err := decode(raw)
	if err != nil {
		e.log.Debug().Str("preview", preview(raw, 200)).Msg("undecodable generator output")
		return nil, err
	}
	if analysed == 0 {
		return nil, &ValidationError{Problems: []string{"questions_analysis is empty"}}
	}
	if analysed != pairs {
		e.log.Warn().Int("pairs", pairs).Int("analysed", analysed).Msg("assessment does not cover every pair")
	}
	return a, nil
}

func (e *Extractor) fallback(history []model.Message) *model.Assessment {
	metrics.IncAssessment(string(model.SourceFallback))
	return Fallback(history)
}

// BuildQAContext renders pairs as "Q1: ...\nA1: ..." blocks separated by blank lines.
func BuildQAContext(pairs []model.QAPair) string {
	blocks := make([]string, 0, len(pairs))
	for i, p := range pairs {
		blocks = append(blocks, fmt.Sprintf("Q%d: %s\nA%d: %s", i+1, p.Question, i+1, p.Answer))
	}
	return strings.Join(blocks, "\n\n")
}

func outcomeOf(err error) string {
	var verr *ValidationError
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, errNoObject):
		return "no_object"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
