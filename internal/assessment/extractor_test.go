//go:build !integration

package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
)

type stubGenerator struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	lastInput string
}

func (s *stubGenerator) Generate(ctx context.Context, instruction string, history []model.Message, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	s.lastInput = input
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "not json", nil
}

func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

func newTestExtractor(gen *stubGenerator, waits *[]time.Duration) *Extractor {
	log := zerolog.Nop()
	return NewExtractor(gen, &log, WithSleep(noSleep(waits)))
}

func extract(t *testing.T, e *Extractor, h []model.Message) *model.Assessment {
	t.Helper()
	a, err := e.Extract(context.Background(), h)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return a
}

func validJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(sampleAssessment())
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestExtract_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{responses: []string{"```json\n" + validJSON(t) + "\n```"}}
	var waits []time.Duration
	a := extract(t, newTestExtractor(gen, &waits), transcript("Tell me about yourself?", "I build APIs"))

	if a.Source != model.SourceGenerated {
		t.Fatalf("source = %s", a.Source)
	}
	if gen.calls != 1 || len(waits) != 0 {
		t.Fatalf("calls=%d waits=%d, want 1/0", gen.calls, len(waits))
	}
	if gen.lastInput != "Q1: Tell me about yourself?\nA1: I build APIs" {
		t.Errorf("qa context = %q", gen.lastInput)
	}
}

func TestExtract_RepeatedQuestionKeepsLaterPairs(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{responses: []string{validJSON(t)}}
	var waits []time.Duration
	h := []model.Message{
		{Role: model.RoleAI, Content: "What is Go?"},
		{Role: model.RoleHuman, Content: "A language"},
		{Role: model.RoleAI, Content: "Why channels?"},
		{Role: model.RoleAI, Content: "Why goroutines?"},
		{Role: model.RoleHuman, Content: "They are cheap"},
	}
	extract(t, newTestExtractor(gen, &waits), h)

	want := "Q1: What is Go?\nA1: A language\n\nQ2: Why goroutines?\nA2: They are cheap"
	if gen.lastInput != want {
		t.Fatalf("qa context = %q, want %q", gen.lastInput, want)
	}
	if got := len(Fallback(h).QuestionsAnalysis); got != 2 {
		t.Fatalf("fallback analysed %d pairs, want the same 2", got)
	}
}

func TestExtract_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{
		responses: []string{"", "{broken", validJSON(t)},
		errs:      []error{fmt.Errorf("%w: status 429", domain.ErrUpstreamRateLimited)},
	}
	var waits []time.Duration
	a := extract(t, newTestExtractor(gen, &waits), transcript("Why Go?", "Because"))

	if a.Source != model.SourceGenerated {
		t.Fatalf("expected generated assessment on third attempt, got %s", a.Source)
	}
	if gen.calls != 3 {
		t.Fatalf("calls = %d, want 3", gen.calls)
	}
	if len(waits) != 2 || waits[0] != time.Second {
		t.Fatalf("waits = %v, want two 1s waits", waits)
	}
}

func TestExtract_FallsBackAfterBudget(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{responses: []string{"nope", "still nope", "no"}}
	var waits []time.Duration
	h := transcript("Tell me about a project?", strongAnswer)
	a := extract(t, newTestExtractor(gen, &waits), h)

	if gen.calls != 3 {
		t.Fatalf("calls = %d, want 3", gen.calls)
	}
	if a.Source != model.SourceFallback {
		t.Fatalf("source = %s, want fallback", a.Source)
	}
	if len(a.QuestionsAnalysis) != 1 || a.Summary == "" || !a.Level.Valid() {
		t.Fatalf("fallback assessment is not schema-valid: %+v", a)
	}
}

func TestExtract_EmptyAnalysisIsRejected(t *testing.T) {
	t.Parallel()
	empty := `{"summary":"s","response_depth":"Novice","questions_analysis":[],"coaching_scores":{"clarity_of_motivation":3,"specificity_of_learning":3,"career_goal_alignment":3},"recommendations":[],"closure_message":"c"}`
	gen := &stubGenerator{responses: []string{empty, empty, empty}}
	var waits []time.Duration
	a := extract(t, newTestExtractor(gen, &waits), transcript("What is Go?", "A language"))
	if a.Source != model.SourceFallback {
		t.Fatalf("empty questions_analysis must not be accepted, got %s", a.Source)
	}
}

func TestExtract_NoPairsSkipsGenerator(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{}
	var waits []time.Duration
	a := extract(t, newTestExtractor(gen, &waits), transcript("Hello, ready?"))
	if gen.calls != 0 {
		t.Fatalf("generator should not be called, got %d calls", gen.calls)
	}
	if a.Source != model.SourceFallback || len(a.QuestionsAnalysis) != 0 {
		t.Fatalf("unexpected assessment %+v", a)
	}
}

func TestExtract_CanceledDuringRetryWaitAbandons(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	gen := &stubGenerator{responses: []string{"garbage"}}
	log := zerolog.Nop()
	e := NewExtractor(gen, &log, WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))
	a, err := e.Extract(ctx, transcript("How?", "Like this"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if a != nil {
		t.Fatalf("no assessment may be produced for an abandoned extraction, got %+v", a)
	}
	if gen.calls != 1 {
		t.Fatalf("calls = %d, want 1", gen.calls)
	}
}

func TestExtract_EndedContextAbandons(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &stubGenerator{errs: []error{context.Canceled}}
	var waits []time.Duration
	_, err := newTestExtractor(gen, &waits).Extract(ctx, transcript("How?", "Like this"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(waits) != 0 {
		t.Fatalf("must not wait for a retry after the context ended, waits=%v", waits)
	}
}
