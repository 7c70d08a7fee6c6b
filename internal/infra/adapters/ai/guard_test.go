//go:build !integration

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
)

type fnGen func(ctx context.Context) (string, error)

func (f fnGen) Generate(ctx context.Context, _ string, _ []model.Message, _ string) (string, error) {
	return f(ctx)
}

func TestClassify(t *testing.T) {
	t.Parallel()
	bg := context.Background()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"gemini 429", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, domain.ErrUpstreamRateLimited},
		{"gemini 429 pointer", &genai.APIError{Code: http.StatusTooManyRequests}, domain.ErrUpstreamRateLimited},
		{"openai 429", &openai.Error{StatusCode: http.StatusTooManyRequests}, domain.ErrUpstreamRateLimited},
		{"text 429", errors.New("upstream said 429 Too Many Requests"), domain.ErrUpstreamRateLimited},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), domain.ErrUpstreamTimeout},
		{"gemini 500", genai.APIError{Code: http.StatusInternalServerError}, domain.ErrUpstream},
		{"other", errors.New("boom"), domain.ErrUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(bg, bg, tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if classify(bg, bg, nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestClassify_CallerCancelIsNotUpstream(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := classify(ctx, ctx, context.Canceled)
	if errors.Is(got, domain.ErrUpstream) || !errors.Is(got, context.Canceled) {
		t.Fatalf("got %v", got)
	}
}

func TestGuarded_TimesOut(t *testing.T) {
	t.Parallel()
	slow := fnGen(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	g := NewGuarded("slow", slow, 20*time.Millisecond)
	_, err := g.Generate(context.Background(), "", nil, "x")
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("want timeout, got %v", err)
	}
}

func TestGuarded_PassesThroughSuccess(t *testing.T) {
	t.Parallel()
	g := NewGuarded("ok", fnGen(func(ctx context.Context) (string, error) { return "hello", nil }), time.Second)
	out, err := g.Generate(context.Background(), "", nil, "x")
	if err != nil || out != "hello" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestLimited_CapsConcurrency(t *testing.T) {
	t.Parallel()
	var inFlight, peak int32
	release := make(chan struct{})
	inner := fnGen(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return "ok", nil
	})
	g := NewLimited(inner, 2)

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			_, _ = g.Generate(context.Background(), "", nil, "x")
			done <- struct{}{}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	for i := 0; i < 5; i++ {
		<-done
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Fatalf("peak concurrency %d exceeds limit", p)
	}
}

func TestLimited_WaitRespectsContext(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	defer close(block)
	g := NewLimited(fnGen(func(ctx context.Context) (string, error) { <-block; return "", nil }), 1)
	go func() { _, _ = g.Generate(context.Background(), "", nil, "x") }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Generate(ctx, "", nil, "y"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestTrimHistory_DropsOldestTurns(t *testing.T) {
	t.Parallel()
	count := func(s string) int { return len(s) }
	history := []model.Message{
		{Role: model.RoleAI, Content: "aaaaaaaaaa"},
		{Role: model.RoleHuman, Content: "bbbbbbbbbb"},
		{Role: model.RoleAI, Content: "cccccccccc"},
	}
	kept, total := trimHistory(count, 25, "sys", history, "in")
	if len(kept) != 2 || kept[0].Content != "bbbbbbbbbb" {
		t.Fatalf("kept = %+v", kept)
	}
	if total != 25 {
		t.Fatalf("total = %d", total)
	}

	all, _ := trimHistory(count, 0, "sys", history, "in")
	if len(all) != 3 {
		t.Fatalf("no limit must keep everything, got %d", len(all))
	}
}

func TestNoopGenerator_CyclesQuestions(t *testing.T) {
	t.Parallel()
	n := &NoopGenerator{}
	first, err := n.Generate(context.Background(), "", nil, "start")
	if err != nil || first != noopQuestions[0] {
		t.Fatalf("got %q, %v", first, err)
	}
	hist := []model.Message{{Role: model.RoleAI, Content: first}, {Role: model.RoleHuman, Content: "answer"}}
	next, _ := n.Generate(context.Background(), "", hist, "next")
	if next != "Thanks. "+noopQuestions[1] {
		t.Fatalf("got %q", next)
	}
}
