//go:build !integration

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"interview-coach/internal/config"

	"github.com/rs/zerolog"
)

func TestWith_AttachesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithSessID(WithTraceID(context.Background(), "01HTRACE"), "sess-1")
	With(ctx, &base).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"trace_id":"01HTRACE"`) || !strings.Contains(out, `"session_id":"sess-1"`) {
		t.Fatalf("missing ids in %s", out)
	}
	if TraceID(ctx) != "01HTRACE" {
		t.Fatalf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("a long candidate answer", true); got != "a long candidate answer" {
		t.Fatalf("dev mode must not redact, got %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Fatalf("got %q", got)
	}
	if got := Redact("a long candidate answer", false); got != "a lo...er" {
		t.Fatalf("got %q", got)
	}
}

func TestBuild_LevelAndServiceField(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })

	var buf bytes.Buffer
	l := build(&buf, config.LogConfig{Level: "bogus"}, false)
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at default level: %s", out)
	}
	if !strings.Contains(out, `"service":"interview-coach"`) {
		t.Fatalf("service field missing: %s", out)
	}
}
