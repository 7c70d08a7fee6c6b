package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey int

const (
	traceIDKey ctxKey = iota
	sessionIDKey
)

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func WithSessID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

func sessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// With returns a child of base tagged with whatever request ids ctx carries.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	zc := base.With()
	if id := TraceID(ctx); id != "" {
		zc = zc.Str("trace_id", id)
	}
	if id := sessionID(ctx); id != "" {
		zc = zc.Str("session_id", id)
	}
	l := zc.Logger()
	return &l
}
