package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"interview-coach/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger. Unknown or empty levels fall back to info;
// dev mode forces console output with caller info and disables sampling.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	var out io.Writer = os.Stdout
	if dev || strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return build(out, cfg, dev)
}

func build(out io.Writer, cfg config.LogConfig, dev bool) *zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	zc := zerolog.New(out).With().Timestamp().Str("service", "interview-coach")
	if dev {
		zc = zc.Caller()
	}
	l := zc.Logger()
	if cfg.Sampling && !dev {
		// first 100 per second pass, then every 100th
		l = l.Sample(&zerolog.BurstSampler{
			Burst:       100,
			Period:      time.Second,
			NextSampler: &zerolog.BasicSampler{N: 100},
		})
	}
	return &l
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// TraceDuration logs entry and exit of name at trace level.
//
//	defer logging.TraceDuration(logger, "InterviewUC.Submit")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		logger.Trace().Str("method", name).Dur("duration", time.Since(start)).Msg("finish")
	}
}

// Redact shortens candidate text outside dev mode.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	r := []rune(s)
	if len(r) <= 8 {
		return "***"
	}
	return string(r[:4]) + "..." + string(r[len(r)-2:])
}
