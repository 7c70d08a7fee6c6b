package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	red "interview-coach/internal/infra/redis"
)

const reaperLockKey = "lock:submission_reaper"

// Recoverer is satisfied by usecase.InterviewUseCase.
type Recoverer interface {
	RecoverStaleSubmissions(ctx context.Context, olderThan time.Duration) (int, error)
}

// SubmissionReaper periodically rolls back sessions stuck in submitting.
// With a Locker only one replica sweeps per tick.
type SubmissionReaper struct {
	interval  time.Duration
	olderThan time.Duration
	uc        Recoverer
	locker    red.Locker
	log       *zerolog.Logger
}

func NewSubmissionReaper(interval, olderThan time.Duration, uc Recoverer, locker red.Locker, logger *zerolog.Logger) *SubmissionReaper {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "SubmissionReaper").Logger()
	return &SubmissionReaper{
		interval:  interval,
		olderThan: olderThan,
		uc:        uc,
		locker:    locker,
		log:       &l,
	}
}

func (w *SubmissionReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("older_than", w.olderThan).Msg("Starting submission reaper")
	// Sweep once on startup to clean up after a crash, then on every tick
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping submission reaper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SubmissionReaper) sweep(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()

	if w.locker != nil {
		token, err := w.locker.TryLock(runCtx, reaperLockKey, w.interval)
		if errors.Is(err, red.ErrLockHeld) {
			w.log.Debug().Msg("another replica holds the reaper lock")
			return
		}
		if err != nil {
			w.log.Warn().Err(err).Msg("reaper lock unavailable, skipping sweep")
			return
		}
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(runCtx), reaperLockKey, token); err != nil {
				w.log.Warn().Err(err).Msg("reaper unlock failed")
			}
		}()
	}

	n, err := w.uc.RecoverStaleSubmissions(runCtx, w.olderThan)
	if err != nil {
		w.log.Error().Err(err).Msg("stale submission sweep failed")
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("stale submissions rolled back")
	}
}
