// File: internal/infra/redis/session_cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/repository"
	"interview-coach/internal/infra/metrics"
)

var _ repository.InterviewSessionRepository = (*sessionRepoCacheDecorator)(nil)

// sessionRepoCacheDecorator keeps a read-through copy of each session in Redis.
// Writes go to the inner store first; the cache is refreshed on success and dropped on any failure.
// Reads inside a transaction always go to the inner store.
type sessionRepoCacheDecorator struct {
	inner repository.InterviewSessionRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewSessionRepoCacheDecorator(inner repository.InterviewSessionRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.InterviewSessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "SessionCache").Logger()
	return &sessionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func sessionKey(id string) string { return fmt.Sprintf("interview:session:%s", id) }

func (d *sessionRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	if err := d.inner.Create(ctx, tx, s); err != nil {
		return err
	}
	d.store(ctx, s)
	return nil
}

func (d *sessionRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}

	val, err := d.cache.Get(ctx, sessionKey(id))
	if err == nil {
		var s model.InterviewSession
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("session", "hit")
			return &s, nil
		}
		d.log.Warn().Str("session_id", id).Msg("dropping undecodable cache entry")
		_ = d.cache.Del(ctx, sessionKey(id))
	} else if !IsNil(err) {
		d.log.Warn().Err(err).Str("session_id", id).Msg("cache read failed")
	}

	metrics.IncCacheRequest("session", "miss")
	s, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, s)
	return s, nil
}

func (d *sessionRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	if err := d.inner.Save(ctx, tx, s); err != nil {
		if derr := d.cache.Del(ctx, sessionKey(s.ID)); derr != nil {
			d.log.Warn().Err(derr).Str("session_id", s.ID).Msg("cache invalidate failed")
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			metrics.IncCacheRequest("session", "stale")
		}
		return err
	}
	d.store(ctx, s)
	return nil
}

func (d *sessionRepoCacheDecorator) ListStaleSubmitting(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.InterviewSession, error) {
	return d.inner.ListStaleSubmitting(ctx, tx, before, limit)
}

func (d *sessionRepoCacheDecorator) store(ctx context.Context, s *model.InterviewSession) {
	if s == nil {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, sessionKey(s.ID), b, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("session_id", s.ID).Msg("cache write failed")
	}
}
