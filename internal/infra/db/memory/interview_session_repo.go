// Package memory keeps interview sessions in process memory for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/repository"
)

var _ repository.InterviewSessionRepository = (*InterviewSessionRepo)(nil)

type InterviewSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.InterviewSession
}

func NewInterviewSessionRepo() *InterviewSessionRepo {
	return &InterviewSessionRepo{sessions: make(map[string]*model.InterviewSession)}
}

func (r *InterviewSessionRepo) Create(ctx context.Context, _ repository.Tx, s *model.InterviewSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("%w: session %s already exists", domain.ErrVersionConflict, s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *InterviewSessionRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.InterviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

// Save replaces the stored session when versions match and bumps s.Version.
func (r *InterviewSessionRepo) Save(ctx context.Context, _ repository.Tx, s *model.InterviewSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != s.Version {
		return fmt.Errorf("%w: have %d, stored %d", domain.ErrVersionConflict, s.Version, cur.Version)
	}
	s.Version++
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *InterviewSessionRepo) ListStaleSubmitting(ctx context.Context, _ repository.Tx, before time.Time, limit int) ([]*model.InterviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.InterviewSession
	for _, s := range r.sessions {
		if s.Status == model.SessionSubmitting && s.UpdatedAt.Before(before) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
