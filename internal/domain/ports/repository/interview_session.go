package repository

import (
	"context"
	"time"

	"interview-coach/internal/domain/model"
)

// -----------------------------
// Interview Sessions
// -----------------------------

type InterviewSessionRepository interface {
	Create(ctx context.Context, tx Tx, s *model.InterviewSession) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.InterviewSession, error)
	// Save overwrites the stored session only while its version still equals s.Version,
	// then increments s.Version. A stale write returns domain.ErrVersionConflict.
	Save(ctx context.Context, tx Tx, s *model.InterviewSession) error
	// ListStaleSubmitting returns sessions left in "submitting" since before the cutoff.
	ListStaleSubmitting(ctx context.Context, tx Tx, before time.Time, limit int) ([]*model.InterviewSession, error)
}
