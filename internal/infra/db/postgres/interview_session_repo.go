// File: internal/infra/db/postgres/interview_session_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/repository"
)

var _ repository.InterviewSessionRepository = (*InterviewSessionRepo)(nil)

// MessageSealer encrypts message content at rest. Nil disables encryption.
type MessageSealer interface {
	Seal(sessionID, plaintext string) (string, error)
	Open(sessionID, sealed string) (string, error)
}

// InterviewSessionRepo persists sessions in interview_sessions and their history in interview_messages.
// Save is a compare-and-set on the version column.
type InterviewSessionRepo struct {
	pool   *pgxpool.Pool
	txm    *TxManager
	sealer MessageSealer
}

func NewInterviewSessionRepo(pool *pgxpool.Pool, sealer MessageSealer) *InterviewSessionRepo {
	return &InterviewSessionRepo{pool: pool, txm: NewTxManager(pool), sealer: sealer}
}

func (r *InterviewSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	ctxJSON, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	fbJSON, err := marshalFeedback(s.OverallFeedback)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO interview_sessions (id, status, current_step, last_feedback, overall_feedback, context, version, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5::jsonb,$6::jsonb,$7,$8,$9);`

	return r.write(ctx, tx, func(ctx context.Context, ex executor) error {
		if _, err := ex.Exec(ctx, q, s.ID, string(s.Status), string(s.CurrentStep), s.LastFeedback,
			fbJSON, string(ctxJSON), s.Version, s.CreatedAt, s.UpdatedAt); err != nil {
			return storeErr("insert session", err)
		}
		return r.writeMessages(ctx, ex, s)
	})
}

func (r *InterviewSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.InterviewSession, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	const qs = `
SELECT id, status, current_step, last_feedback, COALESCE(overall_feedback::text, ''), context::text, version, created_at, updated_at
  FROM interview_sessions WHERE id=$1;`
	var (
		s             model.InterviewSession
		status, step  string
		fbRaw, ctxRaw string
	)
	err = ex.QueryRow(ctx, qs, id).Scan(&s.ID, &status, &step, &s.LastFeedback, &fbRaw, &ctxRaw, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("scan session", err)
	}
	s.Status = model.SessionStatus(status)
	s.CurrentStep = model.Step(step)
	if err := json.Unmarshal([]byte(ctxRaw), &s.Context); err != nil {
		return nil, fmt.Errorf("%w: decode context: %v", domain.ErrStoreFailure, err)
	}
	if fbRaw != "" {
		var a model.Assessment
		if err := json.Unmarshal([]byte(fbRaw), &a); err != nil {
			return nil, fmt.Errorf("%w: decode assessment: %v", domain.ErrStoreFailure, err)
		}
		s.OverallFeedback = &a
	}

	s.ChatHistory, err = r.loadMessages(ctx, ex, s.ID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes s only if the stored version still equals s.Version, then bumps s.Version.
func (r *InterviewSessionRepo) Save(ctx context.Context, tx repository.Tx, s *model.InterviewSession) error {
	ctxJSON, err := json.Marshal(s.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	fbJSON, err := marshalFeedback(s.OverallFeedback)
	if err != nil {
		return err
	}
	const q = `
UPDATE interview_sessions
   SET status=$3, current_step=$4, last_feedback=$5, overall_feedback=$6::jsonb, context=$7::jsonb,
       version=version+1, updated_at=$8
 WHERE id=$1 AND version=$2;`

	err = r.write(ctx, tx, func(ctx context.Context, ex executor) error {
		tag, err := ex.Exec(ctx, q, s.ID, s.Version, string(s.Status), string(s.CurrentStep), s.LastFeedback,
			fbJSON, string(ctxJSON), s.UpdatedAt)
		if err != nil {
			return storeErr("update session", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM interview_sessions WHERE id=$1);`, s.ID).Scan(&exists); err != nil {
				return storeErr("probe session", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return fmt.Errorf("%w: session %s at version %d", domain.ErrVersionConflict, s.ID, s.Version)
		}
		return r.writeMessages(ctx, ex, s)
	})
	if err != nil {
		return err
	}
	s.Version++
	return nil
}

func (r *InterviewSessionRepo) ListStaleSubmitting(ctx context.Context, tx repository.Tx, before time.Time, limit int) ([]*model.InterviewSession, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id FROM interview_sessions
 WHERE status='submitting' AND updated_at < $1
 ORDER BY updated_at ASC
 LIMIT $2;`
	rows, err := ex.Query(ctx, q, before, limit)
	if err != nil {
		return nil, storeErr("query stale sessions", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, storeErr("scan stale id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("stale rows", err)
	}

	out := make([]*model.InterviewSession, 0, len(ids))
	for _, id := range ids {
		s, err := r.FindByID(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// write runs fn in the caller's transaction, or in a new one when tx is nil.
func (r *InterviewSessionRepo) write(ctx context.Context, tx repository.Tx, fn func(ctx context.Context, ex executor) error) error {
	if tx != nil {
		ex, err := getExecutor(r.pool, tx)
		if err != nil {
			return err
		}
		return fn(ctx, ex)
	}
	return r.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ex, err := getExecutor(r.pool, tx)
		if err != nil {
			return err
		}
		return fn(ctx, ex)
	})
}

// writeMessages upserts every history row and drops rows past the current length (revised answers).
func (r *InterviewSessionRepo) writeMessages(ctx context.Context, ex executor, s *model.InterviewSession) error {
	if _, err := ex.Exec(ctx, `DELETE FROM interview_messages WHERE session_id=$1 AND seq >= $2;`, s.ID, len(s.ChatHistory)); err != nil {
		return storeErr("trim messages", err)
	}
	if len(s.ChatHistory) == 0 {
		return nil
	}

	const q = `
INSERT INTO interview_messages (session_id, seq, role, content, encrypted, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (session_id, seq) DO UPDATE SET
  role = EXCLUDED.role,
  content = EXCLUDED.content,
  encrypted = EXCLUDED.encrypted,
  created_at = EXCLUDED.created_at;`
	b := &pgx.Batch{}
	for i, m := range s.ChatHistory {
		content, enc := m.Content, false
		if r.sealer != nil {
			sealed, err := r.sealer.Seal(s.ID, m.Content)
			if err != nil {
				return fmt.Errorf("encrypt msg: %w", err)
			}
			content, enc = sealed, true
		}
		b.Queue(q, s.ID, i, string(m.Role), content, enc, m.CreatedAt)
	}
	br := ex.SendBatch(ctx, b)
	defer br.Close()
	for range s.ChatHistory {
		if _, err := br.Exec(); err != nil {
			return storeErr("upsert message", err)
		}
	}
	return nil
}

func (r *InterviewSessionRepo) loadMessages(ctx context.Context, ex executor, sessionID string) ([]model.Message, error) {
	const q = `SELECT role, content, encrypted, created_at FROM interview_messages WHERE session_id=$1 ORDER BY seq ASC;`
	rows, err := ex.Query(ctx, q, sessionID)
	if err != nil {
		return nil, storeErr("query messages", err)
	}
	defer rows.Close()

	out := make([]model.Message, 0, 16)
	for rows.Next() {
		var (
			role, content string
			enc           bool
			ts            time.Time
		)
		if err := rows.Scan(&role, &content, &enc, &ts); err != nil {
			return nil, storeErr("scan msg", err)
		}
		if enc {
			if r.sealer == nil {
				return nil, fmt.Errorf("%w: message is encrypted but no key is configured", domain.ErrStoreFailure)
			}
			plain, err := r.sealer.Open(sessionID, content)
			if err != nil {
				return nil, fmt.Errorf("%w: decrypt msg: %v", domain.ErrStoreFailure, err)
			}
			content = plain
		}
		parsed, err := model.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
		}
		out = append(out, model.Message{Role: parsed, Content: content, CreatedAt: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("rows err", err)
	}
	return out, nil
}

func marshalFeedback(a *model.Assessment) (interface{}, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal assessment: %w", err)
	}
	return string(b), nil
}

func storeErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreFailure, op, err)
}
