//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/repository"
	"interview-coach/internal/infra/security"
)

func newSession(id string) *model.InterviewSession {
	s := model.NewInterviewSession(id, model.InterviewContext{
		InterviewType: model.InterviewDomainSpecific,
		InputType:     model.InputSkills,
		JobRole:       "Backend Engineer",
		Skills:        []string{"go", "postgres", "redis"},
	})
	s.CreatedAt = s.CreatedAt.Truncate(time.Microsecond)
	s.UpdatedAt = s.CreatedAt
	return s
}

func TestInterviewSessionRepo_Lifecycle(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	sealer, err := security.NewSealer("integration-secret")
	if err != nil {
		t.Fatal(err)
	}
	repo := NewInterviewSessionRepo(testPool, sealer)

	s := newSession("sess-lifecycle")
	if err := repo.Create(ctx, nil, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_ = s.AppendMessage(model.RoleAI, "Tell me about a project you led?")
	_ = s.AppendMessage(model.RoleHuman, "I led the billing rewrite in Go.")
	if err := repo.Save(ctx, nil, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Version != 1 {
		t.Fatalf("version = %d", s.Version)
	}

	var stored string
	if err := testPool.QueryRow(ctx, `SELECT content FROM interview_messages WHERE session_id=$1 AND seq=1`, s.ID).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if stored == "I led the billing rewrite in Go." {
		t.Fatal("message content must be sealed at rest")
	}

	got, err := repo.FindByID(ctx, nil, s.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(got.ChatHistory) != 2 || got.ChatHistory[1].Content != "I led the billing rewrite in Go." {
		t.Fatalf("history = %+v", got.ChatHistory)
	}
	if got.Context.JobRole != "Backend Engineer" || len(got.Context.Skills) != 3 {
		t.Fatalf("context = %+v", got.Context)
	}

	// revise drops the trailing row
	if _, err := got.ReviseLastAnswer(); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, nil, got); err != nil {
		t.Fatalf("Save after revise: %v", err)
	}
	var n int
	_ = testPool.QueryRow(ctx, `SELECT COUNT(*) FROM interview_messages WHERE session_id=$1`, s.ID).Scan(&n)
	if n != 1 {
		t.Fatalf("messages after revise = %d", n)
	}

	// complete with an assessment
	_ = got.AppendMessage(model.RoleHuman, "Second try at the answer.")
	_ = got.MarkSubmitting()
	if err := repo.Save(ctx, nil, got); err != nil {
		t.Fatal(err)
	}
	a := &model.Assessment{Summary: "ok", OverallScore: 55, Level: model.LevelCompetent, Source: model.SourceFallback}
	if err := got.Complete(a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, nil, got); err != nil {
		t.Fatal(err)
	}
	final, _ := repo.FindByID(ctx, nil, s.ID)
	if final.Status != model.SessionCompleted || final.OverallFeedback == nil || final.OverallFeedback.OverallScore != 55 {
		t.Fatalf("final = %+v", final)
	}
}

func TestInterviewSessionRepo_VersionConflict(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewInterviewSessionRepo(testPool, nil)

	s := newSession("sess-cas")
	if err := repo.Create(ctx, nil, s); err != nil {
		t.Fatal(err)
	}
	a, _ := repo.FindByID(ctx, nil, s.ID)
	b, _ := repo.FindByID(ctx, nil, s.ID)

	_ = a.MarkSubmitting()
	if err := repo.Save(ctx, nil, a); err != nil {
		t.Fatalf("first writer: %v", err)
	}
	_ = b.MarkSubmitting()
	if err := repo.Save(ctx, nil, b); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("second writer: want version conflict, got %v", err)
	}

	if err := repo.Save(ctx, nil, newSession("missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestInterviewSessionRepo_ListStaleSubmittingInTx(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewInterviewSessionRepo(testPool, nil)
	txm := NewTxManager(testPool)

	old := newSession("sess-old")
	old.Status = model.SessionSubmitting
	old.UpdatedAt = time.Now().Add(-time.Hour)
	fresh := newSession("sess-fresh")
	fresh.Status = model.SessionSubmitting
	for _, s := range []*model.InterviewSession{old, fresh} {
		if err := repo.Create(ctx, nil, s); err != nil {
			t.Fatal(err)
		}
	}

	err := txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		stale, err := repo.ListStaleSubmitting(ctx, tx, time.Now().Add(-10*time.Minute), 10)
		if err != nil {
			return err
		}
		if len(stale) != 1 || stale[0].ID != "sess-old" {
			t.Errorf("stale = %d sessions", len(stale))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
