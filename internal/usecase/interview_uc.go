// File: internal/usecase/interview_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interview-coach/internal/assessment"
	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/adapter"
	"interview-coach/internal/domain/ports/repository"
	"interview-coach/internal/infra/logging"
	"interview-coach/internal/infra/metrics"
)

// Compile-time check
var _ InterviewUseCase = (*interviewUC)(nil)

type InterviewUseCase interface {
	Start(ctx context.Context, ictx model.InterviewContext) (*model.InterviewSession, error)
	IntroQuestion(ctx context.Context, sessionID string) (string, error)
	NextQuestion(ctx context.Context, sessionID string) (string, error)
	AppendQuestion(ctx context.Context, sessionID, text string) error
	AppendAnswer(ctx context.Context, sessionID, text string) error
	PostAnswer(ctx context.Context, sessionID, answer string) (feedback string, err error)
	ReviseAnswer(ctx context.Context, sessionID string) (question string, err error)
	Submit(ctx context.Context, sessionID string) (*SubmitResult, error)
	Status(ctx context.Context, sessionID string) (model.SessionStatus, error)
	Get(ctx context.Context, sessionID string) (*model.InterviewSession, error)
	RecoverStaleSubmissions(ctx context.Context, olderThan time.Duration) (int, error)
}

// AssessmentExtractor yields an Assessment, falling back to heuristics once its
// attempts are spent. It fails only when ctx ends first.
type AssessmentExtractor interface {
	Extract(ctx context.Context, history []model.Message) (*model.Assessment, error)
}

type SubmitResult struct {
	Assessment *model.Assessment   `json:"assessment"`
	Status     model.SessionStatus `json:"status"`
}

type InterviewOptions struct {
	SkillBounds model.SkillBounds
	// PersistTimeout bounds writes that must finish even after the caller has gone away.
	PersistTimeout time.Duration
	StaleBatch     int
	Dev            bool
}

type interviewUC struct {
	repo      repository.InterviewSessionRepository
	gen       adapter.TextGenerator
	extractor AssessmentExtractor
	opts      InterviewOptions
	log       *zerolog.Logger
	now       func() time.Time
}

func NewInterviewUseCase(repo repository.InterviewSessionRepository, gen adapter.TextGenerator, extractor AssessmentExtractor, logger *zerolog.Logger, opts InterviewOptions) *interviewUC {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	if opts.StaleBatch <= 0 {
		opts.StaleBatch = 100
	}
	l := logger.With().Str("component", "InterviewUC").Logger()
	return &interviewUC{repo: repo, gen: gen, extractor: extractor, opts: opts, log: &l, now: time.Now}
}

func (uc *interviewUC) logger(ctx context.Context, sessionID string) *zerolog.Logger {
	return logging.With(logging.WithSessID(ctx, sessionID), uc.log)
}

func (uc *interviewUC) Start(ctx context.Context, ictx model.InterviewContext) (*model.InterviewSession, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.Start")()
	if err := ictx.Validate(uc.opts.SkillBounds); err != nil {
		return nil, err
	}
	s := model.NewInterviewSession(uuid.NewString(), ictx.Clone())
	if err := uc.repo.Create(ctx, nil, s); err != nil {
		return nil, err
	}
	metrics.IncSessionStarted(string(ictx.InterviewType))
	uc.logger(ctx, s.ID).Info().Str("interview_type", string(ictx.InterviewType)).Msg("interview started")
	return s.Clone(), nil
}

func (uc *interviewUC) IntroQuestion(ctx context.Context, sessionID string) (string, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.IntroQuestion")()
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.EnsureMutable(); err != nil {
		return "", err
	}
	if len(s.ChatHistory) > 0 {
		return "", fmt.Errorf("%w: intro question can only be asked at the beginning", domain.ErrInvalidState)
	}

	text, err := uc.generate(ctx, questionInstruction(s.Context), s.ChatHistory, introInput)
	if err != nil {
		return "", err
	}
	if err := s.AppendMessage(model.RoleAI, text); err != nil {
		return "", err
	}
	s.CurrentStep = model.StepQuestioning
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		return "", err
	}
	return text, nil
}

func (uc *interviewUC) NextQuestion(ctx context.Context, sessionID string) (string, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.NextQuestion")()
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.EnsureMutable(); err != nil {
		return "", err
	}

	text, err := uc.generate(ctx, questionInstruction(s.Context), s.ChatHistory, nextInput)
	if err != nil {
		return "", err
	}
	if err := s.AppendMessage(model.RoleAI, text); err != nil {
		return "", err
	}
	s.CurrentStep = model.StepQuestioning
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		return "", err
	}
	return text, nil
}

func (uc *interviewUC) AppendQuestion(ctx context.Context, sessionID, text string) error {
	return uc.append(ctx, sessionID, model.RoleAI, text)
}

func (uc *interviewUC) AppendAnswer(ctx context.Context, sessionID, text string) error {
	return uc.append(ctx, sessionID, model.RoleHuman, text)
}

func (uc *interviewUC) append(ctx context.Context, sessionID string, role model.Role, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: message is empty", domain.ErrInvalidInput)
	}
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return err
	}
	if err := s.AppendMessage(role, text); err != nil {
		return err
	}
	return uc.repo.Save(ctx, nil, s)
}

// PostAnswer records the answer and the generator's feedback on it in one write.
// Nothing is stored when the generator fails.
func (uc *interviewUC) PostAnswer(ctx context.Context, sessionID, answer string) (string, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.PostAnswer")()
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: answer is empty", domain.ErrInvalidInput)
	}
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	if err := s.AppendMessage(model.RoleHuman, answer); err != nil {
		return "", err
	}

	feedback, err := uc.generate(ctx, feedbackInstruction(s.Context), s.ChatHistory, answer)
	if err != nil {
		return "", err
	}
	s.SetFeedback(feedback)
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		return "", err
	}
	uc.logger(ctx, sessionID).Debug().Str("answer", logging.Redact(answer, uc.opts.Dev)).Msg("answer recorded")
	return feedback, nil
}

func (uc *interviewUC) ReviseAnswer(ctx context.Context, sessionID string) (string, error) {
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	question, err := s.ReviseLastAnswer()
	if err != nil {
		return "", err
	}
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		return "", err
	}
	return question, nil
}

// Submit finalises the interview exactly once.
//
// A completed session returns its stored assessment without touching the generator.
// A session already submitting fails with ErrConflict. Otherwise the session is moved to
// submitting with a compare-and-set write before any generator work, so of two racing
// callers only one proceeds. Extraction fails only when ctx ends before its attempts
// are spent; that, like any other failure after the lock is taken, rolls the session
// back to active so the caller can submit again.
func (uc *interviewUC) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.Submit")()
	log := uc.logger(ctx, sessionID)

	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == model.SessionCompleted && s.OverallFeedback != nil {
		metrics.IncSubmission("cached")
		log.Info().Msg("interview already completed, returning stored assessment")
		return &SubmitResult{Assessment: s.OverallFeedback, Status: s.Status}, nil
	}
	if err := s.MarkSubmitting(); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			metrics.IncSubmission("conflict")
		}
		return nil, err
	}
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			metrics.IncSubmission("conflict")
			return nil, fmt.Errorf("%w: %v", domain.ErrConflict, err)
		}
		return nil, err
	}

	a, err := uc.assess(ctx, s)
	if err == nil {
		err = s.Complete(a)
	}
	if err != nil {
		log.Error().Err(err).Msg("assessment pipeline failed, rolling back")
		uc.rollback(ctx, sessionID)
		metrics.IncSubmission("rolled_back")
		return nil, err
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.PersistTimeout)
	defer cancel()
	if err := uc.repo.Save(persistCtx, nil, s); err != nil {
		log.Error().Err(err).Int("score", a.OverallScore).Str("source", string(a.Source)).Msg("assessment computed but not persisted")
		uc.rollback(ctx, sessionID)
		metrics.IncSubmission("not_persisted")
		return nil, fmt.Errorf("%w: %v", domain.ErrAssessmentNotPersisted, err)
	}

	metrics.IncSubmission("completed")
	log.Info().Int("score", a.OverallScore).Str("level", string(a.Level)).Str("source", string(a.Source)).Msg("interview submitted")
	return &SubmitResult{Assessment: a.Clone(), Status: s.Status}, nil
}

// assess runs extraction and recomputes the composite score.
func (uc *interviewUC) assess(ctx context.Context, s *model.InterviewSession) (*model.Assessment, error) {
	a, err := uc.extractor.Extract(ctx, s.ChatHistory)
	if err != nil {
		return nil, fmt.Errorf("submission interrupted: %w", err)
	}
	if a == nil {
		return nil, errors.New("extractor returned no assessment")
	}
	if err := assessment.Finalize(a); err != nil {
		return nil, err
	}
	return a, nil
}

// rollback reloads the session and releases the submission lock if it is still held.
func (uc *interviewUC) rollback(ctx context.Context, sessionID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.PersistTimeout)
	defer cancel()
	log := uc.logger(ctx, sessionID)

	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		log.Error().Err(err).Msg("rollback: reload failed")
		return
	}
	if s.Status != model.SessionSubmitting {
		return
	}
	s.RollbackSubmission()
	if err := uc.repo.Save(ctx, nil, s); err != nil {
		log.Error().Err(err).Msg("rollback: save failed; the reaper will retry")
	}
}

func (uc *interviewUC) Status(ctx context.Context, sessionID string) (model.SessionStatus, error) {
	s, err := uc.repo.FindByID(ctx, nil, sessionID)
	if err != nil {
		return "", err
	}
	return s.Status, nil
}

func (uc *interviewUC) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	return uc.repo.FindByID(ctx, nil, sessionID)
}

// RecoverStaleSubmissions rolls back sessions stuck in submitting, e.g. after a crash mid-pipeline.
func (uc *interviewUC) RecoverStaleSubmissions(ctx context.Context, olderThan time.Duration) (int, error) {
	defer logging.TraceDuration(uc.log, "InterviewUC.RecoverStaleSubmissions")()
	stale, err := uc.repo.ListStaleSubmitting(ctx, nil, uc.now().Add(-olderThan), uc.opts.StaleBatch)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, s := range stale {
		s.RollbackSubmission()
		if err := uc.repo.Save(ctx, nil, s); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				continue
			}
			return recovered, err
		}
		recovered++
		uc.logger(ctx, s.ID).Warn().Msg("stale submission rolled back to active")
	}
	metrics.AddSubmissionsRecovered(recovered)
	return recovered, nil
}

func (uc *interviewUC) generate(ctx context.Context, system string, history []model.Message, input string) (string, error) {
	out, err := uc.gen.Generate(ctx, system, history, input)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrUpstream)
	}
	return out, nil
}
