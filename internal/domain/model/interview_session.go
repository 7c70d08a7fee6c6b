package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"interview-coach/internal/domain"
)

type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionSubmitting SessionStatus = "submitting"
	SessionCompleted  SessionStatus = "completed"
)

type Step string

const (
	StepQuestioning Step = "questioning"
	StepFeedback    Step = "feedback"
	StepRevise      Step = "revise"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleAI    Role = "ai"
	RoleHuman Role = "human"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAI:
		return RoleAI, nil
	case RoleHuman:
		return RoleHuman, nil
	default:
		return "", fmt.Errorf("%w: unknown message role %q", domain.ErrInvalidInput, s)
	}
}

// Message is one entry of the interview transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// QAPair is an interviewer question followed by the candidate's answer.
type QAPair struct {
	Question string
	Answer   string
}

// InterviewSession is the aggregate root of one mock interview.
//
// OverallFeedback is set iff Status is SessionCompleted. Version is bumped by the
// store on every successful save and is used for compare-and-set writes.
type InterviewSession struct {
	ID              string           `json:"id"`
	Status          SessionStatus    `json:"status"`
	CurrentStep     Step             `json:"current_step"`
	ChatHistory     []Message        `json:"chat_history"`
	LastFeedback    *string          `json:"last_feedback"`
	OverallFeedback *Assessment      `json:"overall_feedback"`
	Context         InterviewContext `json:"context"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func NewInterviewSession(id string, ictx InterviewContext) *InterviewSession {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &InterviewSession{
		ID:          id,
		Status:      SessionActive,
		CurrentStep: StepQuestioning,
		ChatHistory: make([]Message, 0, 16),
		Context:     ictx,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EnsureMutable rejects history changes on completed or in-flight sessions.
func (s *InterviewSession) EnsureMutable() error {
	switch s.Status {
	case SessionActive:
		return nil
	case SessionSubmitting:
		return domain.ErrConflict
	case SessionCompleted:
		return fmt.Errorf("%w: interview is already completed", domain.ErrInvalidState)
	default:
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidState, s.Status)
	}
}

func (s *InterviewSession) AppendMessage(role Role, content string) error {
	if err := s.EnsureMutable(); err != nil {
		return err
	}
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	s.ChatHistory = append(s.ChatHistory, Message{Role: role, Content: content, CreatedAt: time.Now()})
	s.UpdatedAt = time.Now()
	return nil
}

func (s *InterviewSession) LastMessage() (Message, bool) {
	if len(s.ChatHistory) == 0 {
		return Message{}, false
	}
	return s.ChatHistory[len(s.ChatHistory)-1], true
}

// ReviseLastAnswer drops the trailing human answer and returns the question it answered.
func (s *InterviewSession) ReviseLastAnswer() (string, error) {
	if err := s.EnsureMutable(); err != nil {
		return "", err
	}
	last, ok := s.LastMessage()
	if !ok || last.Role != RoleHuman {
		return "", fmt.Errorf("%w: no recent human answer to revise", domain.ErrInvalidState)
	}
	s.ChatHistory = s.ChatHistory[:len(s.ChatHistory)-1]

	question := ""
	if prev, ok := s.LastMessage(); ok && prev.Role == RoleAI {
		question = prev.Content
	}
	s.CurrentStep = StepRevise
	s.UpdatedAt = time.Now()
	return question, nil
}

func (s *InterviewSession) SetFeedback(feedback string) {
	s.LastFeedback = &feedback
	s.CurrentStep = StepFeedback
	s.UpdatedAt = time.Now()
}

// MarkSubmitting moves an active session into the submission lock.
func (s *InterviewSession) MarkSubmitting() error {
	switch s.Status {
	case SessionActive:
		s.Status = SessionSubmitting
		s.UpdatedAt = time.Now()
		return nil
	case SessionSubmitting:
		return domain.ErrConflict
	default:
		return fmt.Errorf("%w: cannot submit a %s session", domain.ErrInvalidState, s.Status)
	}
}

func (s *InterviewSession) Complete(a *Assessment) error {
	if s.Status != SessionSubmitting {
		return fmt.Errorf("%w: complete requires status submitting, got %s", domain.ErrInvalidState, s.Status)
	}
	if a == nil {
		return fmt.Errorf("%w: nil assessment", domain.ErrInvalidInput)
	}
	s.OverallFeedback = a
	s.Status = SessionCompleted
	s.UpdatedAt = time.Now()
	return nil
}

// RollbackSubmission releases the submission lock without recording feedback.
func (s *InterviewSession) RollbackSubmission() {
	if s.Status != SessionSubmitting {
		return
	}
	s.Status = SessionActive
	s.OverallFeedback = nil
	s.UpdatedAt = time.Now()
}

func (s *InterviewSession) QAPairs() []QAPair {
	return PairTurns(s.ChatHistory)
}

// PairTurns pairs each ai message with the human message directly after it.
// Unanswered ai turns, such as a question asked twice in a row, are skipped
// without shifting the pairs that follow.
func PairTurns(history []Message) []QAPair {
	var out []QAPair
	for i := 0; i+1 < len(history); i++ {
		q, a := history[i], history[i+1]
		if q.Role == RoleAI && a.Role == RoleHuman {
			out = append(out, QAPair{Question: q.Content, Answer: a.Content})
			i++
		}
	}
	return out
}

// Clone returns a deep copy; stores hand out clones so callers never share state.
func (s *InterviewSession) Clone() *InterviewSession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ChatHistory = append([]Message(nil), s.ChatHistory...)
	if s.LastFeedback != nil {
		fb := *s.LastFeedback
		cp.LastFeedback = &fb
	}
	cp.OverallFeedback = s.OverallFeedback.Clone()
	cp.Context = s.Context.Clone()
	return &cp
}
