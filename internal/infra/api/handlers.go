package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/usecase"
)

const maxBodyBytes = 64 << 10

// AnswerBounds is the accepted rune length of a candidate answer.
type AnswerBounds struct {
	Min int
	Max int
}

type Handler struct {
	uc      usecase.InterviewUseCase
	answers AnswerBounds
	log     *zerolog.Logger
}

func NewHandler(uc usecase.InterviewUseCase, answers AnswerBounds, logger *zerolog.Logger) *Handler {
	l := logger.With().Str("component", "InterviewAPI").Logger()
	return &Handler{uc: uc, answers: answers, log: &l}
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type questionResponse struct {
	Question string `json:"question"`
}

type feedbackResponse struct {
	Feedback string `json:"feedback"`
}

type statusResponse struct {
	ID     string              `json:"id"`
	Status model.SessionStatus `json:"status"`
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	var ictx model.InterviewContext
	if err := decode(w, r, &ictx); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	s, err := h.uc.Start(r.Context(), ictx)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.Header().Set("Location", "/api/v1/interviews/"+s.ID)
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.uc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) intro(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.IntroQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{Question: q})
}

func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.NextQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{Question: q})
}

func (h *Handler) postAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.checkAnswer(req.Answer); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	fb, err := h.uc.PostAnswer(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Feedback: fb})
}

// appendMessage records a transcript entry produced outside the service, e.g. a scripted question.
func (h *Handler) appendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	id := chi.URLParam(r, "id")
	switch role {
	case model.RoleAI:
		err = h.uc.AppendQuestion(r.Context(), id, req.Content)
	case model.RoleHuman:
		if err = h.checkAnswer(req.Content); err == nil {
			err = h.uc.AppendAnswer(r.Context(), id, req.Content)
		}
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revise(w http.ResponseWriter, r *http.Request) {
	q, err := h.uc.ReviseAnswer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{Question: q})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.uc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, err := h.uc.Status(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ID: id, Status: st})
}

func (h *Handler) checkAnswer(answer string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(answer))
	if h.answers.Min > 0 && n < h.answers.Min {
		return fmt.Errorf("%w: answer must be at least %d characters", domain.ErrInvalidInput, h.answers.Min)
	}
	if h.answers.Max > 0 && n > h.answers.Max {
		return fmt.Errorf("%w: answer must be at most %d characters", domain.ErrInvalidInput, h.answers.Max)
	}
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
