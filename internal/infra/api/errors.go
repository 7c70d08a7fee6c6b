package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"interview-coach/internal/domain"
	"interview-coach/internal/infra/logging"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes and stable error codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, domain.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, domain.ErrAssessmentNotPersisted):
		return http.StatusServiceUnavailable, "not_persisted"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

var publicMessages = map[string]string{
	"conflict":         "the interview is being submitted, try again shortly",
	"rate_limited":     "the interviewer is busy, try again shortly",
	"not_persisted":    "the assessment could not be saved, submit again",
	"upstream_timeout": "the interviewer took too long, try again",
	"upstream_error":   "the interviewer is unavailable",
	"internal":         "internal error",
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	status, code := statusFor(err)
	l := logging.With(r.Context(), logger)
	if status >= http.StatusInternalServerError {
		l.Error().Err(err).Str("code", code).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("code", code).Msg("request rejected")
	}

	msg, ok := publicMessages[code]
	if !ok {
		msg = err.Error()
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
