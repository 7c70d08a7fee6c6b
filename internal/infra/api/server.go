package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"interview-coach/internal/config"
)

type RouterDeps struct {
	Handler *Handler
	Auth    *AuthManager
	// Limiter may be nil when redis is disabled; generator routes are then unlimited.
	Limiter Limiter
}

// NewRouter mounts the interview API, health probe and metrics endpoint.
func NewRouter(deps RouterDeps, cfg config.HTTPConfig, logger *zerolog.Logger) http.Handler {
	h := deps.Handler
	limit := func(route string) Middleware {
		return RateLimit(deps.Limiter, route, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
	}

	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(logger), Recover(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/interviews", func(r chi.Router) {
		r.Use(Timeout(cfg.RequestTimeout), BearerAuth(deps.Auth))

		r.Post("/", h.start)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Get("/status", h.status)
			r.Post("/messages", h.appendMessage)
			r.Post("/revise", h.revise)
			r.With(limit("intro")).Post("/intro", h.intro)
			r.With(limit("questions")).Post("/questions", h.nextQuestion)
			r.With(limit("answers")).Post("/answers", h.postAnswer)
			r.With(limit("submit")).Post("/submit", h.submit)
		})
	})
	return r
}

type Server struct {
	srv *http.Server
	log *zerolog.Logger
}

func NewServer(port int, handler http.Handler, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: &l,
	}
}

// Start blocks until the server stops; a graceful Shutdown is not reported as an error.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
