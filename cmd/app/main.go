// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"interview-coach/internal/assessment"
	"interview-coach/internal/config"
	"interview-coach/internal/domain/model"
	"interview-coach/internal/domain/ports/repository"
	aiAdapters "interview-coach/internal/infra/adapters/ai"
	"interview-coach/internal/infra/api"
	"interview-coach/internal/infra/db/memory"
	pg "interview-coach/internal/infra/db/postgres"
	"interview-coach/internal/infra/logging"
	"interview-coach/internal/infra/metrics"
	red "interview-coach/internal/infra/redis"
	"interview-coach/internal/infra/sched"
	"interview-coach/internal/infra/security"
	"interview-coach/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- Config & logging ----
	cfg, err := config.LoadConfig()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled: answers are logged unredacted")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Session store ----
	var repo repository.InterviewSessionRepository
	switch cfg.Database.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		if cfg.Database.Migrate {
			if err := pg.Migrate(ctx, pool, logger); err != nil {
				logger.Fatal().Err(err).Msg("migrate")
			}
		}
		go pg.ReportPoolStats(ctx, pool, 15*time.Second)

		var sealer pg.MessageSealer
		if cfg.Security.EncryptionKey != "" {
			s, err := security.NewSealer(cfg.Security.EncryptionKey)
			if err != nil {
				logger.Fatal().Err(err).Msg("encryption")
			}
			sealer = s
		} else {
			logger.Warn().Msg("security.encryption_key not set; interview messages are stored in plaintext")
		}
		repo = pg.NewInterviewSessionRepo(pool, sealer)
		logger.Info().Msg("session store: postgres")
	default:
		repo = memory.NewInterviewSessionRepo()
		logger.Warn().Msg("session store: memory (sessions are lost on restart)")
	}

	// ---- Redis (optional) ----
	var (
		limiter api.Limiter
		locker  red.Locker
	)
	if cfg.Redis.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		repo = red.NewSessionRepoCacheDecorator(repo, redisClient, cfg.Redis.TTL, logger)
		limiter = red.NewRateLimiter(redisClient)
		locker = red.NewLocker(redisClient)
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("redis enabled: session cache, rate limiting, reaper lock")
	}

	// ---- Text generators & assessment ----
	gen, err := aiAdapters.Build(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai providers")
	}
	extractor := assessment.NewExtractor(gen, logger,
		assessment.WithAttempts(cfg.Interview.ExtractionAttempts),
		assessment.WithRetryDelay(cfg.Interview.RetryDelay),
	)

	// ---- Use case ----
	interviewUC := usecase.NewInterviewUseCase(repo, gen, extractor, logger, usecase.InterviewOptions{
		SkillBounds: model.SkillBounds{Min: cfg.Interview.MinSkills, Max: cfg.Interview.MaxSkills},
		Dev:         cfg.Runtime.Dev,
	})

	// ---- Stale submission reaper ----
	reaper := sched.NewSubmissionReaper(cfg.Interview.ReaperInterval, cfg.Interview.StaleSubmissionAfter, interviewUC, locker, logger)
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("reaper stopped")
		}
	}()

	// ---- HTTP ----
	handler := api.NewHandler(interviewUC, api.AnswerBounds{
		Min: cfg.Interview.AnswerMinLen,
		Max: cfg.Interview.AnswerMaxLen,
	}, logger)
	router := api.NewRouter(api.RouterDeps{
		Handler: handler,
		Auth:    api.NewAuthManager(cfg.HTTP.JWTSecret, 0),
		Limiter: limiter,
	}, cfg.HTTP, logger)
	server := api.NewServer(cfg.HTTP.Port, router, logger)

	errc := make(chan error, 1)
	go func() { errc <- server.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.RequestTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
