package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"media-job-intake/internal/config"
	"media-job-intake/internal/domain/ports/adapter"
	"media-job-intake/internal/infra/api"
	pg "media-job-intake/internal/infra/db/postgres"
	"media-job-intake/internal/infra/logging"
	"media-job-intake/internal/infra/metrics"
	"media-job-intake/internal/infra/rabbitmq"
	red "media-job-intake/internal/infra/redis"
	"media-job-intake/internal/infra/sched"
	"media-job-intake/internal/infra/storage"
	"media-job-intake/internal/infra/worker"
	"media-job-intake/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
	logger.Info().Msg("service stopped")
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	jobRepo := pg.NewJobRepo(pool)
	outboxRepo := pg.NewOutboxRepo(pool)

	// ---- Redis (optional) ----
	var limiter adapter.SubmissionLimiter
	if cfg.Redis.URL != "" && cfg.Limits.SubmitPerWindow > 0 {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Info().Msg("submission rate limit disabled")
	}

	// ---- RabbitMQ ----
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ, logger)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer publisher.Close()

	// ---- Storage service ----
	storageClient, err := storage.NewClient(cfg.Storage.BaseURL, cfg.Storage.RequestTimeout)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	// ---- Use cases ----
	resolver := usecase.NewPathResolver(storageClient, cfg.Storage.ResolveTimeout, logger)
	dispatcher := usecase.NewOutboxDispatcher(
		outboxRepo, tm, publisher, storageClient,
		cfg.Outbox.Attempts, cfg.Outbox.BaseBackoff, cfg.Outbox.InlineBudget, logger,
	)
	jobUC := usecase.NewJobUseCase(
		jobRepo, outboxRepo, tm, resolver, dispatcher, limiter,
		usecase.SubmitLimit{Max: cfg.Limits.SubmitPerWindow, Window: cfg.Limits.SubmitWindow},
		logger,
	)

	// ---- Background workers ----
	workers := worker.NewPool(cfg.Outbox.Workers, logger)
	workers.Start(ctx)
	defer workers.Stop()

	relay := sched.NewOutboxRelay(cfg.Outbox.Interval, cfg.Outbox.BatchSize, cfg.Outbox.Workers, dispatcher, workers, logger)
	dbStats := sched.NewDBStatsWorker(15*time.Second, pool, logger)

	// ---- HTTP ----
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(jobUC, cfg.Server.RequestTimeout, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(relay.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(dbStats.Run(gctx)) })
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
