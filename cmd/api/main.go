// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the MotionMaster HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Open blob storage.
//  7. Wire HTTP handlers and the analysis runner.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/motionmaster/internal/api"
	"github.com/taibuivan/motionmaster/internal/comparison"
	"github.com/taibuivan/motionmaster/internal/platform/config"
	"github.com/taibuivan/motionmaster/internal/platform/constants"
	"github.com/taibuivan/motionmaster/internal/platform/migration"
	pgstore "github.com/taibuivan/motionmaster/internal/platform/postgres"
	redisstore "github.com/taibuivan/motionmaster/internal/platform/redis"
	"github.com/taibuivan/motionmaster/internal/platform/sec"
	"github.com/taibuivan/motionmaster/internal/platform/storage"
	"github.com/taibuivan/motionmaster/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log := rawLog.With(
		slog.String("app", constants.AppName),
		slog.String("version", constants.AppVersion),
	)
	slog.SetDefault(log)

	log.Info("[MotionMaster] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(
			slog.String("app", constants.AppName),
			slog.String("version", constants.AppVersion),
		)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Cancelled on shutdown; stops background sweepers.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, pgstore.PoolConfig{
		DSN:              cfg.DatabaseURL,
		MaxConns:         cfg.DatabaseMaxConns,
		StatementTimeout: cfg.DatabaseStatementTimeout,
	}, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Blob Storage ───────────────────────────────────────────────────
	blobs, err := storage.NewFileStore(cfg.StorageRoot)
	must(log, err, "open blob storage")

	// ── 7. Health handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
		CheckStorage: func(context.Context) error {
			return blobs.Ping()
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	authService := auth.NewService(
		auth.NewUserRepository(pool),
		auth.NewSessionRepository(pool),
		auth.NewSessionCache(rdb),
		jwtSvc,
		log,
	)

	comparisonRepository := comparison.NewPostgresRepository(pool)
	progressStore := comparison.NewRedisProgressStore(rdb)
	runner := comparison.NewRunner(progressStore, comparisonRepository, log,
		comparison.WithTick(cfg.AnalysisTick),
		comparison.WithSettle(cfg.AnalysisSettle),
	)
	comparisonService := comparison.NewService(comparisonRepository, blobs, progressStore, runner, comparison.Limits{
		MaxVideoBytes:    cfg.MaxVideoBytes,
		MaxFrameBytes:    cfg.MaxFrameBytes,
		MaxDisplayHeight: cfg.MaxDisplayHeight,
	}, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, jwtSvc, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Auth:       auth.NewHandler(authService),
		Comparison: comparison.NewHandler(comparisonService),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		exitCode = 1
	}

	runnerCtx, runnerCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer runnerCancel()
	if err := runner.Shutdown(runnerCtx); err != nil {
		log.Error("analysis_runner_shutdown_error", slog.Any("error", err))
		exitCode = 1
	}

	appCancel()

	if exitCode != 0 {
		// Deferred closers do not run past os.Exit.
		pool.Close()
		_ = rdb.Close()
		os.Exit(exitCode)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
