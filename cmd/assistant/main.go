package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"

	"github.com/onecard-labs/cardassist/internal/auth"
	"github.com/onecard-labs/cardassist/internal/chat"
	"github.com/onecard-labs/cardassist/internal/database"
	"github.com/onecard-labs/cardassist/internal/dialogue"
	apperrors "github.com/onecard-labs/cardassist/internal/errors"
	"github.com/onecard-labs/cardassist/internal/fallback"
	"github.com/onecard-labs/cardassist/internal/health"
	"github.com/onecard-labs/cardassist/internal/identity"
	"github.com/onecard-labs/cardassist/internal/lifecycle"
	"github.com/onecard-labs/cardassist/internal/middleware"
	"github.com/onecard-labs/cardassist/internal/payment"
	"github.com/onecard-labs/cardassist/internal/ratelimit"
	"github.com/onecard-labs/cardassist/internal/server"
	"github.com/onecard-labs/cardassist/internal/session"
	"github.com/onecard-labs/cardassist/internal/speech"
	"github.com/onecard-labs/cardassist/pkg/config"
	"github.com/onecard-labs/cardassist/pkg/graceful"
	"github.com/onecard-labs/cardassist/pkg/logger"
	"github.com/onecard-labs/cardassist/pkg/metrics"
	"github.com/onecard-labs/cardassist/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		slog.Error("assistant service exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	log, level := logger.New(*cfg)
	config.WatchLogLevel(v, level, log)

	log.Info("starting assistant service",
		slog.String("env", cfg.AppEnv),
		slog.String("port", cfg.Server.Port))

	shutdown := lifecycle.NewShutdown(log)

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	shutdown.Register("postgres", func(context.Context) error { return db.Close() })

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	migrationsDir := cfg.Database.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.NewMigrator(db, log).ApplyDir(ctx, migrationsDir); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })

	store := session.NewRedisStore(redisClient.Client, log, cfg.Session.TTL, cfg.Session.TurnLockTTL)

	repo := identity.NewRepository(db, log)
	authSvc := auth.NewService(repo, store, log)

	links := payment.NewLinkBuilder(cfg.Payment.PayeeVPA, cfg.Payment.PayeeName)
	engine := dialogue.NewEngine(links, log)

	breaker := apperrors.NewCircuitBreaker(cfg.Fallback.BreakerThreshold, cfg.Fallback.BreakerCooldown)
	streamer := fallback.NewClient(cfg.Fallback.BaseURL, cfg.Fallback.Timeout, breaker, log)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled, metrics.RecordError)
	chatSvc := chat.NewService(engine, store, streamer, errHandler, log)

	transcriber := speech.NewClient(cfg.Speech.BaseURL, cfg.Speech.Timeout, log)

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))

	rules := ratelimit.NewRules(cfg.RateLimit)
	limiter := ratelimit.NewAdaptiveLimiter(
		ratelimit.NewRedisLimiter(redisClient.Client, log),
		ratelimit.NewMemoryLimiter(log),
		log,
	)
	rate := middleware.NewRateLimitMiddleware(limiter, rules, log)

	cleaner := ratelimit.NewCleaner(redisClient.Client, log, 10*time.Minute)
	go cleaner.Run(ctx)

	srv := server.New(authSvc, chatSvc, store, links, transcriber, checker, errHandler, rate, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := graceful.NewServer(log, httpServer, cfg.Server.ShutdownTimeout).ListenAndServe(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown hooks reported errors", slog.Any("error", err))
	}

	log.Info("assistant service stopped")
	return serveErr
}
