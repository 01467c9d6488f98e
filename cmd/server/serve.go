package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/cache"
	"github.com/hongminglow/contribution-be/internal/config"
	"github.com/hongminglow/contribution-be/internal/http/handlers"
	"github.com/hongminglow/contribution-be/internal/logging"
	"github.com/hongminglow/contribution-be/internal/metrics"
	"github.com/hongminglow/contribution-be/internal/middleware"
	"github.com/hongminglow/contribution-be/internal/server"
	"github.com/hongminglow/contribution-be/internal/storage"
	"github.com/hongminglow/contribution-be/internal/storage/memory"
	"github.com/hongminglow/contribution-be/internal/storage/postgres"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrapf(err, "load config")
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrapf(err, "init logger")
	}
	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	checks := map[string]handlers.HealthChecker{"store": store}

	var limiter middleware.RateLimiter
	if cfg.RedisURL != "" {
		redisCache, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return oops.Code("REDIS_CONNECT_FAILED").Wrapf(err, "init redis")
		}
		defer func() { _ = redisCache.Close() }()
		limiter = redisCache
		checks["redis"] = redisCache
		logger.Info("rate limiting enabled", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	}

	prom := metrics.NewPrometheus()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
	svc, err := auth.NewService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens,
		auth.WithLogger(logger),
		auth.WithRecorder(prom),
	)
	if err != nil {
		return err
	}
	if cfg.PasswordResetEnabled {
		logger.Warn("reset-password route is enabled and does not verify identity")
	}

	router := server.NewRouter(server.Deps{
		Config:         cfg,
		Service:        svc,
		Logger:         logger,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
		Limiter:        limiter,
		Checks:         checks,
	})
	srv := server.New(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("contribution backend listening", "addr", srv.Addr(), "store", cfg.StoreDriver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVER_FAILED").Wrapf(err, "http server")
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", "error", err)
		return err
	}
	return nil
}

// openStore returns the configured store and its cleanup. The postgres store
// is migrated before use.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.UserStore, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	if err := pg.Migrate(ctx); err != nil {
		pg.Close()
		return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return pg, pg.Close, nil
}
