// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/storyhaven/storyhaven-api/internal/admin"
	"github.com/storyhaven/storyhaven-api/internal/auth"
	"github.com/storyhaven/storyhaven-api/internal/config"
	"github.com/storyhaven/storyhaven-api/internal/core"
	"github.com/storyhaven/storyhaven-api/internal/health"
	"github.com/storyhaven/storyhaven-api/internal/middleware"
	"github.com/storyhaven/storyhaven-api/internal/rating"
	"github.com/storyhaven/storyhaven-api/internal/server"
	"github.com/storyhaven/storyhaven-api/internal/user"
)

const drainDelay = 5 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer cancel()
		//nolint:errcheck // best-effort flush on exit
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exiting

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close() //nolint:errcheck // process exiting

	if !cfg.IsProduction() {
		if _, statErr := os.Stat(cfg.JWT.PrivateKeyPath); os.IsNotExist(statErr) {
			logger.Info("generating signing keypair",
				"path", cfg.JWT.PrivateKeyPath)
			if err := auth.GenerateKeyPair(
				cfg.JWT.PrivateKeyPath,
				cfg.JWT.PublicKeyPath,
			); err != nil {
				return err
			}
		}
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}

	// wiring
	userRepo := user.NewRepository(db.DB)
	userService := user.NewService(userRepo)

	tokenRepo := auth.NewRepository(db.DB)
	blacklist := auth.NewBlacklist(rdb.Client)
	authService := auth.NewService(
		tokenRepo,
		jwtManager,
		userService,
		blacklist,
		cfg.JWT.RefreshTokenExpire,
	)

	var googleVerifier *auth.GoogleVerifier
	if cfg.OAuth.GoogleEnabled() {
		googleVerifier, err = auth.NewGoogleVerifier(ctx, cfg.OAuth)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("google oauth disabled, no client credentials configured")
	}

	sweeper := auth.NewSweeper(tokenRepo, cfg.Cleanup.Interval, logger)
	go sweeper.Run(ctx)

	healthHandler := health.NewHandler(db, rdb)

	srv := server.New(server.Config{
		Server: cfg.Server,
		CORS:   cfg.CORS,
		Health: healthHandler,
		Logger: logger,
	})

	authenticator := middleware.Authenticator(jwtManager, blacklist)
	optionalAuth := middleware.OptionalAuth(jwtManager, blacklist)

	rateLimiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(cfg.RateLimit.Requests, cfg.RateLimit.Burst),
		FailOpen: true,
	})

	authHandler := auth.NewHandler(authService, googleVerifier, userService)
	userHandler := user.NewHandler(userService)
	ratingHandler := rating.NewHandler(rating.NewRepository(db.DB))
	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: rdb.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  rdb.Ping,
		Sweeper:    sweeper,
	})

	srv.Router().Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Handler)

		r.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, middleware.RequireAdmin)
		ratingHandler.RegisterRoutes(r, authenticator, optionalAuth)
		adminHandler.RegisterRoutes(r, authenticator, middleware.RequireAdmin)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay,
	)
	defer cancel()

	return srv.Shutdown(shutdownCtx, drainDelay)
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
