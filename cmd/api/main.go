// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carterperez-dev/freelancer-packages/internal/auth"
	"github.com/carterperez-dev/freelancer-packages/internal/config"
	"github.com/carterperez-dev/freelancer-packages/internal/core"
	"github.com/carterperez-dev/freelancer-packages/internal/freelancer"
	"github.com/carterperez-dev/freelancer-packages/internal/health"
	"github.com/carterperez-dev/freelancer-packages/internal/middleware"
	"github.com/carterperez-dev/freelancer-packages/internal/packages"
	"github.com/carterperez-dev/freelancer-packages/internal/server"
	"github.com/carterperez-dev/freelancer-packages/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
	} else if telemetry.Enabled() {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeWith(logger, "database", db.Close)
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeWith(logger, "redis", redis.Close)
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
		"key_prefix", cfg.Redis.KeyPrefix,
	)

	if cfg.IsDevelopment() {
		created, err := auth.EnsureKeyPair(
			cfg.Session.PrivateKeyPath,
			cfg.Session.PublicKeyPath,
		)
		if err != nil {
			return err
		}
		if created {
			logger.Warn("generated development signing keys",
				"private_key", cfg.Session.PrivateKeyPath,
			)
		}
	}

	tokens, err := auth.NewTokenManager(cfg.Session)
	if err != nil {
		return err
	}
	logger.Info("session token manager initialized",
		"algorithm", "ES256",
		"issuer", cfg.Session.Issuer,
	)

	renderer, err := web.NewRenderer(cfg.App.Name)
	if err != nil {
		return err
	}

	metrics := core.NewMetrics()

	freelancerSvc := freelancer.NewService(db.DB)
	authSvc := auth.NewService(
		freelancerSvc,
		auth.NewSessionStore(redis),
		tokens,
		auth.ServiceConfig{
			TTL:         cfg.Session.TTL,
			RememberTTL: cfg.Session.RememberTTL,
			Metrics:     metrics,
		},
	)
	packageSvc := packages.NewService(packages.NewStore(db.DB), metrics)

	authHandler := auth.NewHandler(authSvc, renderer, auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})
	freelancerHandler := freelancer.NewHandler(
		freelancerSvc,
		packageSvc,
		authSvc,
		renderer,
	)
	packageHandler := packages.NewHandler(packageSvc, renderer)

	healthHandler := health.NewHandler(health.Config{
		Environment: cfg.App.Environment,
		DB:          db,
		Redis:       redis,
		Tables:      db,
		DBStats:     db.Stats,
		RedisStats:  redis.PoolStats,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	tooManyRequests := func(w http.ResponseWriter, r *http.Request) {
		renderer.Error(
			w,
			r,
			http.StatusTooManyRequests,
			middleware.GetSession(r.Context()).IsAuthenticated(),
		)
	}

	router := srv.Router()

	router.Use(middleware.TrustedRealIP(trustedProxies))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.LoadSession(authSvc, cfg.Session.CookieName))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(metrics))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			Prefix:    cfg.Redis.KeyPrefix,
			KeyFunc:   middleware.KeyByAccount,
			Skip:      isProbe,
			OnLimited: tooManyRequests,
		}).Handler,
	)

	authLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.AuthRequests,
				cfg.RateLimit.AuthBurst,
			),
			Prefix:    redis.Key("auth"),
			KeyFunc:   middleware.KeyByIPAndEndpoint,
			OnLimited: tooManyRequests,
		},
	)

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", metrics.Handler())

	authHandler.RegisterRoutes(router, authLimiter.Handler)
	freelancerHandler.RegisterRoutes(router)
	packageHandler.RegisterRoutes(router)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		renderer.Error(
			w,
			r,
			http.StatusNotFound,
			middleware.GetSession(r.Context()).IsAuthenticated(),
		)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+cfg.Server.DrainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, cfg.Server.DrainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func isProbe(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/livez", "/readyz", "/metrics":
		return true
	}
	return false
}

func closeWith(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error(name+" close error", "error", err)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
