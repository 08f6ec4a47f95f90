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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/coursehub/internal/access"
	"github.com/carterperez-dev/coursehub/internal/admin"
	"github.com/carterperez-dev/coursehub/internal/auth"
	"github.com/carterperez-dev/coursehub/internal/combo"
	"github.com/carterperez-dev/coursehub/internal/config"
	"github.com/carterperez-dev/coursehub/internal/core"
	"github.com/carterperez-dev/coursehub/internal/course"
	"github.com/carterperez-dev/coursehub/internal/enrollment"
	"github.com/carterperez-dev/coursehub/internal/health"
	"github.com/carterperez-dev/coursehub/internal/metrics"
	"github.com/carterperez-dev/coursehub/internal/middleware"
	"github.com/carterperez-dev/coursehub/internal/notify"
	"github.com/carterperez-dev/coursehub/internal/order"
	"github.com/carterperez-dev/coursehub/internal/server"
	"github.com/carterperez-dev/coursehub/internal/sweep"
	"github.com/carterperez-dev/coursehub/internal/user"
)

const (
	drainDelay     = 5 * time.Second
	authRatePerMin = 10
	authRateBurst  = 5
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrate := flag.Bool("migrate", false, "apply pending migrations before serving")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string, migrate bool) error {
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

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if migrate {
		applied, migErr := core.Migrate(ctx, db.DB, logger)
		if migErr != nil {
			return migErr
		}
		logger.Info("migrations complete", "applied", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	hasher, err := core.NewPasswordHasher(core.ArgonParamsFrom(cfg.Password))
	if err != nil {
		return err
	}

	clock := core.Clock(core.SystemClock)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)

	authSvc := auth.NewService(jwtManager, userSvc, hasher)
	authHandler := auth.NewHandler(authSvc)

	courseRepo := course.NewRepository(db.DB)
	courseSvc := course.NewService(courseRepo)

	comboRepo := combo.NewRepository(db.DB)
	comboSvc := combo.NewService(comboRepo, courseRepo, db, cfg.Access.ComboMaxCourses)
	comboHandler := combo.NewHandler(comboSvc)

	enrollmentRepo := enrollment.NewRepository(db.DB)
	enrollmentSvc := enrollment.NewService(enrollmentRepo, comboRepo, db, logger)
	enrollmentHandler := enrollment.NewHandler(enrollmentSvc, clock)

	notifier := notify.NewDispatcher(
		notify.SenderFor(redis.Client, cfg.Notify.Channel),
		logger,
		cfg.Notify.Timeout,
	)
	logger.Info("notifications configured", "channel", cfg.Notify.Channel)

	orderRepo := order.NewRepository(db.DB)
	orderSvc := order.NewService(cfg.Access, order.Deps{
		Repo:        orderRepo,
		Courses:     courseRepo,
		Combos:      comboRepo,
		Enrollments: enrollmentSvc,
		Tx:          db,
		Notifier:    notifier,
		Logger:      logger,
		Clock:       clock,
	})
	orderHandler := order.NewHandler(orderSvc)

	resolver := access.NewResolver(orderRepo, enrollmentRepo, comboRepo, logger)
	accessHandler := access.NewHandler(resolver, clock)
	guarded := access.RequireCourseAccess(resolver, clock)

	userHandler := user.NewHandler(userSvc.WithHoldings(resolver, orderSvc, clock))

	courseHandler := course.NewHandler(courseSvc).WithAccessCheck(accessHandler.CheckCourse)

	scheduler := sweep.NewScheduler(cfg.Sweep, orderSvc, redis, clock, logger)

	checks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if cfg.Sweep.Enabled {
		checks = append(checks, health.Check{Name: "sweep", Checker: scheduler, Optional: true})
	}
	healthHandler := health.NewHandler(checks...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		Sweeper:    scheduler,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(metrics.Middleware)
	}
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: isProbe(cfg.Metrics.Path),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Method(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.JWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	credentialLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerMinute(authRatePerMin, authRateBurst),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	})

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r.With(credentialLimiter.Handler), authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		courseHandler.RegisterRoutes(r, authenticator, guarded)
		comboHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r, authenticator)
		enrollmentHandler.RegisterRoutes(r, authenticator, guarded)
		accessHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		courseHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		comboHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		orderHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		enrollmentHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	sweepDone := make(chan struct{})
	if cfg.Sweep.Enabled {
		go func() {
			defer close(sweepDone)
			if err := scheduler.Run(sweepCtx); err != nil {
				logger.Error("sweep scheduler exited", "error", err)
			}
		}()
	} else {
		close(sweepDone)
		logger.Info("sweep scheduler disabled")
	}

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
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	stopSweep()
	select {
	case <-sweepDone:
	case <-shutdownCtx.Done():
		logger.Warn("sweep scheduler did not stop in time")
	}

	if err := notifier.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func isProbe(metricsPath string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		p := r.URL.Path
		return p == metricsPath ||
			p == "/healthz" || p == "/livez" || p == "/readyz" ||
			strings.HasPrefix(p, "/.well-known/")
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
