package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/quota"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/scheduler"
	"github.com/ahmetcoskunkizilkaya/spraply-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewConsoleHandler(os.Stdout, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel)),
		pgLogHandler,
	)))

	// Quota core
	mode := quota.ModeFromEnterprise(cfg.EnterpriseMode)
	quotaRepo := repository.NewQuotaRepository(database.DB)
	resolver := quota.NewResolver(mode)
	ledger := quota.NewLedger(quotaRepo, mode, quota.WithSerialization(cfg.SerializeAdmissions))
	admission := quota.NewController(quotaRepo, resolver, quota.WithSerialization(cfg.SerializeAdmissions))
	slog.Info("quota configured", "mode", mode.String(), "serialize_admissions", cfg.SerializeAdmissions)

	// Services
	teamService := services.NewTeamService(database.DB)
	authService := services.NewAuthService(database.DB, cfg, teamService)
	planService := services.NewPlanService(database.DB)
	subscriptionService := services.NewSubscriptionService(database.DB, cfg, ledger, resolver, quotaRepo, teamService)
	jobService := services.NewJobService(database.DB, ledger)
	proxyService := services.NewProxyService(database.DB)

	var seedPlans []models.Plan
	if cfg.PlanCatalogFile != "" {
		loaded, err := services.LoadPlanCatalog(cfg.PlanCatalogFile)
		if err != nil {
			slog.Error("plan catalog load failed", "path", cfg.PlanCatalogFile, "error", err)
			os.Exit(1)
		}
		seedPlans = loaded
	}
	if err := planService.EnsureDefaultPlans(context.Background(), seedPlans); err != nil {
		slog.Error("plan bootstrap failed", "error", err)
		os.Exit(1)
	}

	// Scheduled maintenance
	sched, err := scheduler.New(
		scheduler.Config{DailyCreditReset: cfg.DailyCreditReset, LogCleanup: cfg.LogCleanup},
		ledger,
		func(ctx context.Context) (int64, error) {
			return logging.PurgeSystemLogs(ctx, database.DB, cfg.LogRetentionDays)
		},
	)
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, routes.LimiterStorage(cfg), routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Team:         handlers.NewTeamHandler(teamService),
		Plan:         handlers.NewPlanHandler(planService),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Job:          handlers.NewJobHandler(admission, jobService),
		Proxy:        handlers.NewProxyHandler(proxyService),
		Internal:     handlers.NewInternalHandler(jobService),
		Health:       handlers.NewHealthHandler(cfg, mode, authService, database.Ping),
		Webhook:      handlers.NewWebhookHandler(subscriptionService),
	}, routes.Guards{
		Users: authService,
		Teams: teamService,
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	sched.Stop(ctx)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
