package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/brightcare/clinic-platform/internal/api/router"
	appconfig "github.com/brightcare/clinic-platform/internal/config"
	"github.com/brightcare/clinic-platform/internal/http/handlers"
	"github.com/brightcare/clinic-platform/internal/notify"
	"github.com/brightcare/clinic-platform/internal/observability/metrics"
	"github.com/brightcare/clinic-platform/internal/patients"
	"github.com/brightcare/clinic-platform/internal/reminders"
	"github.com/brightcare/clinic-platform/internal/runlock"
	"github.com/brightcare/clinic-platform/internal/shortlinks"
	"github.com/brightcare/clinic-platform/internal/source"
	"github.com/brightcare/clinic-platform/internal/templates"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Redis backs the run lock. Without it runs are unserialized, which is
	// acceptable for local development.
	var lock reminders.RunLock
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = redisClient.Close() }()
		lock = runlock.New(redisClient, "reminders:run", cfg.RunLockTTL, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, reminder runs are not serialized")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reminderMetrics := metrics.NewReminderMetrics(registry)

	sourceClient := source.NewClient(cfg.SourceBaseURL, cfg.SourceTimeout, logger)
	draftStore := reminders.NewStore(pool)
	templateStore := templates.NewStore(pool)
	patientRepo := patients.NewRepository(pool)
	linkStore := shortlinks.NewStore(pool)
	linkIssuer := shortlinks.NewIssuer(linkStore, cfg.LinkCodeLength, cfg.LinkTTL, logger)

	runner := reminders.NewRunner(reminders.RunnerConfig{
		Source:   sourceClient,
		Filter:   reminders.NewFilterPipeline(cfg.DoctorAllowlist, cfg.BusinessHourStart, cfg.BusinessHourEnd, draftStore),
		Composer: reminders.NewComposer(templateStore),
		Store:    draftStore,
		Patients: patientRepo,
		Links:    linkIssuer,
		Lock:     lock,
		Metrics:  reminderMetrics,
		Logger:   logger,

		PublicBaseURL:      cfg.PublicBaseURL,
		DestinationBaseURL: cfg.DestinationBaseURL,

		AppointmentDuration: cfg.AppointmentDuration,
	})

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var alerts *notify.Service
	if emailSender != nil {
		alerts = notify.NewService(emailSender, cfg.AlertRecipients, cfg.Env, logger)
	} else {
		alerts = notify.NewService(nil, nil, cfg.Env, logger)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Reminders:          handlers.NewRemindersHandler(runner, alerts, logger),
		AdminDrafts:        handlers.NewAdminDraftsHandler(draftStore, logger),
		Redirects:          handlers.NewRedirectHandler(linkStore, logger),
		CronSecret:         cfg.CronSecret,
		AdminJWTSecret:     cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
		// Reminder runs execute synchronously inside the request.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
