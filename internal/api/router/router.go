package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brightcare/clinic-platform/internal/http/handlers"
	httpmiddleware "github.com/brightcare/clinic-platform/internal/http/middleware"
	"github.com/brightcare/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	Reminders   *handlers.RemindersHandler
	AdminDrafts *handlers.AdminDraftsHandler
	Redirects   *handlers.RedirectHandler

	CronSecret         string
	AdminJWTSecret     string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public surface: health, metrics and the patient-facing redirect.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Redirects != nil {
			public.Get("/r/{code}", cfg.Redirects.Resolve)
		}
	})

	// Scheduler-triggered run endpoint, secured by the cron secret.
	if cfg.Reminders != nil {
		r.Route("/internal/reminders", func(r chi.Router) {
			r.Use(httpmiddleware.CronAuth(cfg.CronSecret))
			r.Get("/run", cfg.Reminders.Run)
		})
	}

	// Admin review surface behind JWT auth.
	if cfg.AdminDrafts != nil {
		r.Route("/admin/reminders", func(r chi.Router) {
			r.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			r.Get("/", cfg.AdminDrafts.List)
			r.Post("/{draftID}/status", cfg.AdminDrafts.UpdateStatus)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
