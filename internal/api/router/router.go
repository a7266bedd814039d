package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/wolfman30/dentago-admin/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/dentago-admin/internal/http/middleware"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Appointments       *handlers.AppointmentsHandler
	Doctors            *handlers.DoctorsHandler
	Profile            *handlers.ProfileHandler
	Uploads            *handlers.UploadsHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimitPerMinute caps /api requests per client IP; 0 disables it.
	RateLimitPerMinute int
	StartedAt          time.Time
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	started := cfg.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health(started))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			api.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}
		api.Use(httpmiddleware.BearerToken(cfg.Logger))

		if h := cfg.Appointments; h != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Get("/", h.List)
				r.Get("/{id}", h.Get)
				r.Post("/{id}/cancel", h.Cancel)
				r.Delete("/{id}", h.Delete)
			})
		}
		if h := cfg.Doctors; h != nil {
			api.Route("/doctors", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Get("/{id}", h.Get)
				r.Put("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)
			})
		}
		if h := cfg.Profile; h != nil {
			api.Get("/profile", h.Get)
			api.Patch("/profile", h.Update)
		}
		if h := cfg.Uploads; h != nil {
			api.Post("/uploads/image", h.UploadImage)
		}
	})

	return r
}
