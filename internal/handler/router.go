package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/middleware"
	"zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// RouterConfig carries everything the HTTP surface is built from
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration

	Tokens   middleware.TokenValidator
	Requests middleware.Incrementer

	Health     *HealthHandler
	Dashboard  *DashboardHandler
	Promotions *PromotionHandler
	Engagement *EngagementHandler

	Logger *logger.Logger
}

// NewRouter configures and returns the HTTP router
func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Logger
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.AllowedOrigins, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", cfg.Health.Check)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Requests != nil {
			r.Use(middleware.CountRequests(cfg.Requests, log))
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens, log))
			r.Use(middleware.RequireRole(log, domain.RoleAdmin))

			r.Get("/dashboard/stats", cfg.Dashboard.GetAdminStats)
			r.Get("/dashboard/overview", cfg.Dashboard.GetOverview)
			r.Delete("/dashboard/cache", cfg.Dashboard.InvalidateCache)
			r.Get("/users/stats", cfg.Dashboard.GetUserStats)
			r.Get("/analytics", cfg.Dashboard.GetAnalytics)
		})

		r.Route("/business", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Tokens, log))
			r.Use(middleware.RequireRole(log, domain.RoleOwner, domain.RoleAdmin))

			r.Get("/dashboard/stats", cfg.Dashboard.GetBusinessStats)
			r.Post("/promotions", cfg.Promotions.Create)
			r.Patch("/promotions/{id}/status", cfg.Promotions.UpdateStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.Tokens, log))
			r.Post("/businesses/{id}/events", cfg.Engagement.RecordEvent)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, errors.NewNotFoundError("Endpoint not found"), log)
	})

	log.Info("Router configured successfully")
	return r
}
