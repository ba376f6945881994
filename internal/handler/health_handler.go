package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/middleware"
	"zamstay-be/pkg/logger"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checks  map[string]HealthChecker
	clock   clockwork.Clock
	version string
	logger  *logger.Logger
}

// NewHealthHandler creates a new health handler. checks maps a dependency
// name to its probe.
func NewHealthHandler(checks map[string]HealthChecker, clock clockwork.Clock, version string, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		clock:   clock,
		version: version,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	Service      string            `json:"service"`
	Dependencies map[string]string `json:"dependencies"`
}

// Check handles GET /health. Any failing dependency makes the service
// unhealthy.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    h.clock.Now().UTC(),
		Version:      h.version,
		Service:      "zamstay-be",
		Dependencies: make(map[string]string, len(h.checks)),
	}

	status := http.StatusOK
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			response.Dependencies[name] = "unavailable"
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Dependencies[name] = "ok"
	}

	middleware.WriteJSON(w, status, response, h.logger)
}
