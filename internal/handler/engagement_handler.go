package handler

import (
	"net/http"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/middleware"
	"zamstay-be/internal/service"
	"zamstay-be/pkg/logger"
)

// EngagementHandler records visitor interactions with businesses
type EngagementHandler struct {
	engagement service.EngagementService
	logger     *logger.Logger
}

// NewEngagementHandler creates a new engagement handler
func NewEngagementHandler(engagement service.EngagementService, logger *logger.Logger) *EngagementHandler {
	return &EngagementHandler{
		engagement: engagement,
		logger:     logger,
	}
}

// RecordEvent handles POST /api/v1/businesses/{id}/events. Anonymous
// visitors are recorded without a user id.
func (h *EngagementHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	businessID, err := idParam(r, "id")
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	var req domain.RecordEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	var userID *int64
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		id := claims.UserID
		userID = &id
	}

	event, err := h.engagement.Record(r.Context(), businessID, userID, &req)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, event, h.logger)
}
