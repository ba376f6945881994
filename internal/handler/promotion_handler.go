package handler

import (
	"net/http"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/middleware"
	"zamstay-be/internal/service"
	"zamstay-be/pkg/logger"
)

// PromotionHandler serves owner promotion writes
type PromotionHandler struct {
	promotions service.PromotionService
	logger     *logger.Logger
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(promotions service.PromotionService, logger *logger.Logger) *PromotionHandler {
	return &PromotionHandler{
		promotions: promotions,
		logger:     logger,
	}
}

// Create handles POST /api/v1/business/promotions
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePromotionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	promotion, err := h.promotions.Create(r.Context(), middleware.GetClaims(r.Context()), &req)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, promotion, h.logger)
}

// UpdateStatus handles PATCH /api/v1/business/promotions/{id}/status
func (h *PromotionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	var req domain.UpdatePromotionStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	promotion, err := h.promotions.UpdateStatus(r.Context(), middleware.GetClaims(r.Context()), id, &req)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, promotion, h.logger)
}
