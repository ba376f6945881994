package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/middleware"
	"zamstay-be/internal/service"
	"zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// defaultAnalyticsDays is the range served when no dates are given
const defaultAnalyticsDays = 30

// DashboardHandler serves admin and owner statistics
type DashboardHandler struct {
	stats  service.DashboardService
	clock  clockwork.Clock
	loc    *time.Location
	logger *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats service.DashboardService, clock clockwork.Clock, loc *time.Location, logger *logger.Logger) *DashboardHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardHandler{
		stats:  stats,
		clock:  clock,
		loc:    loc,
		logger: logger,
	}
}

// GetAdminStats handles GET /api/v1/admin/dashboard/stats
func (h *DashboardHandler) GetAdminStats(w http.ResponseWriter, r *http.Request) {
	h.serveSnapshot(w, r, domain.AdminScope())
}

// GetBusinessStats handles GET /api/v1/business/dashboard/stats. Owners
// always see their own partition; admins select one with owner_id.
func (h *DashboardHandler) GetBusinessStats(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		middleware.WriteError(w, r, errors.NewAuthenticationError("Authentication required"), h.logger)
		return
	}

	ownerID := r.URL.Query().Get("owner_id")
	if !claims.IsAdmin() {
		self := strconv.FormatInt(claims.UserID, 10)
		if ownerID != "" && ownerID != self {
			middleware.WriteError(w, r, errors.NewAuthorizationError("Owners may only read their own statistics"), h.logger)
			return
		}
		ownerID = self
	} else if ownerID == "" {
		middleware.WriteError(w, r, errors.NewInvalidScopeError("owner_id is required"), h.logger)
		return
	}

	scope, err := domain.ParseScope(string(domain.ScopeBusiness), ownerID)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}
	h.serveSnapshot(w, r, scope)
}

func (h *DashboardHandler) serveSnapshot(w http.ResponseWriter, r *http.Request, scope domain.Scope) {
	ref, explicit, err := referenceTime(r, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	// point-in-time requests bypass the per-date cache entry
	var snapshot *domain.Snapshot
	if explicit {
		snapshot, err = h.stats.ComputeSnapshot(r.Context(), scope, ref)
	} else {
		snapshot, err = h.stats.GetDashboardStats(r.Context(), scope, ref)
	}
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	etag := generateETag(snapshot)
	w.Header().Set(middleware.ScopeHeader, scope.String())
	w.Header().Set("Cache-Control", "private, no-cache")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, snapshot, h.logger)
}

// GetOverview handles GET /api/v1/admin/dashboard/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	ref, explicit, err := referenceTime(r, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	var overview *domain.Overview
	if explicit {
		overview, err = h.stats.ComputeOverview(r.Context(), ref)
	} else {
		overview, err = h.stats.GetOverview(r.Context(), ref)
	}
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set(middleware.ScopeHeader, domain.AdminScope().String())
	middleware.WriteJSON(w, http.StatusOK, overview, h.logger)
}

// GetUserStats handles GET /api/v1/admin/users/stats
func (h *DashboardHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ref, _, err := referenceTime(r, h.clock.Now())
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	stats, err := h.stats.GetUserStatistics(r.Context(), ref)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set(middleware.ScopeHeader, domain.AdminScope().String())
	middleware.WriteJSON(w, http.StatusOK, stats, h.logger)
}

// GetAnalytics handles GET /api/v1/admin/analytics?start_date&end_date.
// Missing bounds default to the 30 days ending today.
func (h *DashboardHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now().In(h.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.loc)

	to, ok, err := dateParam(r, "end_date", h.loc)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}
	if !ok {
		to = today
	}

	from, ok, err := dateParam(r, "start_date", h.loc)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}
	if !ok {
		from = to.AddDate(0, 0, -(defaultAnalyticsDays - 1))
	}

	days, err := h.stats.GetDailyAnalytics(r.Context(), from, to)
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start_date": from.Format(dateLayout),
		"end_date":   to.Format(dateLayout),
		"days":       days,
	}, h.logger)
}

// InvalidateCache handles DELETE /api/v1/admin/dashboard/cache?scope&owner_id
func (h *DashboardHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := domain.ParseScope(q.Get("scope"), q.Get("owner_id"))
	if err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.stats.InvalidateScope(r.Context(), scope); err != nil {
		middleware.WriteError(w, r, err, h.logger)
		return
	}

	if claims := middleware.GetClaims(r.Context()); claims != nil {
		h.logger.WithFields(map[string]interface{}{
			"user_id": claims.UserID,
			"scope":   scope.String(),
		}).Info("Dashboard cache invalidated by admin")
	}

	w.Header().Set(middleware.ScopeHeader, scope.String())
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"scope":   scope.String(),
	}, h.logger)
}
