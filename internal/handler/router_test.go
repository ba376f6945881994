package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/middleware"
	"zamstay-be/internal/service/auth"
	apperrors "zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

var now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

type stubDashboard struct {
	mu          sync.Mutex
	scopes      []domain.Scope
	refs        []time.Time
	computed    []time.Time
	invalidated []domain.Scope
	from, to    time.Time
	err         error
}

func (s *stubDashboard) GetDashboardStats(_ context.Context, scope domain.Scope, ref time.Time) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes = append(s.scopes, scope)
	s.refs = append(s.refs, ref)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Snapshot{
		Users:    domain.UserStats{Total: 3},
		Revenue:  domain.RevenueStats{Today: domain.MustMoney("120.50")},
		Metadata: domain.SnapshotMetadata{Scope: scope, ReferenceTime: ref, Today: ref.Format(dateLayout)},
	}, nil
}

func (s *stubDashboard) ComputeSnapshot(_ context.Context, scope domain.Scope, ref time.Time) (*domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.computed = append(s.computed, ref)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Snapshot{
		Metadata: domain.SnapshotMetadata{Scope: scope, ReferenceTime: ref, Today: ref.Format(dateLayout)},
	}, nil
}

func (s *stubDashboard) ComputeOverview(_ context.Context, ref time.Time) (*domain.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.computed = append(s.computed, ref)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Overview{Date: ref.Format(dateLayout)}, nil
}

func (s *stubDashboard) InvalidateScope(_ context.Context, scope domain.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, scope)
	return s.err
}

func (s *stubDashboard) GetOverview(_ context.Context, ref time.Time) (*domain.Overview, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Overview{Date: ref.Format(dateLayout), System: domain.OverviewSystem{
		ActiveSessions:   domain.Unavailable(),
		APIRequestsToday: domain.Count(4),
	}}, nil
}

func (s *stubDashboard) GetUserStatistics(_ context.Context, ref time.Time) (*domain.UserStatistics, error) {
	stats := &domain.UserStatistics{ReferenceTime: ref}
	stats.Totals.AllUsers = 3
	return stats, s.err
}

func (s *stubDashboard) GetDailyAnalytics(_ context.Context, from, to time.Time) ([]domain.DailyAnalytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.from, s.to = from, to
	return []domain.DailyAnalytics{{Date: to.Format(dateLayout), Revenue: domain.ZeroMoney}}, s.err
}

type stubPromotions struct {
	caller *domain.AuthClaims
	id     int64
}

func (s *stubPromotions) Create(_ context.Context, caller *domain.AuthClaims, req *domain.CreatePromotionRequest) (*domain.Promotion, error) {
	s.caller = caller
	if req.Title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	return &domain.Promotion{ID: 7, BusinessID: req.BusinessID, Title: req.Title, Status: domain.PromotionPending}, nil
}

func (s *stubPromotions) UpdateStatus(_ context.Context, caller *domain.AuthClaims, id int64, req *domain.UpdatePromotionStatusRequest) (*domain.Promotion, error) {
	s.caller, s.id = caller, id
	if req.Status == "completed" {
		return nil, apperrors.NewConflictError("promotion is already completed")
	}
	return &domain.Promotion{ID: id, Status: domain.PromotionStatus(req.Status)}, nil
}

type stubEngagement struct {
	businessID int64
	userID     *int64
}

func (s *stubEngagement) Record(_ context.Context, businessID int64, userID *int64, req *domain.RecordEventRequest) (*domain.EngagementEvent, error) {
	s.businessID, s.userID = businessID, userID
	if businessID == 404 {
		return nil, apperrors.NewNotFoundError("business not found")
	}
	return &domain.EngagementEvent{ID: 1, BusinessID: businessID, UserID: userID, Kind: domain.EventKind(req.Kind)}, nil
}

type stubCounter struct {
	mu sync.Mutex
	n  int
}

func (c *stubCounter) Increment(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

type stubHealth struct{ err error }

func (h stubHealth) Health(context.Context) error { return h.err }

type routerFixture struct {
	handler    http.Handler
	tokens     *auth.Service
	dashboard  *stubDashboard
	promotions *stubPromotions
	engagement *stubEngagement
	counter    *stubCounter
	health     map[string]HealthChecker
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	log := logger.NewNop()
	clock := clockwork.NewFakeClockAt(now)

	f := &routerFixture{
		tokens:     auth.NewService("router-test-secret", clock, log),
		dashboard:  &stubDashboard{},
		promotions: &stubPromotions{},
		engagement: &stubEngagement{},
		counter:    &stubCounter{},
		health:     map[string]HealthChecker{"postgres": stubHealth{}, "redis": stubHealth{}},
	}
	f.handler = NewRouter(RouterConfig{
		Tokens:     f.tokens,
		Requests:   f.counter,
		Health:     NewHealthHandler(f.health, clock, "test", log),
		Dashboard:  NewDashboardHandler(f.dashboard, clock, time.UTC, log),
		Promotions: NewPromotionHandler(f.promotions, log),
		Engagement: NewEngagementHandler(f.engagement, log),
		Logger:     log,
	})
	return f
}

func (f *routerFixture) token(t *testing.T, userID int64, role domain.Role) string {
	t.Helper()
	token, err := f.tokens.IssueToken(domain.AuthClaims{UserID: userID, Role: role})
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorType {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Type
}

func TestAdminStats(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Header().Get(middleware.ScopeHeader))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var snapshot domain.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, int64(3), snapshot.Users.Total)
	assert.Equal(t, "120.50", snapshot.Revenue.Today.String())
	assert.Equal(t, []domain.Scope{domain.AdminScope()}, f.dashboard.scopes)
	assert.True(t, now.Equal(f.dashboard.refs[0]))
	assert.Equal(t, 1, f.counter.n)
}

func TestAdminStats_ReferenceTime(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/stats?reference_time=2024-01-02T03:04:05%2B07:00", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.dashboard.computed, 1)
	assert.True(t, time.Date(2024, 1, 1, 20, 4, 5, 0, time.UTC).Equal(f.dashboard.computed[0]))
	assert.Empty(t, f.dashboard.refs, "explicit reference_time must not go through the cached path")

	rec = f.do(http.MethodGet, "/api/v1/admin/dashboard/stats?reference_time=yesterday", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeValidation, errorType(t, rec))
}

func TestAdminStats_EarlyReferenceTimeDoesNotShadowCurrent(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/stats?reference_time=2024-03-15T00:00:01Z", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/admin/dashboard/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot domain.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.True(t, now.Equal(snapshot.Metadata.ReferenceTime))
	assert.Equal(t, int64(3), snapshot.Users.Total)
	require.Len(t, f.dashboard.refs, 1)
	assert.True(t, now.Equal(f.dashboard.refs[0]))

	rec = f.do(http.MethodGet, "/api/v1/admin/dashboard/overview?reference_time=2024-03-15T00:00:01Z", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.dashboard.computed, 2)
}

func TestAdminStats_ETag(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard/stats", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	f := newRouterFixture(t)
	owner := f.token(t, 10, domain.RoleOwner)

	for _, target := range []string{
		"/api/v1/admin/dashboard/stats",
		"/api/v1/admin/dashboard/overview",
		"/api/v1/admin/users/stats",
		"/api/v1/admin/analytics",
	} {
		rec := f.do(http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)

		rec = f.do(http.MethodGet, target, owner, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, target)
	}
	assert.Empty(t, f.dashboard.scopes)
}

func TestAdminStats_DataUnavailable(t *testing.T) {
	f := newRouterFixture(t)
	f.dashboard.err = apperrors.NewDataUnavailableError("revenue block unavailable", errors.New("timeout"))

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/stats", f.token(t, 1, domain.RoleAdmin), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeDataUnavailable, errorType(t, rec))
}

func TestBusinessStats(t *testing.T) {
	f := newRouterFixture(t)
	owner := f.token(t, 10, domain.RoleOwner)
	admin := f.token(t, 1, domain.RoleAdmin)
	customer := f.token(t, 5, domain.RoleCustomer)

	rec := f.do(http.MethodGet, "/api/v1/business/dashboard/stats", owner, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "business:10", rec.Header().Get(middleware.ScopeHeader))

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats?owner_id=10", owner, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats?owner_id=20", owner, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats?owner_id=20", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "business:20", rec.Header().Get(middleware.ScopeHeader))

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeInvalidScope, errorType(t, rec))

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats?owner_id=abc", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/business/dashboard/stats", customer, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, []domain.Scope{
		domain.BusinessScope(10),
		domain.BusinessScope(10),
		domain.BusinessScope(20),
	}, f.dashboard.scopes)
}

func TestOverviewAndUserStats(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/dashboard/overview", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_sessions":null`)
	assert.Contains(t, rec.Body.String(), `"api_requests_today":4`)

	rec = f.do(http.MethodGet, "/api/v1/admin/users/stats", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.UserStatistics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, int64(3), stats.Totals.AllUsers)
}

func TestAnalytics(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodGet, "/api/v1/admin/analytics", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), f.dashboard.to)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), f.dashboard.from)

	rec = f.do(http.MethodGet, "/api/v1/admin/analytics?start_date=2024-03-01&end_date=2024-03-07", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.dashboard.from)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), f.dashboard.to)

	var body struct {
		StartDate string                  `json:"start_date"`
		EndDate   string                  `json:"end_date"`
		Days      []domain.DailyAnalytics `json:"days"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "2024-03-01", body.StartDate)
	assert.Len(t, body.Days, 1)

	rec = f.do(http.MethodGet, "/api/v1/admin/analytics?start_date=03/01/2024", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidateCache(t *testing.T) {
	f := newRouterFixture(t)
	admin := f.token(t, 1, domain.RoleAdmin)

	rec := f.do(http.MethodDelete, "/api/v1/admin/dashboard/cache?scope=business&owner_id=10", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "business:10", rec.Header().Get(middleware.ScopeHeader))

	rec = f.do(http.MethodDelete, "/api/v1/admin/dashboard/cache?scope=admin", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/admin/dashboard/cache?scope=everything", admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeInvalidScope, errorType(t, rec))

	assert.Equal(t, []domain.Scope{domain.BusinessScope(10), domain.AdminScope()}, f.dashboard.invalidated)

	f.dashboard.err = apperrors.NewCacheUnavailableError("cache down", errors.New("dial tcp"))
	rec = f.do(http.MethodDelete, "/api/v1/admin/dashboard/cache?scope=admin", admin, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPromotionRoutes(t *testing.T) {
	f := newRouterFixture(t)
	owner := f.token(t, 10, domain.RoleOwner)

	body := `{"business_id":1,"title":"Weekend special","starts_at":"2024-03-15T00:00:00Z","ends_at":"2024-03-18T00:00:00Z","amount":"45.00"}`
	rec := f.do(http.MethodPost, "/api/v1/business/promotions", owner, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(10), f.promotions.caller.UserID)

	rec = f.do(http.MethodPost, "/api/v1/business/promotions", owner, `{"business_id":1,"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/business/promotions", owner, `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/business/promotions/7/status", owner, `{"status":"active"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), f.promotions.id)

	rec = f.do(http.MethodPatch, "/api/v1/business/promotions/7/status", owner, `{"status":"completed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPatch, "/api/v1/business/promotions/abc/status", owner, `{"status":"active"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/business/promotions", f.token(t, 5, domain.RoleCustomer), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordEvent(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, "/api/v1/businesses/3/events", "", `{"kind":"map_view"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(3), f.engagement.businessID)
	assert.Nil(t, f.engagement.userID)

	rec = f.do(http.MethodPost, "/api/v1/businesses/3/events", f.token(t, 5, domain.RoleCustomer), `{"kind":"promotion_view"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, f.engagement.userID)
	assert.Equal(t, int64(5), *f.engagement.userID)

	rec = f.do(http.MethodPost, "/api/v1/businesses/404/events", "", `{"kind":"map_view"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/businesses/3/events", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/businesses/3/events", "not-a-jwt", `{"kind":"map_view"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, body.Dependencies)

	f.health["redis"] = stubHealth{err: errors.New("connection refused")}
	rec = f.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unavailable", body.Dependencies["redis"])

	// health checks are not API requests
	assert.Zero(t, f.counter.n)
}

func TestNotFound(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.ErrorTypeNotFound, errorType(t, rec))
}
