package service

import (
	"context"
	"time"

	"zamstay-be/internal/domain"
)

// SnapshotCache stores computed statistics documents. Any backend failure is
// returned as a CacheUnavailable error; a missing key is not an error.
type SnapshotCache interface {
	// Get decodes the entry at key into dst and reports whether it existed
	Get(ctx context.Context, key string, dst interface{}) (bool, error)

	// Set stores v at key for ttl
	Set(ctx context.Context, key string, v interface{}, ttl time.Duration) error

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// DashboardService defines the dashboard statistics operations
type DashboardService interface {
	// GetDashboardStats returns the snapshot for scope as of referenceTime
	GetDashboardStats(ctx context.Context, scope domain.Scope, referenceTime time.Time) (*domain.Snapshot, error)

	// ComputeSnapshot returns the snapshot for scope as of referenceTime
	// without reading or writing the cache
	ComputeSnapshot(ctx context.Context, scope domain.Scope, referenceTime time.Time) (*domain.Snapshot, error)

	// InvalidateScope drops every cached snapshot of scope
	InvalidateScope(ctx context.Context, scope domain.Scope) error

	// GetOverview returns the admin landing-page summary
	GetOverview(ctx context.Context, referenceTime time.Time) (*domain.Overview, error)

	// ComputeOverview returns the overview as of referenceTime without
	// reading or writing the cache
	ComputeOverview(ctx context.Context, referenceTime time.Time) (*domain.Overview, error)

	// GetUserStatistics returns the admin user-management summary
	GetUserStatistics(ctx context.Context, referenceTime time.Time) (*domain.UserStatistics, error)

	// GetDailyAnalytics returns per-day activity between two dates inclusive
	GetDailyAnalytics(ctx context.Context, from, to time.Time) ([]domain.DailyAnalytics, error)
}

// PromotionService defines owner-side promotion writes
type PromotionService interface {
	// Create validates and stores a promotion on one of the caller's businesses
	Create(ctx context.Context, caller *domain.AuthClaims, req *domain.CreatePromotionRequest) (*domain.Promotion, error)

	// UpdateStatus moves a promotion forward in its lifecycle
	UpdateStatus(ctx context.Context, caller *domain.AuthClaims, id int64, req *domain.UpdatePromotionStatusRequest) (*domain.Promotion, error)
}

// EngagementService defines engagement tracking
type EngagementService interface {
	// Record stores a visitor interaction with a business
	Record(ctx context.Context, businessID int64, userID *int64, req *domain.RecordEventRequest) (*domain.EngagementEvent, error)
}

// RequestCounter counts API requests per calendar day
type RequestCounter interface {
	// Increment adds one request to the current day
	Increment(ctx context.Context) error

	// Today returns the number of requests counted on the current day
	Today(ctx context.Context) (int64, error)
}

// Services aggregates all service interfaces
type Services struct {
	Dashboard  DashboardService
	Promotion  PromotionService
	Engagement EngagementService
	Requests   RequestCounter
}
