package repository

import (
	"context"
	"time"

	"zamstay-be/internal/domain"
)

// StatsStore aggregates records for the dashboard. Implementations wrap every
// failure as a DataUnavailable error.
type StatsStore interface {
	// Count returns the number of records matching the filter
	Count(ctx context.Context, entity Entity, filter Filter) (int64, error)

	// Sum totals a money field; no matching records sums to zero
	Sum(ctx context.Context, entity Entity, field string, filter Filter) (domain.Money, error)

	// Average returns the mean of a money field; no matching records is zero
	Average(ctx context.Context, entity Entity, field string, filter Filter) (domain.Money, error)

	// GroupCount counts records per value of field, largest first, ties by
	// value ascending, truncated to limit when limit > 0
	GroupCount(ctx context.Context, entity Entity, field string, filter Filter, limit int) ([]domain.CategoryCount, error)
}

// PromotionRepository defines the interface for promotion writes
type PromotionRepository interface {
	// Create inserts a promotion and fills its ID and timestamps
	Create(ctx context.Context, promotion *domain.Promotion) error

	// GetByID retrieves a promotion by ID
	GetByID(ctx context.Context, id int64) (*domain.Promotion, error)

	// UpdateStatus moves a promotion to a new status only if it is still in
	// the expected one
	UpdateStatus(ctx context.Context, id int64, from, to domain.PromotionStatus, at time.Time) error

	// BusinessOwner returns the owner of a business
	BusinessOwner(ctx context.Context, businessID int64) (int64, error)
}

// EngagementRepository defines the interface for engagement event writes
type EngagementRepository interface {
	// Record stores an engagement event
	Record(ctx context.Context, event *domain.EngagementEvent) error
}

// AnalyticsRepository defines the interface for per-day analytics
type AnalyticsRepository interface {
	// Daily returns one row per day in [from, to], newest first
	Daily(ctx context.Context, from, to time.Time) ([]domain.DailyAnalytics, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Stats      StatsStore
	Promotion  PromotionRepository
	Engagement EngagementRepository
	Analytics  AnalyticsRepository
}
