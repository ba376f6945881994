package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/database"
	apperrors "zamstay-be/pkg/errors"
)

// analyticsRepository reads per-day platform activity from the read pool
type analyticsRepository struct {
	db *database.PostgresDB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *database.PostgresDB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

// Daily returns one row per calendar day in [from, to], newest first.
// Days with no activity are present with zero values.
func (r *analyticsRepository) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyAnalytics, error) {
	query := `
		SELECT
			to_char(d, 'YYYY-MM-DD'),
			COALESCE((SELECT SUM(amount) FROM revenue_records r WHERE r.period = d::date), 0)::text,
			(SELECT COUNT(*) FROM engagement_events e
			  WHERE e.kind = 'map_view' AND e.occurred_at >= d AND e.occurred_at < d + interval '1 day'),
			(SELECT COUNT(*) FROM engagement_events e
			  WHERE e.kind = 'promotion_view' AND e.occurred_at >= d AND e.occurred_at < d + interval '1 day'),
			(SELECT COUNT(*) FROM users u
			  WHERE u.date_joined >= d AND u.date_joined < d + interval '1 day')
		FROM generate_series($1::date, $2::date, interval '1 day') AS d
		ORDER BY d DESC
	`

	rows, err := r.db.GetReadPool().Query(ctx, query,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)
	if err != nil {
		return nil, apperrors.NewDataUnavailableError("failed to query daily analytics", err)
	}
	defer rows.Close()

	days := []domain.DailyAnalytics{}
	for rows.Next() {
		var (
			day     domain.DailyAnalytics
			revenue string
		)
		if err := rows.Scan(&day.Date, &revenue, &day.MapViews, &day.PromotionViews, &day.NewUsers); err != nil {
			return nil, apperrors.NewDataUnavailableError("failed to scan daily analytics row", err)
		}
		d, err := decimal.NewFromString(revenue)
		if err != nil {
			return nil, apperrors.NewDataUnavailableError(fmt.Sprintf("malformed revenue for %s", day.Date), err)
		}
		day.Revenue = domain.NewMoney(d)
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDataUnavailableError("error reading daily analytics rows", err)
	}

	return days, nil
}
