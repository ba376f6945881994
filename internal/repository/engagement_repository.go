package repository

import (
	"context"
	"fmt"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/database"
)

type engagementRepository struct {
	db *database.PostgresDB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *database.PostgresDB) EngagementRepository {
	return &engagementRepository{db: db}
}

// Record stores an engagement event
func (r *engagementRepository) Record(ctx context.Context, event *domain.EngagementEvent) error {
	query := `
		INSERT INTO engagement_events (business_id, user_id, kind, duration_seconds, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.BusinessID,
		event.UserID,
		string(event.Kind),
		event.DurationSeconds,
		event.OccurredAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to record engagement event: %w", err)
	}

	return nil
}
