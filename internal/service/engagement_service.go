package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/repository"
	apperrors "zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// MaxEventDuration caps the reported view duration in seconds
const MaxEventDuration = 24 * 60 * 60

// engagementService records visitor interactions. Events do not invalidate
// cached snapshots; they show up once the entry expires.
type engagementService struct {
	repo   repository.EngagementRepository
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewEngagementService creates a new engagement service
func NewEngagementService(repo repository.EngagementRepository, clock clockwork.Clock, log *logger.Logger) EngagementService {
	return &engagementService{
		repo:   repo,
		clock:  clock,
		logger: log,
	}
}

// Record stores an engagement event for a business
func (s *engagementService) Record(ctx context.Context, businessID int64, userID *int64, req *domain.RecordEventRequest) (*domain.EngagementEvent, error) {
	if businessID <= 0 {
		return nil, apperrors.NewValidationError("invalid business id", nil)
	}
	kind, err := domain.ParseEventKind(req.Kind)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]interface{}{
			"allowed": []domain.EventKind{domain.EventMapView, domain.EventPromotionView, domain.EventPromotionRedemption},
		})
	}
	if req.DurationSeconds < 0 || req.DurationSeconds > MaxEventDuration {
		return nil, apperrors.NewValidationError("duration_seconds out of range", nil)
	}

	event := &domain.EngagementEvent{
		BusinessID:      businessID,
		UserID:          userID,
		Kind:            kind,
		DurationSeconds: req.DurationSeconds,
		OccurredAt:      s.clock.Now(),
	}
	if err := s.repo.Record(ctx, event); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign key violation
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("business %d not found", businessID))
		}
		s.logger.WithError(err).WithField("business_id", businessID).Error("Failed to record engagement event")
		return nil, apperrors.NewInternalError("failed to record event", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"business_id": businessID,
		"kind":        kind,
	}).Debug("Engagement event recorded")

	return event, nil
}
