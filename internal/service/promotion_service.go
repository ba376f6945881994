package service

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/repository"
	apperrors "zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
)

// ScopeInvalidator drops cached statistics for a scope
type ScopeInvalidator interface {
	InvalidateScope(ctx context.Context, scope domain.Scope) error
}

// promotionService handles owner-side promotion writes. Every successful
// write invalidates the owning scope's cached snapshot.
type promotionService struct {
	repo        repository.PromotionRepository
	invalidator ScopeInvalidator
	clock       clockwork.Clock
	logger      *logger.Logger
}

// NewPromotionService creates a new promotion service
func NewPromotionService(repo repository.PromotionRepository, invalidator ScopeInvalidator, clock clockwork.Clock, log *logger.Logger) PromotionService {
	return &promotionService{
		repo:        repo,
		invalidator: invalidator,
		clock:       clock,
		logger:      log,
	}
}

// Create validates and stores a new promotion
func (s *promotionService) Create(ctx context.Context, caller *domain.AuthClaims, req *domain.CreatePromotionRequest) (*domain.Promotion, error) {
	status := domain.PromotionPending
	if req.Status != "" {
		parsed, err := domain.ParsePromotionStatus(req.Status)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		status = parsed
	}
	if status.IsTerminal() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("a promotion cannot be created as %s", status), nil)
	}

	promotion := &domain.Promotion{
		BusinessID: req.BusinessID,
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		Amount:     req.Amount,
		Status:     status,
		CreatedAt:  s.clock.Now(),
	}
	if err := promotion.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	ownerID, err := s.authorize(ctx, caller, promotion.BusinessID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, promotion); err != nil {
		s.logger.WithError(err).Error("Failed to create promotion")
		return nil, apperrors.NewInternalError("failed to create promotion", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"promotion_id": promotion.ID,
		"business_id":  promotion.BusinessID,
		"owner_id":     ownerID,
	}).Info("Promotion created")

	s.invalidate(ctx, ownerID)
	return promotion, nil
}

// UpdateStatus moves a promotion forward in its lifecycle
func (s *promotionService) UpdateStatus(ctx context.Context, caller *domain.AuthClaims, id int64, req *domain.UpdatePromotionStatusRequest) (*domain.Promotion, error) {
	to, err := domain.ParsePromotionStatus(req.Status)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	promotion, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ownerID, err := s.authorize(ctx, caller, promotion.BusinessID)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(promotion.Status, to) {
		return nil, apperrors.NewConflictError(fmt.Sprintf("cannot move promotion from %s to %s", promotion.Status, to))
	}

	now := s.clock.Now()
	if err := s.repo.UpdateStatus(ctx, id, promotion.Status, to, now); err != nil {
		return nil, err
	}
	promotion.Status = to
	promotion.UpdatedAt = now

	s.logger.WithFields(map[string]interface{}{
		"promotion_id": id,
		"status":       to,
		"owner_id":     ownerID,
	}).Info("Promotion status updated")

	s.invalidate(ctx, ownerID)
	return promotion, nil
}

// authorize returns the business owner if the caller may write for it
func (s *promotionService) authorize(ctx context.Context, caller *domain.AuthClaims, businessID int64) (int64, error) {
	if caller == nil {
		return 0, apperrors.NewAuthenticationError("authentication required")
	}

	ownerID, err := s.repo.BusinessOwner(ctx, businessID)
	if err != nil {
		return 0, err
	}

	if !caller.IsAdmin() && caller.UserID != ownerID {
		return 0, apperrors.NewAuthorizationError("business belongs to another owner")
	}
	return ownerID, nil
}

// invalidate drops the owner's cached snapshot. A failure leaves the entry
// to expire by TTL.
func (s *promotionService) invalidate(ctx context.Context, ownerID int64) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateScope(ctx, domain.BusinessScope(ownerID)); err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to invalidate owner snapshot")
	}
}
