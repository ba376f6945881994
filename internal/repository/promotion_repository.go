package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/database"
	apperrors "zamstay-be/pkg/errors"
)

type promotionRepository struct {
	db *database.PostgresDB
}

// NewPromotionRepository creates a new promotion repository
func NewPromotionRepository(db *database.PostgresDB) PromotionRepository {
	return &promotionRepository{db: db}
}

// Create inserts a promotion
func (r *promotionRepository) Create(ctx context.Context, p *domain.Promotion) error {
	query := `
		INSERT INTO promotions (business_id, title, starts_at, ends_at, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		p.BusinessID,
		p.Title,
		p.StartsAt,
		p.EndsAt,
		p.Amount.String(),
		string(p.Status),
		p.CreatedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	return nil
}

// GetByID retrieves a promotion by ID
func (r *promotionRepository) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	query := `
		SELECT id, business_id, title, starts_at, ends_at, amount::text, status, created_at, updated_at
		FROM promotions
		WHERE id = $1
	`

	var (
		p      domain.Promotion
		amount string
		status string
	)
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.BusinessID,
		&p.Title,
		&p.StartsAt,
		&p.EndsAt,
		&amount,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("promotion %d not found", id))
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse promotion amount: %w", err)
	}
	p.Amount = domain.NewMoney(d)
	p.Status = domain.PromotionStatus(status)

	return &p, nil
}

// UpdateStatus performs a compare-and-set on the status column
func (r *promotionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.PromotionStatus, at time.Time) error {
	query := `
		UPDATE promotions
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.Pool.Exec(ctx, query, string(to), at, id, string(from))
	if err != nil {
		return fmt.Errorf("failed to update promotion status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("promotion %d is no longer %s", id, from))
	}

	return nil
}

// BusinessOwner returns the owner id of a business
func (r *promotionRepository) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	var ownerID int64
	err := r.db.Pool.QueryRow(ctx, `SELECT owner_id FROM businesses WHERE id = $1`, businessID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NewNotFoundError(fmt.Sprintf("business %d not found", businessID))
		}
		return 0, fmt.Errorf("failed to get business owner: %w", err)
	}
	return ownerID, nil
}
