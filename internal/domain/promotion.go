package domain

import (
	"fmt"
	"strings"
	"time"
)

// PromotionStatus is the lifecycle state of a promotion or booking
type PromotionStatus string

const (
	PromotionPending   PromotionStatus = "pending"
	PromotionActive    PromotionStatus = "active"
	PromotionCancelled PromotionStatus = "cancelled"
	PromotionCompleted PromotionStatus = "completed"
)

// ParsePromotionStatus validates a status string. Bookings call the active
// state "confirmed".
func ParsePromotionStatus(s string) (PromotionStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return PromotionPending, nil
	case "active", "confirmed":
		return PromotionActive, nil
	case "cancelled", "canceled":
		return PromotionCancelled, nil
	case "completed":
		return PromotionCompleted, nil
	}
	return "", fmt.Errorf("unknown promotion status %q", s)
}

// IsTerminal reports whether no further transition is allowed
func (s PromotionStatus) IsTerminal() bool {
	return s == PromotionCancelled || s == PromotionCompleted
}

// CanTransition reports whether a record may move from one status to another.
// Transitions only move forward; cancelled and completed records stay put.
func CanTransition(from, to PromotionStatus) bool {
	switch from {
	case PromotionPending:
		return to == PromotionActive || to == PromotionCancelled
	case PromotionActive:
		return to == PromotionCompleted || to == PromotionCancelled
	}
	return false
}

// Promotion is a time-boxed offer or booking attached to a business
type Promotion struct {
	ID         int64           `json:"id" db:"id"`
	BusinessID int64           `json:"business_id" db:"business_id"`
	Title      string          `json:"title" db:"title"`
	StartsAt   time.Time       `json:"starts_at" db:"starts_at"`
	EndsAt     time.Time       `json:"ends_at" db:"ends_at"`
	Amount     Money           `json:"amount" db:"amount"`
	Status     PromotionStatus `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the invariants a promotion must hold before it is stored
func (p *Promotion) Validate() error {
	if p.BusinessID <= 0 {
		return fmt.Errorf("business_id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if !p.EndsAt.After(p.StartsAt) {
		return fmt.Errorf("ends_at must be after starts_at")
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if _, err := ParsePromotionStatus(string(p.Status)); err != nil {
		return err
	}
	return nil
}

// CreatePromotionRequest is the payload for creating a promotion
type CreatePromotionRequest struct {
	BusinessID int64     `json:"business_id"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Amount     Money     `json:"amount"`
	Status     string    `json:"status,omitempty"`
}

// UpdatePromotionStatusRequest is the payload for a status change
type UpdatePromotionStatusRequest struct {
	Status string `json:"status"`
}
