package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventKind is the closed set of engagement events tracked per business
type EventKind string

const (
	EventMapView             EventKind = "map_view"
	EventPromotionView       EventKind = "promotion_view"
	EventPromotionRedemption EventKind = "promotion_redemption"
)

// ParseEventKind validates an event kind string
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(strings.ToLower(strings.TrimSpace(s))) {
	case EventMapView:
		return EventMapView, nil
	case EventPromotionView:
		return EventPromotionView, nil
	case EventPromotionRedemption:
		return EventPromotionRedemption, nil
	}
	return "", fmt.Errorf("unknown event kind %q", s)
}

// EngagementEvent records a visitor interacting with a business
type EngagementEvent struct {
	ID              int64     `json:"id" db:"id"`
	BusinessID      int64     `json:"business_id" db:"business_id"`
	UserID          *int64    `json:"user_id,omitempty" db:"user_id"`
	Kind            EventKind `json:"kind" db:"kind"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
}

// RecordEventRequest is the payload for recording an engagement event
type RecordEventRequest struct {
	Kind            string `json:"kind"`
	DurationSeconds int    `json:"duration_seconds"`
}

// RevenueRecord is the amount an owner earned from one source on one day.
// At most one record exists per (owner, period, source).
type RevenueRecord struct {
	ID         int64     `json:"id" db:"id"`
	OwnerID    int64     `json:"owner_id" db:"owner_id"`
	BusinessID *int64    `json:"business_id,omitempty" db:"business_id"`
	Period     time.Time `json:"period" db:"period"`
	Source     string    `json:"source" db:"source"`
	Amount     Money     `json:"amount" db:"amount"`
}
