package domain

import (
	"fmt"
	"strings"
	"time"
)

// Business is a listing owned by a user. Lodging properties are businesses
// whose category is the property type.
type Business struct {
	ID         int64     `json:"id" db:"id"`
	OwnerID    int64     `json:"owner_id" db:"owner_id"`
	Name       string    `json:"name" db:"name"`
	Category   string    `json:"category" db:"category"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	IsVerified bool      `json:"is_verified" db:"is_verified"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Property categories used by the lodging side of the platform
const (
	CategoryHotel      = "hotel"
	CategoryLodge      = "lodge"
	CategoryCamp       = "camp"
	CategoryApartment  = "apartment"
	CategoryGuestHouse = "guest_house"
)

// UnknownGroup labels rows whose grouped column is NULL. It is outside every
// closed set (categories, roles, statuses, event kinds) so it never merges
// with a real group.
const UnknownGroup = "unknown"

// Categories lists every valid property category
var Categories = []string{CategoryHotel, CategoryLodge, CategoryCamp, CategoryApartment, CategoryGuestHouse}

// ParseCategory validates a property category
func ParseCategory(s string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(s))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}
