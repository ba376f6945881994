package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Dashboard key builders. date is a calendar date formatted 2006-01-02.

func (kb *KeyBuilder) KeyDashboardAdmin(date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDashboardAdmin, date))
}

func (kb *KeyBuilder) KeyDashboardOwner(ownerID int64, date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDashboardOwner, ownerID, date))
}

// PatternDashboardAdmin matches every date bucket of the admin snapshot
func (kb *KeyBuilder) PatternDashboardAdmin() string {
	return kb.BuildKey(fmt.Sprintf(KeyDashboardAdmin, "*"))
}

// PatternDashboardOwner matches every date bucket of one owner's snapshot
func (kb *KeyBuilder) PatternDashboardOwner(ownerID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyDashboardOwner, ownerID, "*"))
}

func (kb *KeyBuilder) KeyOverview(date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyOverview, date))
}

func (kb *KeyBuilder) KeyRequestsDaily(date string) string {
	return kb.BuildKey(fmt.Sprintf(KeyRequestsDaily, date))
}
