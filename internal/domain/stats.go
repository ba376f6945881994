package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Metric is a count that is either measured or explicitly not tracked.
// An unavailable metric serialises as null, never as 0.
type Metric struct {
	value     int64
	available bool
}

// Count returns an available metric
func Count(n int64) Metric {
	return Metric{value: n, available: true}
}

// Unavailable returns a metric the platform does not track
func Unavailable() Metric {
	return Metric{}
}

// Value returns the count and whether it was measured
func (m Metric) Value() (int64, bool) {
	return m.value, m.available
}

// Available reports whether the metric was measured
func (m Metric) Available() bool {
	return m.available
}

// MarshalJSON implements json.Marshaler
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.available {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Unavailable()
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = Count(n)
	return nil
}

// CategoryCount is one row of a grouped count
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// UserStats is the users block of a snapshot
type UserStats struct {
	Total          int64 `json:"total"`
	Active         int64 `json:"active"`
	ActiveToday    int64 `json:"active_today"`
	ActiveThisWeek int64 `json:"active_this_week"`
	NewToday       int64 `json:"new_today"`
	NewThisWeek    int64 `json:"new_this_week"`
}

// BusinessStats is the businesses block of a snapshot
type BusinessStats struct {
	Total        int64           `json:"total"`
	UpdatedToday int64           `json:"updated_today"`
	NewToday     int64           `json:"new_today"`
	NewThisWeek  int64           `json:"new_this_week"`
	ByCategory   []CategoryCount `json:"by_category"`
}

// PromotionStats is the promotions block of a snapshot
type PromotionStats struct {
	TotalActive int64 `json:"total_active"`
	EndingSoon  int64 `json:"ending_soon"`
	NewToday    int64 `json:"new_today"`
	NewThisWeek int64 `json:"new_this_week"`
}

// RevenueStats is the revenue block of a snapshot
type RevenueStats struct {
	Today        Money `json:"today"`
	ThisWeek     Money `json:"this_week"`
	ThisMonth    Money `json:"this_month"`
	AverageDaily Money `json:"average_daily"`
}

// EngagementStats is the engagement block of a snapshot
type EngagementStats struct {
	MapViewsToday             int64 `json:"map_views_today"`
	MapViewsThisWeek          int64 `json:"map_views_this_week"`
	PromotionViewsToday       int64 `json:"promotion_views_today"`
	PromotionViewsThisWeek    int64 `json:"promotion_views_this_week"`
	PromotionRedemptionsToday int64 `json:"promotion_redemptions_today"`
}

// SnapshotMetadata records exactly which intervals the numbers cover
type SnapshotMetadata struct {
	Scope           Scope     `json:"scope"`
	ReferenceTime   time.Time `json:"reference_time"`
	Timezone        string    `json:"timezone"`
	Today           string    `json:"today"`
	TodayStart      time.Time `json:"today_start"`
	WeekStart       time.Time `json:"week_start"`
	MonthStart      time.Time `json:"month_start"`
	EndingSoonUntil time.Time `json:"ending_soon_until"`
	Unavailable     []string  `json:"unavailable,omitempty"`
}

// Snapshot is a fully computed statistics result for one scope and reference
// time. It is never modified after construction.
type Snapshot struct {
	Users      UserStats        `json:"users"`
	Businesses BusinessStats    `json:"businesses"`
	Promotions PromotionStats   `json:"promotions"`
	Revenue    RevenueStats     `json:"revenue"`
	Engagement EngagementStats  `json:"engagement"`
	Metadata   SnapshotMetadata `json:"metadata"`
}

// OverviewSummary is the headline block of the admin overview
type OverviewSummary struct {
	TotalCustomers   int64 `json:"total_customers"`
	TotalBusinesses  int64 `json:"total_businesses"`
	ActivePromotions int64 `json:"active_promotions"`
	MonthlyRevenue   Money `json:"monthly_revenue"`
}

// OverviewToday is the per-day block of the admin overview
type OverviewToday struct {
	NewUsers          int64 `json:"new_users"`
	NewBusinesses     int64 `json:"new_businesses"`
	MapViews          int64 `json:"map_views"`
	PromotionsCreated int64 `json:"promotions_created"`
}

// OverviewSystem holds process-level figures. Untracked values are
// Unavailable rather than zero.
type OverviewSystem struct {
	ActiveSessions   Metric     `json:"active_sessions"`
	APIRequestsToday Metric     `json:"api_requests_today"`
	UptimeSeconds    int64      `json:"uptime_seconds"`
	LastBackup       *time.Time `json:"last_backup"`
}

// Overview is the admin landing-page summary
type Overview struct {
	Summary     OverviewSummary `json:"summary"`
	Today       OverviewToday   `json:"today"`
	System      OverviewSystem  `json:"system"`
	GeneratedAt time.Time       `json:"generated_at"`
	Date        string          `json:"date"`
	Unavailable []string        `json:"unavailable,omitempty"`
}

// UserStatistics is the admin user-management summary
type UserStatistics struct {
	Totals struct {
		AllUsers    int64 `json:"all_users"`
		ActiveUsers int64 `json:"active_users"`
		StaffUsers  int64 `json:"staff_users"`
	} `json:"totals"`
	RecentActivity struct {
		RegisteredToday    int64 `json:"registered_today"`
		RegisteredThisWeek int64 `json:"registered_this_week"`
		LoggedInToday      int64 `json:"logged_in_today"`
		LoggedInThisWeek   int64 `json:"logged_in_this_week"`
	} `json:"recent_activity"`
	Distribution struct {
		ByStatus map[string]int64 `json:"by_status"`
		ByRole   map[Role]int64   `json:"by_role"`
	} `json:"distribution"`
	ReferenceTime time.Time `json:"reference_time"`
}

// DailyAnalytics is one day of platform activity
type DailyAnalytics struct {
	Date           string `json:"date"`
	Revenue        Money  `json:"revenue"`
	MapViews       int64  `json:"map_views"`
	PromotionViews int64  `json:"promotion_views"`
	NewUsers       int64  `json:"new_users"`
}
