package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/repository"
	apperrors "zamstay-be/pkg/errors"
)

// MaxAnalyticsDays bounds the range accepted by GetDailyAnalytics
const MaxAnalyticsDays = 366

// Paths of overview metrics the platform does not track
const (
	pathActiveSessions   = "system.active_sessions"
	pathLastBackup       = "system.last_backup"
	pathAPIRequestsToday = "system.api_requests_today"
)

// GetOverview returns the admin landing-page summary. The counts are cached
// per calendar date; the system block is always current.
func (s *StatsService) GetOverview(ctx context.Context, referenceTime time.Time) (*domain.Overview, error) {
	w := NewWindows(referenceTime, s.cfg.Location)
	key := s.keys.KeyOverview(w.Today())
	log := s.logger.WithField("date", w.Today())

	var overview domain.Overview
	hit, err := s.cache.Get(ctx, key, &overview)
	if err != nil {
		log.WithError(err).Warn("Overview cache unavailable, computing directly")
	}

	if !hit {
		computed, err := s.computeOverview(ctx, w)
		if err != nil {
			log.WithError(err).Error("Failed to compute overview")
			return nil, err
		}
		overview = *computed
		if err := s.cache.Set(ctx, key, computed, s.cfg.OverviewTTL); err != nil {
			log.WithError(err).Warn("Failed to cache overview")
		}
	}

	overview.System, overview.Unavailable = s.systemStats(ctx)
	return &overview, nil
}

// ComputeOverview builds the overview as of referenceTime without touching
// the per-date cache entry
func (s *StatsService) ComputeOverview(ctx context.Context, referenceTime time.Time) (*domain.Overview, error) {
	w := NewWindows(referenceTime, s.cfg.Location)
	overview, err := s.computeOverview(ctx, w)
	if err != nil {
		s.logger.WithError(err).WithField("reference_time", w.Reference).Error("Failed to compute point-in-time overview")
		return nil, err
	}
	overview.System, overview.Unavailable = s.systemStats(ctx)
	return overview, nil
}

func (s *StatsService) computeOverview(ctx context.Context, w Windows) (*domain.Overview, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	overview := &domain.Overview{
		GeneratedAt: w.Reference,
		Date:        w.Today(),
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a := s.newAggregator(gctx)
		active := repository.Where().Eq("status", string(domain.PromotionActive))
		month := repository.Where().Between("period", w.MonthStartDate(), w.Today())
		overview.Summary = domain.OverviewSummary{
			TotalCustomers:   a.count(repository.EntityUsers, repository.Where().Eq("role", string(domain.RoleCustomer))),
			TotalBusinesses:  a.count(repository.EntityBusinesses, repository.Where()),
			ActivePromotions: a.count(repository.EntityPromotions, active.Gte("ends_at", w.Reference)),
			MonthlyRevenue:   a.sum(repository.EntityRevenue, "amount", month),
		}
		return blockErr("summary", a.err)
	})
	g.Go(func() error {
		a := s.newAggregator(gctx)
		today := func(field string) repository.Filter {
			return repository.Where().Between(field, w.TodayStart, w.Reference)
		}
		overview.Today = domain.OverviewToday{
			NewUsers:          a.count(repository.EntityUsers, today("date_joined")),
			NewBusinesses:     a.count(repository.EntityBusinesses, today("created_at")),
			MapViews:          a.count(repository.EntityEngagement, today("occurred_at").Eq("kind", string(domain.EventMapView))),
			PromotionsCreated: a.count(repository.EntityPromotions, today("created_at")),
		}
		return blockErr("today", a.err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// systemStats reports process-level figures. Sessions and backups are not
// tracked and are always unavailable.
func (s *StatsService) systemStats(ctx context.Context) (domain.OverviewSystem, []string) {
	system := domain.OverviewSystem{
		ActiveSessions:   domain.Unavailable(),
		APIRequestsToday: domain.Unavailable(),
		UptimeSeconds:    int64(s.clock.Since(s.startedAt) / time.Second),
	}
	missing := []string{pathActiveSessions, pathLastBackup}

	if s.requests == nil {
		return system, append(missing, pathAPIRequestsToday)
	}
	n, err := s.requests.Today(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Request counter unavailable")
		return system, append(missing, pathAPIRequestsToday)
	}
	system.APIRequestsToday = domain.Count(n)
	return system, missing
}

// GetUserStatistics returns the admin user-management summary
func (s *StatsService) GetUserStatistics(ctx context.Context, referenceTime time.Time) (*domain.UserStatistics, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	w := NewWindows(referenceTime, s.cfg.Location)
	a := s.newAggregator(ctx)
	users := repository.Where()

	stats := &domain.UserStatistics{ReferenceTime: w.Reference}
	stats.Totals.AllUsers = a.count(repository.EntityUsers, users)
	stats.Totals.ActiveUsers = a.count(repository.EntityUsers, users.Eq("is_active", true))
	stats.Totals.StaffUsers = a.count(repository.EntityUsers, users.Eq("is_staff", true))

	stats.RecentActivity.RegisteredToday = a.count(repository.EntityUsers, users.Between("date_joined", w.TodayStart, w.Reference))
	stats.RecentActivity.RegisteredThisWeek = a.count(repository.EntityUsers, users.Between("date_joined", w.WeekStart, w.Reference))
	stats.RecentActivity.LoggedInToday = a.count(repository.EntityUsers, users.Between("last_login", w.TodayStart, w.Reference))
	stats.RecentActivity.LoggedInThisWeek = a.count(repository.EntityUsers, users.Between("last_login", w.WeekStart, w.Reference))

	byRole := a.groupCount(repository.EntityUsers, "role", users, 0)
	byStatus := a.groupCount(repository.EntityUsers, "is_active", users, 0)
	if err := blockErr("users", a.err); err != nil {
		s.logger.WithError(err).Error("Failed to compute user statistics")
		return nil, err
	}

	stats.Distribution.ByStatus = map[string]int64{"active": 0, "inactive": 0}
	for _, g := range byStatus {
		switch g.Category {
		case "true":
			stats.Distribution.ByStatus["active"] += g.Count
		case "false":
			stats.Distribution.ByStatus["inactive"] += g.Count
		}
	}
	stats.Distribution.ByRole = make(map[domain.Role]int64, len(domain.Roles))
	for _, r := range domain.Roles {
		stats.Distribution.ByRole[r] = 0
	}
	for _, g := range byRole {
		role, err := domain.ParseRole(g.Category)
		if err != nil {
			s.logger.WithField("role", g.Category).Warn("Skipping users with unknown role")
			continue
		}
		stats.Distribution.ByRole[role] += g.Count
	}

	return stats, nil
}

// GetDailyAnalytics returns per-day activity for [from, to], newest first
func (s *StatsService) GetDailyAnalytics(ctx context.Context, from, to time.Time) ([]domain.DailyAnalytics, error) {
	from = from.In(s.cfg.Location)
	to = to.In(s.cfg.Location)
	if to.Before(from) {
		return nil, apperrors.NewValidationError("end_date must not be before start_date", nil)
	}
	if to.Sub(from) > MaxAnalyticsDays*24*time.Hour {
		return nil, apperrors.NewValidationError("date range is too long", map[string]interface{}{
			"max_days": MaxAnalyticsDays,
		})
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	days, err := s.analytics.Daily(ctx, from, to)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load daily analytics")
		return nil, blockErr("analytics", err)
	}
	return days, nil
}
