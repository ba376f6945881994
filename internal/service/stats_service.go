package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/repository"
	apperrors "zamstay-be/pkg/errors"
	"zamstay-be/pkg/logger"
	"zamstay-be/pkg/redis"
)

// TopCategories is the number of groups kept in businesses.by_category
const TopCategories = 10

// StatsConfig tunes the aggregator
type StatsConfig struct {
	Location     *time.Location
	AdminTTL     time.Duration
	BusinessTTL  time.Duration
	OverviewTTL  time.Duration
	QueryTimeout time.Duration
}

// DefaultStatsConfig returns UTC windows and the standard cache lifetimes
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		Location:     time.UTC,
		AdminTTL:     redis.TTLDashboardAdmin,
		BusinessTTL:  redis.TTLDashboardBusiness,
		OverviewTTL:  redis.TTLOverview,
		QueryTimeout: 10 * time.Second,
	}
}

// StatsService computes dashboard statistics with a cache-aside policy.
// It holds no mutable state; concurrent misses on the same key both compute
// and the last write wins.
type StatsService struct {
	store     repository.StatsStore
	analytics repository.AnalyticsRepository
	cache     SnapshotCache
	keys      *redis.KeyBuilder
	requests  RequestCounter
	clock     clockwork.Clock
	cfg       StatsConfig
	logger    *logger.Logger
	startedAt time.Time
}

// NewStatsService creates the dashboard statistics service
func NewStatsService(
	store repository.StatsStore,
	analytics repository.AnalyticsRepository,
	cache SnapshotCache,
	keys *redis.KeyBuilder,
	requests RequestCounter,
	clock clockwork.Clock,
	cfg StatsConfig,
	log *logger.Logger,
) *StatsService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StatsService{
		store:     store,
		analytics: analytics,
		cache:     cache,
		keys:      keys,
		requests:  requests,
		clock:     clock,
		cfg:       cfg,
		logger:    log,
		startedAt: clock.Now(),
	}
}

// Location is the timezone calendar dates are computed in
func (s *StatsService) Location() *time.Location {
	return s.cfg.Location
}

// GetDashboardStats returns the snapshot for scope as of referenceTime. A
// fresh cached snapshot for the same scope and calendar date is returned
// unchanged without touching the store.
func (s *StatsService) GetDashboardStats(ctx context.Context, scope domain.Scope, referenceTime time.Time) (*domain.Snapshot, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	w := NewWindows(referenceTime, s.cfg.Location)
	key, ttl := s.snapshotKey(scope, w.Today())
	log := s.logger.WithFields(map[string]interface{}{
		"scope": scope.String(),
		"date":  w.Today(),
	})

	var cached domain.Snapshot
	hit, err := s.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		log.WithError(err).Warn("Snapshot cache unavailable, computing directly")
	case hit:
		log.Debug("Snapshot served from cache")
		return &cached, nil
	}

	start := s.clock.Now()
	snapshot, err := s.computeSnapshot(ctx, scope, w)
	if err != nil {
		log.WithError(err).Error("Failed to compute dashboard snapshot")
		return nil, err
	}
	log.WithField("duration", s.clock.Since(start)).Info("Dashboard snapshot computed")

	if err := s.cache.Set(ctx, key, snapshot, ttl); err != nil {
		log.WithError(err).Warn("Failed to cache dashboard snapshot")
	}

	return snapshot, nil
}

// ComputeSnapshot builds the snapshot for scope as of referenceTime straight
// from the store. The cache is neither read nor written, so a point-in-time
// request never replaces the current entry for that date.
func (s *StatsService) ComputeSnapshot(ctx context.Context, scope domain.Scope, referenceTime time.Time) (*domain.Snapshot, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	w := NewWindows(referenceTime, s.cfg.Location)
	snapshot, err := s.computeSnapshot(ctx, scope, w)
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"scope":          scope.String(),
			"reference_time": w.Reference,
		}).Error("Failed to compute point-in-time snapshot")
		return nil, err
	}
	return snapshot, nil
}

// InvalidateScope drops every date bucket of scope from the cache
func (s *StatsService) InvalidateScope(ctx context.Context, scope domain.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	pattern := s.keys.PatternDashboardAdmin()
	if scope.IsOwner() {
		pattern = s.keys.PatternDashboardOwner(scope.OwnerID)
	}

	n, err := s.cache.DeletePattern(ctx, pattern)
	if err != nil {
		return err
	}
	s.logger.WithFields(map[string]interface{}{
		"scope":   scope.String(),
		"deleted": n,
	}).Info("Dashboard cache invalidated")
	return nil
}

func (s *StatsService) snapshotKey(scope domain.Scope, date string) (string, time.Duration) {
	if scope.IsOwner() {
		return s.keys.KeyDashboardOwner(scope.OwnerID, date), s.cfg.BusinessTTL
	}
	return s.keys.KeyDashboardAdmin(date), s.cfg.AdminTTL
}

func (s *StatsService) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.QueryTimeout)
	}
	return context.WithCancel(ctx)
}

// computeSnapshot runs every block concurrently. The first failure cancels
// the rest and no snapshot is returned.
func (s *StatsService) computeSnapshot(ctx context.Context, scope domain.Scope, w Windows) (*domain.Snapshot, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	snapshot := &domain.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snapshot.Users, err = s.userStats(gctx, scope, w)
		return blockErr("users", err)
	})
	g.Go(func() error {
		var err error
		snapshot.Businesses, err = s.businessStats(gctx, scope, w)
		return blockErr("businesses", err)
	})
	g.Go(func() error {
		var err error
		snapshot.Promotions, err = s.promotionStats(gctx, scope, w)
		return blockErr("promotions", err)
	})
	g.Go(func() error {
		var err error
		snapshot.Revenue, err = s.revenueStats(gctx, scope, w)
		return blockErr("revenue", err)
	})
	g.Go(func() error {
		var err error
		snapshot.Engagement, err = s.engagementStats(gctx, scope, w)
		return blockErr("engagement", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot.Metadata = domain.SnapshotMetadata{
		Scope:           scope,
		ReferenceTime:   w.Reference,
		Timezone:        w.Location.String(),
		Today:           w.Today(),
		TodayStart:      w.TodayStart,
		WeekStart:       w.WeekStart,
		MonthStart:      w.MonthStart,
		EndingSoonUntil: w.EndingSoonUntil,
	}
	return snapshot, nil
}

// blockErr makes sure every store failure surfaces as DataUnavailable
func blockErr(block string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrDataUnavailable) {
		return err
	}
	return apperrors.NewDataUnavailableError(fmt.Sprintf("failed to compute %s statistics", block), err)
}

// aggregator runs store calls in sequence and remembers the first failure
type aggregator struct {
	ctx   context.Context
	store repository.StatsStore
	err   error
}

func (a *aggregator) count(entity repository.Entity, f repository.Filter) int64 {
	if a.err != nil {
		return 0
	}
	n, err := a.store.Count(a.ctx, entity, f)
	if err != nil {
		a.err = err
		return 0
	}
	if n < 0 {
		a.err = fmt.Errorf("negative count %d for %s", n, entity)
		return 0
	}
	return n
}

func (a *aggregator) sum(entity repository.Entity, field string, f repository.Filter) domain.Money {
	if a.err != nil {
		return domain.ZeroMoney
	}
	m, err := a.store.Sum(a.ctx, entity, field, f)
	return a.money(m, err, entity)
}

func (a *aggregator) average(entity repository.Entity, field string, f repository.Filter) domain.Money {
	if a.err != nil {
		return domain.ZeroMoney
	}
	m, err := a.store.Average(a.ctx, entity, field, f)
	return a.money(m, err, entity)
}

// money rejects negative totals; amounts are stored non-negative so a
// negative result means the records are corrupt
func (a *aggregator) money(m domain.Money, err error, entity repository.Entity) domain.Money {
	if err != nil {
		a.err = err
		return domain.ZeroMoney
	}
	if m.IsNegative() {
		a.err = fmt.Errorf("negative total %s for %s", m, entity)
		return domain.ZeroMoney
	}
	return domain.NewMoney(m.Decimal())
}

func (a *aggregator) groupCount(entity repository.Entity, field string, f repository.Filter, limit int) []domain.CategoryCount {
	if a.err != nil {
		return nil
	}
	groups, err := a.store.GroupCount(a.ctx, entity, field, f, limit)
	if err != nil {
		a.err = err
		return nil
	}
	if groups == nil {
		groups = []domain.CategoryCount{}
	}
	return groups
}

func (s *StatsService) newAggregator(ctx context.Context) *aggregator {
	return &aggregator{ctx: ctx, store: s.store}
}

func scoped(scope domain.Scope) repository.Filter {
	return repository.Where().ForOwner(scope.OwnerID)
}

func (s *StatsService) userStats(ctx context.Context, scope domain.Scope, w Windows) (domain.UserStats, error) {
	a := s.newAggregator(ctx)
	base := scoped(scope)

	stats := domain.UserStats{
		Total:          a.count(repository.EntityUsers, base),
		Active:         a.count(repository.EntityUsers, base.Eq("is_active", true)),
		ActiveToday:    a.count(repository.EntityUsers, base.Between("last_login", w.TodayStart, w.Reference)),
		ActiveThisWeek: a.count(repository.EntityUsers, base.Between("last_login", w.WeekStart, w.Reference)),
		NewToday:       a.count(repository.EntityUsers, base.Between("date_joined", w.TodayStart, w.Reference)),
		NewThisWeek:    a.count(repository.EntityUsers, base.Between("date_joined", w.WeekStart, w.Reference)),
	}
	return stats, a.err
}

func (s *StatsService) businessStats(ctx context.Context, scope domain.Scope, w Windows) (domain.BusinessStats, error) {
	a := s.newAggregator(ctx)
	base := scoped(scope)

	stats := domain.BusinessStats{
		Total:        a.count(repository.EntityBusinesses, base),
		UpdatedToday: a.count(repository.EntityBusinesses, base.Between("updated_at", w.TodayStart, w.Reference)),
		NewToday:     a.count(repository.EntityBusinesses, base.Between("created_at", w.TodayStart, w.Reference)),
		NewThisWeek:  a.count(repository.EntityBusinesses, base.Between("created_at", w.WeekStart, w.Reference)),
		ByCategory:   a.groupCount(repository.EntityBusinesses, "category", base, TopCategories),
	}
	return stats, a.err
}

func (s *StatsService) promotionStats(ctx context.Context, scope domain.Scope, w Windows) (domain.PromotionStats, error) {
	a := s.newAggregator(ctx)
	base := scoped(scope)
	active := base.Eq("status", string(domain.PromotionActive))

	stats := domain.PromotionStats{
		TotalActive: a.count(repository.EntityPromotions, active.Gte("ends_at", w.Reference)),
		EndingSoon:  a.count(repository.EntityPromotions, active.Between("ends_at", w.Reference, w.EndingSoonUntil)),
		NewToday:    a.count(repository.EntityPromotions, base.Between("created_at", w.TodayStart, w.Reference)),
		NewThisWeek: a.count(repository.EntityPromotions, base.Between("created_at", w.WeekStart, w.Reference)),
	}
	return stats, a.err
}

func (s *StatsService) revenueStats(ctx context.Context, scope domain.Scope, w Windows) (domain.RevenueStats, error) {
	a := s.newAggregator(ctx)
	base := scoped(scope)
	today := w.Today()
	month := base.Between("period", w.MonthStartDate(), today)

	stats := domain.RevenueStats{
		Today:        a.sum(repository.EntityRevenue, "amount", base.Eq("period", today)),
		ThisWeek:     a.sum(repository.EntityRevenue, "amount", base.Between("period", w.WeekStartDate(), today)),
		ThisMonth:    a.sum(repository.EntityRevenue, "amount", month),
		AverageDaily: a.average(repository.EntityDailyRevenue, "amount", month),
	}
	return stats, a.err
}

func (s *StatsService) engagementStats(ctx context.Context, scope domain.Scope, w Windows) (domain.EngagementStats, error) {
	a := s.newAggregator(ctx)
	base := scoped(scope)
	kind := func(k domain.EventKind) repository.Filter {
		return base.Eq("kind", string(k))
	}
	today := func(f repository.Filter) repository.Filter {
		return f.Between("occurred_at", w.TodayStart, w.Reference)
	}
	week := func(f repository.Filter) repository.Filter {
		return f.Between("occurred_at", w.WeekStart, w.Reference)
	}

	stats := domain.EngagementStats{
		MapViewsToday:             a.count(repository.EntityEngagement, today(kind(domain.EventMapView))),
		MapViewsThisWeek:          a.count(repository.EntityEngagement, week(kind(domain.EventMapView))),
		PromotionViewsToday:       a.count(repository.EntityEngagement, today(kind(domain.EventPromotionView))),
		PromotionViewsThisWeek:    a.count(repository.EntityEngagement, week(kind(domain.EventPromotionView))),
		PromotionRedemptionsToday: a.count(repository.EntityEngagement, today(kind(domain.EventPromotionRedemption))),
	}
	return stats, a.err
}
