package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"zamstay-be/internal/domain"
	"zamstay-be/internal/repository"
	apperrors "zamstay-be/pkg/errors"
)

type memRow struct {
	owners []int64
	fields map[string]interface{}
}

// memStore is an in-memory StatsStore that evaluates filters the way the
// SQL store does
type memStore struct {
	mu     sync.Mutex
	rows   map[repository.Entity][]memRow
	failOn map[repository.Entity]error
	calls  atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{
		rows:   make(map[repository.Entity][]memRow),
		failOn: make(map[repository.Entity]error),
	}
}

func (m *memStore) add(entity repository.Entity, fields map[string]interface{}, owners ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[entity] = append(m.rows[entity], memRow{owners: owners, fields: fields})
}

func (m *memStore) fail(entity repository.Entity, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[entity] = err
}

func (m *memStore) ownerOfBusiness(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[repository.EntityBusinesses] {
		if r.fields["id"] == id {
			return r.owners[0]
		}
	}
	return 0
}

func (m *memStore) addUser(u domain.User, engagedWithOwners ...int64) {
	fields := map[string]interface{}{
		"id":          u.ID,
		"role":        string(u.Role),
		"is_active":   u.IsActive,
		"is_staff":    u.IsStaff,
		"date_joined": u.DateJoined,
		"last_login":  nil,
	}
	if u.LastLogin != nil {
		fields["last_login"] = *u.LastLogin
	}
	m.add(repository.EntityUsers, fields, engagedWithOwners...)
}

func (m *memStore) addBusiness(b domain.Business) {
	m.add(repository.EntityBusinesses, map[string]interface{}{
		"id":          b.ID,
		"owner_id":    b.OwnerID,
		"category":    b.Category,
		"is_active":   b.IsActive,
		"is_verified": b.IsVerified,
		"created_at":  b.CreatedAt,
		"updated_at":  b.UpdatedAt,
	}, b.OwnerID)
}

func (m *memStore) addPromotion(p domain.Promotion) {
	m.add(repository.EntityPromotions, map[string]interface{}{
		"id":          p.ID,
		"business_id": p.BusinessID,
		"status":      string(p.Status),
		"starts_at":   p.StartsAt,
		"ends_at":     p.EndsAt,
		"amount":      p.Amount,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}, m.ownerOfBusiness(p.BusinessID))
}

func (m *memStore) addRevenue(r domain.RevenueRecord) {
	m.add(repository.EntityRevenue, map[string]interface{}{
		"owner_id": r.OwnerID,
		"period":   r.Period.Format(dateLayout),
		"source":   r.Source,
		"amount":   r.Amount,
	}, r.OwnerID)
}

func (m *memStore) addEvent(e domain.EngagementEvent) {
	fields := map[string]interface{}{
		"business_id": e.BusinessID,
		"kind":        string(e.Kind),
		"occurred_at": e.OccurredAt,
		"user_id":     nil,
	}
	if e.UserID != nil {
		fields["user_id"] = *e.UserID
	}
	m.add(repository.EntityEngagement, fields, m.ownerOfBusiness(e.BusinessID))
}

func (m *memStore) match(entity repository.Entity, f repository.Filter) ([]memRow, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	source := entity
	if entity == repository.EntityDailyRevenue {
		source = repository.EntityRevenue
	}
	if err := m.failOn[source]; err != nil {
		return nil, err
	}
	if err := m.failOn[entity]; err != nil {
		return nil, err
	}

	var out []memRow
	for _, r := range m.rows[source] {
		ok, err := matches(r, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(r memRow, f repository.Filter) (bool, error) {
	if f.OwnerID != 0 {
		owned := false
		for _, o := range r.owners {
			if o == f.OwnerID {
				owned = true
			}
		}
		if !owned {
			return false, nil
		}
	}

	for _, c := range f.Conditions {
		v, ok := r.fields[c.Field]
		if !ok {
			return false, fmt.Errorf("unknown field %q", c.Field)
		}
		if v == nil {
			return false, nil
		}
		switch c.Op {
		case repository.OpEq:
			if cmp(v, c.Value) != 0 {
				return false, nil
			}
		case repository.OpGte:
			if cmp(v, c.Value) < 0 {
				return false, nil
			}
		case repository.OpLte:
			if cmp(v, c.Value) > 0 {
				return false, nil
			}
		case repository.OpLt:
			if cmp(v, c.Value) >= 0 {
				return false, nil
			}
		case repository.OpBetween:
			if cmp(v, c.Value) < 0 || cmp(v, c.Upper) > 0 {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported op %q", c.Op)
		}
	}
	return true, nil
}

func cmp(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		if av == b.(bool) {
			return 0
		}
		return 1
	}
	panic(fmt.Sprintf("cannot compare %T", a))
}

func (m *memStore) Count(ctx context.Context, entity repository.Entity, f repository.Filter) (int64, error) {
	rows, err := m.match(entity, f)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (m *memStore) Sum(ctx context.Context, entity repository.Entity, field string, f repository.Filter) (domain.Money, error) {
	rows, err := m.match(entity, f)
	if err != nil {
		return domain.Money{}, err
	}
	total := domain.ZeroMoney
	for _, r := range rows {
		total = total.Add(r.fields[field].(domain.Money))
	}
	return total, nil
}

func (m *memStore) Average(ctx context.Context, entity repository.Entity, field string, f repository.Filter) (domain.Money, error) {
	rows, err := m.match(entity, f)
	if err != nil {
		return domain.Money{}, err
	}

	var values []decimal.Decimal
	if entity == repository.EntityDailyRevenue {
		perDay := map[string]decimal.Decimal{}
		for _, r := range rows {
			period := r.fields["period"].(string)
			perDay[period] = perDay[period].Add(r.fields[field].(domain.Money).Decimal())
		}
		for _, v := range perDay {
			values = append(values, v)
		}
	} else {
		for _, r := range rows {
			values = append(values, r.fields[field].(domain.Money).Decimal())
		}
	}

	if len(values) == 0 {
		return domain.ZeroMoney, nil
	}
	return domain.NewMoney(decimal.Sum(values[0], values[1:]...).Div(decimal.NewFromInt(int64(len(values))))), nil
}

func (m *memStore) GroupCount(ctx context.Context, entity repository.Entity, field string, f repository.Filter, limit int) ([]domain.CategoryCount, error) {
	rows, err := m.match(entity, f)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, r := range rows {
		counts[fmt.Sprint(r.fields[field])]++
	}
	groups := make([]domain.CategoryCount, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, domain.CategoryCount{Category: k, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Category < groups[j].Category
	})
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups, nil
}

// memPromotions is an in-memory PromotionRepository
type memPromotions struct {
	mu         sync.Mutex
	nextID     int64
	promotions map[int64]*domain.Promotion
	owners     map[int64]int64
	createErr  error
}

func newMemPromotions(businessOwners map[int64]int64) *memPromotions {
	return &memPromotions{
		promotions: make(map[int64]*domain.Promotion),
		owners:     businessOwners,
	}
}

func (r *memPromotions) Create(ctx context.Context, p *domain.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	p.ID = r.nextID
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.promotions[p.ID] = &cp
	return nil
}

func (r *memPromotions) GetByID(ctx context.Context, id int64) (*domain.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promotions[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("promotion %d not found", id))
	}
	cp := *p
	return &cp, nil
}

func (r *memPromotions) UpdateStatus(ctx context.Context, id int64, from, to domain.PromotionStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promotions[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("promotion %d not found", id))
	}
	if p.Status != from {
		return apperrors.NewConflictError("status changed")
	}
	p.Status = to
	p.UpdatedAt = at
	return nil
}

func (r *memPromotions) BusinessOwner(ctx context.Context, businessID int64) (int64, error) {
	owner, ok := r.owners[businessID]
	if !ok {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("business %d not found", businessID))
	}
	return owner, nil
}

// recordingInvalidator remembers every invalidated scope
type recordingInvalidator struct {
	mu     sync.Mutex
	scopes []domain.Scope
	err    error
}

func (r *recordingInvalidator) InvalidateScope(ctx context.Context, scope domain.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
	return r.err
}

// memEvents is an in-memory EngagementRepository
type memEvents struct {
	mu     sync.Mutex
	events []domain.EngagementEvent
	err    error
}

func (r *memEvents) Record(ctx context.Context, e *domain.EngagementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	e.ID = int64(len(r.events) + 1)
	r.events = append(r.events, *e)
	return nil
}

// stubAnalytics returns canned rows and remembers the requested range
type stubAnalytics struct {
	days     []domain.DailyAnalytics
	err      error
	from, to time.Time
}

func (s *stubAnalytics) Daily(ctx context.Context, from, to time.Time) ([]domain.DailyAnalytics, error) {
	s.from, s.to = from, to
	return s.days, s.err
}
