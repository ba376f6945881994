package repository

import (
	"fmt"
	"strings"
)

// Entity is the closed set of record kinds the statistics store can aggregate
type Entity string

const (
	EntityUsers        Entity = "users"
	EntityBusinesses   Entity = "businesses"
	EntityPromotions   Entity = "promotions"
	EntityRevenue      Entity = "revenue"
	EntityDailyRevenue Entity = "daily_revenue"
	EntityEngagement   Entity = "engagement"
)

// Op is a comparison supported by Filter
type Op string

const (
	OpEq      Op = "eq"
	OpGte     Op = "gte"
	OpLte     Op = "lte"
	OpLt      Op = "lt"
	OpBetween Op = "between"
)

// Condition compares one field against a value. Between uses Value and
// Upper as inclusive bounds.
type Condition struct {
	Field string
	Op    Op
	Value interface{}
	Upper interface{}
}

// Filter is a conjunction of conditions, optionally restricted to one
// owner's partition. The zero value matches everything.
type Filter struct {
	OwnerID    int64
	Conditions []Condition
}

// Where starts a filter with no conditions
func Where() Filter {
	return Filter{}
}

func (f Filter) with(c Condition) Filter {
	conds := make([]Condition, len(f.Conditions), len(f.Conditions)+1)
	copy(conds, f.Conditions)
	f.Conditions = append(conds, c)
	return f
}

func (f Filter) Eq(field string, v interface{}) Filter {
	return f.with(Condition{Field: field, Op: OpEq, Value: v})
}

func (f Filter) Gte(field string, v interface{}) Filter {
	return f.with(Condition{Field: field, Op: OpGte, Value: v})
}

func (f Filter) Lte(field string, v interface{}) Filter {
	return f.with(Condition{Field: field, Op: OpLte, Value: v})
}

func (f Filter) Lt(field string, v interface{}) Filter {
	return f.with(Condition{Field: field, Op: OpLt, Value: v})
}

// Between matches lo <= field <= hi
func (f Filter) Between(field string, lo, hi interface{}) Filter {
	return f.with(Condition{Field: field, Op: OpBetween, Value: lo, Upper: hi})
}

// ForOwner restricts the filter to one owner's data. Zero means no restriction.
func (f Filter) ForOwner(ownerID int64) Filter {
	f.OwnerID = ownerID
	return f
}

// entitySpec describes how an entity maps onto the relational schema
type entitySpec struct {
	table   string
	columns map[string]bool
	// ownerClause is a predicate with a single %s placeholder for the owner
	// id parameter
	ownerClause string
}

func columns(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var entities = map[Entity]entitySpec{
	EntityUsers: {
		table:   "users",
		columns: columns("id", "role", "is_active", "is_staff", "date_joined", "last_login"),
		ownerClause: `id IN (
			SELECT e.user_id FROM engagement_events e
			JOIN businesses b ON b.id = e.business_id
			WHERE b.owner_id = %s AND e.user_id IS NOT NULL)`,
	},
	EntityBusinesses: {
		table:       "businesses",
		columns:     columns("id", "owner_id", "category", "is_active", "is_verified", "created_at", "updated_at"),
		ownerClause: "owner_id = %s",
	},
	EntityPromotions: {
		table:       "promotions",
		columns:     columns("id", "business_id", "status", "starts_at", "ends_at", "amount", "created_at", "updated_at"),
		ownerClause: "business_id IN (SELECT id FROM businesses WHERE owner_id = %s)",
	},
	EntityRevenue: {
		table:       "revenue_records",
		columns:     columns("owner_id", "business_id", "period", "source", "amount"),
		ownerClause: "owner_id = %s",
	},
	// daily_revenue is revenue summed per period; its conditions and owner
	// clause apply to the underlying records before grouping
	EntityDailyRevenue: {
		table:       "revenue_records",
		columns:     columns("period", "source", "amount"),
		ownerClause: "owner_id = %s",
	},
	EntityEngagement: {
		table:       "engagement_events",
		columns:     columns("business_id", "user_id", "kind", "occurred_at"),
		ownerClause: "business_id IN (SELECT id FROM businesses WHERE owner_id = %s)",
	},
}

func lookup(entity Entity) (entitySpec, error) {
	spec, ok := entities[entity]
	if !ok {
		return entitySpec{}, fmt.Errorf("unknown entity %q", entity)
	}
	return spec, nil
}

func (s entitySpec) column(name string) (string, error) {
	if !s.columns[name] {
		return "", fmt.Errorf("unknown column %q on %s", name, s.table)
	}
	return name, nil
}

// where renders the filter as a parameterised WHERE clause. Placeholders are
// numbered from len(args)+1 and the returned args include the input args.
func (s entitySpec) where(f Filter, args []interface{}) (string, []interface{}, error) {
	var clauses []string
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.OwnerID != 0 {
		clauses = append(clauses, fmt.Sprintf(s.ownerClause, next(f.OwnerID)))
	}

	for _, c := range f.Conditions {
		col, err := s.column(c.Field)
		if err != nil {
			return "", nil, err
		}
		switch c.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = %s", col, next(c.Value)))
		case OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= %s", col, next(c.Value)))
		case OpLte:
			clauses = append(clauses, fmt.Sprintf("%s <= %s", col, next(c.Value)))
		case OpLt:
			clauses = append(clauses, fmt.Sprintf("%s < %s", col, next(c.Value)))
		case OpBetween:
			lo := next(c.Value)
			hi := next(c.Upper)
			clauses = append(clauses, fmt.Sprintf("%s BETWEEN %s AND %s", col, lo, hi))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// source returns the FROM expression and arguments for an entity
func (s entitySpec) source(entity Entity, f Filter) (string, []interface{}, error) {
	where, args, err := s.where(f, nil)
	if err != nil {
		return "", nil, err
	}
	if entity == EntityDailyRevenue {
		return fmt.Sprintf("(SELECT period, SUM(amount) AS amount FROM %s%s GROUP BY period) daily", s.table, where), args, nil
	}
	return s.table + where, args, nil
}
