package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"zamstay-be/internal/domain"
	"zamstay-be/pkg/database"
	apperrors "zamstay-be/pkg/errors"
)

// postgresStatsStore aggregates records on the read pool
type postgresStatsStore struct {
	db *database.PostgresDB
}

// NewStatsStore creates a statistics store backed by PostgreSQL
func NewStatsStore(db *database.PostgresDB) StatsStore {
	return &postgresStatsStore{db: db}
}

func (s *postgresStatsStore) pool() *pgxpool.Pool {
	return s.db.GetReadPool()
}

// Count returns the number of records of entity matching the filter
func (s *postgresStatsStore) Count(ctx context.Context, entity Entity, filter Filter) (int64, error) {
	query, args, err := CountQuery(entity, filter)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := s.pool().QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, unavailable("count", entity, err)
	}
	return n, nil
}

// Sum returns the total of a money field. An empty match sums to zero.
func (s *postgresStatsStore) Sum(ctx context.Context, entity Entity, field string, filter Filter) (domain.Money, error) {
	query, args, err := aggregateQuery("SUM", entity, field, filter)
	if err != nil {
		return domain.Money{}, err
	}
	return s.scanMoney(ctx, "sum", entity, query, args)
}

// Average returns the mean of a money field. An empty match averages to zero.
func (s *postgresStatsStore) Average(ctx context.Context, entity Entity, field string, filter Filter) (domain.Money, error) {
	query, args, err := aggregateQuery("AVG", entity, field, filter)
	if err != nil {
		return domain.Money{}, err
	}
	return s.scanMoney(ctx, "average", entity, query, args)
}

func (s *postgresStatsStore) scanMoney(ctx context.Context, op string, entity Entity, query string, args []interface{}) (domain.Money, error) {
	var raw string
	if err := s.pool().QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return domain.Money{}, unavailable(op, entity, err)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Money{}, unavailable(op, entity, err)
	}
	return domain.NewMoney(d), nil
}

// GroupCount counts records per distinct value of field, largest groups
// first and ties broken by key ascending
func (s *postgresStatsStore) GroupCount(ctx context.Context, entity Entity, field string, filter Filter, limit int) ([]domain.CategoryCount, error) {
	query, args, err := GroupCountQuery(entity, field, filter, limit)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool().Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("group_count", entity, err)
	}

	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CategoryCount, error) {
		var g domain.CategoryCount
		err := row.Scan(&g.Category, &g.Count)
		return g, err
	})
	if err != nil {
		return nil, unavailable("group_count", entity, err)
	}
	if groups == nil {
		groups = []domain.CategoryCount{}
	}
	return groups, nil
}

// CountQuery renders the SQL for Count
func CountQuery(entity Entity, filter Filter) (string, []interface{}, error) {
	spec, err := lookup(entity)
	if err != nil {
		return "", nil, invalid(err)
	}
	from, args, err := spec.source(entity, filter)
	if err != nil {
		return "", nil, invalid(err)
	}
	return "SELECT COUNT(*) FROM " + from, args, nil
}

func aggregateQuery(fn string, entity Entity, field string, filter Filter) (string, []interface{}, error) {
	spec, err := lookup(entity)
	if err != nil {
		return "", nil, invalid(err)
	}
	col, err := spec.column(field)
	if err != nil {
		return "", nil, invalid(err)
	}
	from, args, err := spec.source(entity, filter)
	if err != nil {
		return "", nil, invalid(err)
	}
	return fmt.Sprintf("SELECT COALESCE(%s(%s), 0)::text FROM %s", fn, col, from), args, nil
}

// GroupCountQuery renders the SQL for GroupCount. A non-positive limit
// returns every group.
func GroupCountQuery(entity Entity, field string, filter Filter, limit int) (string, []interface{}, error) {
	spec, err := lookup(entity)
	if err != nil {
		return "", nil, invalid(err)
	}
	col, err := spec.column(field)
	if err != nil {
		return "", nil, invalid(err)
	}
	from, args, err := spec.source(entity, filter)
	if err != nil {
		return "", nil, invalid(err)
	}

	query := fmt.Sprintf(
		"SELECT COALESCE(CAST(%s AS TEXT), '%s') AS grp, COUNT(*) AS n FROM %s GROUP BY grp ORDER BY n DESC, grp ASC",
		col, domain.UnknownGroup, from)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return query, args, nil
}

func unavailable(op string, entity Entity, err error) error {
	return apperrors.NewDataUnavailableError(
		fmt.Sprintf("statistics store %s on %s failed", op, entity),
		err)
}

// invalid wraps an unknown entity, column or operator
func invalid(err error) error {
	return apperrors.NewDataUnavailableError("invalid statistics query", err)
}
