// Package lookupcache implements the lookup cache store on PostgreSQL.
// The UNIQUE (entity_type, value) constraint is what keeps one verdict per
// key across every server process.
package lookupcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	"github.com/checkscam/checkscam-backend/internal/domain"
)

const (
	tableCache      = "lookup_cache"
	tableRiskLevels = "risk_levels"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides lookup cache persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new lookup cache repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

type cacheRow struct {
	EntityType  string    `db:"entity_type"`
	Value       string    `db:"value"`
	ReportCount int       `db:"report_count"`
	RiskLevel   string    `db:"risk_level"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r cacheRow) toDomain() domain.CacheEntry {
	return domain.CacheEntry{
		EntityType:  domain.EntityType(r.EntityType),
		Value:       r.Value,
		ReportCount: r.ReportCount,
		RiskLevel:   domain.RiskLevel(r.RiskLevel),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the cached verdict for the key, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	query, args, err := psql.
		Select("c.entity_type", "c.value", "c.report_count", "l.name AS risk_level", "c.updated_at").
		From(tableCache + " c").
		Join(tableRiskLevels + " l ON l.id = c.risk_level_id").
		Where(sq.Eq{"c.entity_type": string(et), "c.value": value}).
		ToSql()
	if err != nil {
		return domain.CacheEntry{}, fmt.Errorf("build lookup_cache select: %w", err)
	}

	var row cacheRow
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			err = pgx.ErrNoRows
		}
		return domain.CacheEntry{}, postgres.MapError(err, tableCache, domain.CacheKey(et, value))
	}

	return row.toDomain(), nil
}

// Stats counts cached keys and those with at least one report.
func (r *Repo) Stats(ctx context.Context) (domain.CacheStats, error) {
	query, args, err := psql.
		Select("count(*) AS total", "count(*) FILTER (WHERE report_count > 0) AS risky").
		From(tableCache).
		ToSql()
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("build lookup_cache stats: %w", err)
	}

	var row struct {
		Total int `db:"total"`
		Risky int `db:"risky"`
	}
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.pool), &row, query, args...); err != nil {
		return domain.CacheStats{}, fmt.Errorf("lookup_cache stats: %w", err)
	}

	return domain.CacheStats{TotalTargets: row.Total, RiskyTargets: row.Risky}, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// insertAttempts bounds Insert's retries when the conflicting row vanishes
// (an invalidation) before it can be read back.
const insertAttempts = 2

// Insert stores entry unless the key already has a verdict. On conflict the
// stored row is returned with created=false; it is never overwritten.
func (r *Repo) Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)
	key := entry.Key()

	levelID, err := r.riskLevelID(ctx, q, entry.RiskLevel)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}

	query, args, err := psql.
		Insert(tableCache).
		Columns("entity_type", "value", "report_count", "risk_level_id", "updated_at").
		Values(string(entry.EntityType), entry.Value, entry.ReportCount, levelID, entry.UpdatedAt).
		Suffix("ON CONFLICT (entity_type, value) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("build lookup_cache insert: %w", err)
	}

	for attempt := 1; ; attempt++ {
		var id int64
		err = q.QueryRow(ctx, query, args...).Scan(&id)
		if err == nil {
			return entry, true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.CacheEntry{}, false, postgres.MapError(err, tableCache, key)
		}

		// Another writer got there first; hand back its row.
		winner, getErr := r.Get(ctx, entry.EntityType, entry.Value)
		if errors.Is(getErr, domain.ErrNotFound) && attempt < insertAttempts {
			continue
		}
		if getErr != nil {
			return domain.CacheEntry{}, false, fmt.Errorf("read conflicting lookup_cache row: %w", getErr)
		}
		return winner, false, nil
	}
}

// Delete removes the cached verdict for the key and reports whether one
// existed.
func (r *Repo) Delete(ctx context.Context, et domain.EntityType, value string) (bool, error) {
	query, args, err := psql.
		Delete(tableCache).
		Where(sq.Eq{"entity_type": string(et), "value": value}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build lookup_cache delete: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		return false, postgres.MapError(err, tableCache, domain.CacheKey(et, value))
	}

	return tag.RowsAffected() > 0, nil
}

func (r *Repo) riskLevelID(ctx context.Context, q postgres.Querier, level domain.RiskLevel) (int16, error) {
	query, args, err := psql.
		Select("id").
		From(tableRiskLevels).
		Where(sq.Eq{"name": string(level)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build risk_levels select: %w", err)
	}

	var id int16
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.MissingReference(tableRiskLevels, string(level))
		}
		return 0, postgres.MapError(err, tableRiskLevels, string(level))
	}

	return id, nil
}
