// Package report reads community reports from PostgreSQL. Reports are
// written by the moderation workflow; this package never mutates them.
package report

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	"github.com/checkscam/checkscam-backend/internal/domain"
)

const tableReports = "reports"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides read access to reports.
type Repo struct {
	pool postgres.Querier
}

// New creates a new report repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

func byKey(et domain.EntityType, value string) sq.Eq {
	return sq.Eq{"entity_type": string(et), "info_value": value}
}

// CountByKey counts every report for the key regardless of status.
func (r *Repo) CountByKey(ctx context.Context, et domain.EntityType, value string) (int, error) {
	return r.count(ctx, byKey(et, value), domain.CacheKey(et, value))
}

// CountByStatus counts reports for the key in a single moderation status.
func (r *Repo) CountByStatus(ctx context.Context, et domain.EntityType, value string, status domain.ReportStatus) (int, error) {
	where := byKey(et, value)
	where["status"] = string(status)
	return r.count(ctx, where, domain.CacheKey(et, value)+"/"+string(status))
}

func (r *Repo) count(ctx context.Context, where sq.Eq, key string) (int, error) {
	query, args, err := psql.Select("count(*)").From(tableReports).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reports count: %w", err)
	}

	var n int
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "count reports", key)
	}
	return n, nil
}

type reportRow struct {
	ID          int64     `db:"id"`
	EntityType  string    `db:"entity_type"`
	InfoValue   string    `db:"info_value"`
	Status      string    `db:"status"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// ListApproved returns APPROVED reports for the key, oldest first.
func (r *Repo) ListApproved(ctx context.Context, et domain.EntityType, value string) ([]domain.ReportRecord, error) {
	where := byKey(et, value)
	where["status"] = string(domain.ReportStatusApproved)

	query, args, err := psql.
		Select("id", "entity_type", "info_value", "status", "description", "created_at").
		From(tableReports).
		Where(where).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build approved reports select: %w", err)
	}

	var rows []reportRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, postgres.MapError(err, "list approved reports", domain.CacheKey(et, value))
	}

	out := make([]domain.ReportRecord, len(rows))
	for i, row := range rows {
		out[i] = domain.ReportRecord{
			ID:          row.ID,
			EntityType:  domain.EntityType(row.EntityType),
			Value:       row.InfoValue,
			Status:      domain.ReportStatus(row.Status),
			Description: row.Description,
			CreatedAt:   row.CreatedAt.UTC(),
		}
	}
	return out, nil
}

// Span returns the earliest and latest report timestamps for the key across
// all statuses. Both are nil when the key has no reports.
func (r *Repo) Span(ctx context.Context, et domain.EntityType, value string) (domain.ReportSpan, error) {
	query, args, err := psql.
		Select("min(created_at) AS first", "max(created_at) AS last").
		From(tableReports).
		Where(byKey(et, value)).
		ToSql()
	if err != nil {
		return domain.ReportSpan{}, fmt.Errorf("build reports span: %w", err)
	}

	var span domain.ReportSpan
	if err := postgres.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&span.First, &span.Last); err != nil {
		return domain.ReportSpan{}, postgres.MapError(err, "report span", domain.CacheKey(et, value))
	}

	if span.First != nil {
		t := span.First.UTC()
		span.First = &t
	}
	if span.Last != nil {
		t := span.Last.UTC()
		span.Last = &t
	}
	return span, nil
}
