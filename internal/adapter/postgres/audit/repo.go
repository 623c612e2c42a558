// Package audit implements the append-only audit log on PostgreSQL.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	"github.com/checkscam/checkscam-backend/internal/domain"
)

const tableAudit = "audit_log"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Querier
}

// New creates a new audit repository.
func New(pool postgres.Querier) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Log appends a record. A zero ID or CreatedAt is filled in.
func (r *Repo) Log(ctx context.Context, record domain.AuditRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	details := record.Details
	if details == nil {
		details = map[string]any{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("audit_log marshal details: %w", err)
	}

	query, args, err := psql.
		Insert(tableAudit).
		Columns("id", "actor_id", "action", "entity_type", "entity_value", "details", "created_at").
		Values(record.ID, record.ActorID, string(record.Action), string(record.EntityType), record.EntityValue, detailsJSON, record.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit_log insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.pool).Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, tableAudit, record.ID.String())
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

type auditRow struct {
	ID          uuid.UUID  `db:"id"`
	ActorID     *uuid.UUID `db:"actor_id"`
	Action      string     `db:"action"`
	EntityType  string     `db:"entity_type"`
	EntityValue string     `db:"entity_value"`
	Details     []byte     `db:"details"`
	CreatedAt   time.Time  `db:"created_at"`
}

// ListByKey returns the most recent records for a lookup key, newest first.
func (r *Repo) ListByKey(ctx context.Context, et domain.EntityType, value string, limit int) ([]domain.AuditRecord, error) {
	query, args, err := psql.
		Select("id", "actor_id", "action", "entity_type", "entity_value", "details", "created_at").
		From(tableAudit).
		Where(sq.Eq{"entity_type": string(et), "entity_value": value}).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit_log select: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.pool), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit_log by key: %w", err)
	}

	out := make([]domain.AuditRecord, len(rows))
	for i, row := range rows {
		rec := domain.AuditRecord{
			ID:          row.ID,
			ActorID:     row.ActorID,
			Action:      domain.AuditAction(row.Action),
			EntityType:  domain.EntityType(row.EntityType),
			EntityValue: row.EntityValue,
			CreatedAt:   row.CreatedAt.UTC(),
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &rec.Details); err != nil {
				return nil, fmt.Errorf("audit_log %s unmarshal details: %w", row.ID, err)
			}
		}
		out[i] = rec
	}

	return out, nil
}
