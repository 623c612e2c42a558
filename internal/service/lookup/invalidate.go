package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// Invalidate drops the cached verdict for a key so the next lookup
// recomputes it. Ordinary lookups never do this on their own. Once the
// shared row is gone, other replicas are notified to evict their copies;
// a failed notice is logged and left to the memory tier's TTL.
func (s *Service) Invalidate(ctx context.Context, caller domain.Caller, et domain.EntityType, raw string) (bool, error) {
	value, err := et.Normalize(raw)
	if err != nil {
		return false, err
	}

	removed, err := s.cache.Delete(ctx, et, value)
	if err != nil {
		return false, fmt.Errorf("delete cached verdict: %w", err)
	}

	if s.notify != nil {
		if err := s.notify.PublishInvalidated(ctx, et, value); err != nil {
			s.log.WarnContext(ctx, "invalidation notice not published",
				slog.String("type", et.String()),
				slog.String("value", value),
				slog.String("error", err.Error()),
			)
		}
	}

	s.log.InfoContext(ctx, "verdict invalidated",
		slog.String("type", et.String()),
		slog.String("value", value),
		slog.Bool("removed", removed),
	)

	if s.audit != nil {
		rec := domain.AuditRecord{
			Action:      domain.AuditActionInvalidate,
			EntityType:  et,
			EntityValue: value,
			Details:     map[string]any{"removed": removed},
		}
		if caller.UserID != uuid.Nil {
			id := caller.UserID
			rec.ActorID = &id
		}
		if err := s.audit.Log(ctx, rec); err != nil {
			s.log.WarnContext(ctx, "audit write failed",
				slog.String("action", string(rec.Action)),
				slog.String("error", err.Error()),
			)
		}
	}

	return removed, nil
}

// Stats summarises the cache for dashboards.
func (s *Service) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}
