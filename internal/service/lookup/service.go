// Package lookup implements the cache-aside read path: a verdict is computed
// once per key from the report store, persisted, and served unchanged until
// it is explicitly invalidated.
package lookup

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

type cacheStore interface {
	Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error)
	Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error)
	Delete(ctx context.Context, et domain.EntityType, value string) (bool, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

type reportCounter interface {
	CountByKey(ctx context.Context, et domain.EntityType, value string) (int, error)
}

type auditLogger interface {
	Log(ctx context.Context, record domain.AuditRecord) error
}

// invalidationNotifier tells other processes that a key left the shared
// store, so they can drop local copies.
type invalidationNotifier interface {
	PublishInvalidated(ctx context.Context, et domain.EntityType, value string) error
}

// Service is the cache-aside lookup service.
type Service struct {
	log     *slog.Logger
	cache   cacheStore
	reports reportCounter
	audit   auditLogger
	notify  invalidationNotifier
	group   singleflight.Group
	now     func() time.Time
}

// NewService creates a new lookup service. audit may be nil, in which case
// invalidations are not recorded. notify may be nil when no other process
// keeps local copies.
func NewService(
	logger *slog.Logger,
	cache cacheStore,
	reports reportCounter,
	audit auditLogger,
	notify invalidationNotifier,
) *Service {
	return &Service{
		log:     logger.With("service", "lookup"),
		cache:   cache,
		reports: reports,
		audit:   audit,
		notify:  notify,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}
