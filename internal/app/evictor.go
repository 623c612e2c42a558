package app

import (
	"context"

	"github.com/checkscam/checkscam-backend/internal/adapter/memcache"
	"github.com/checkscam/checkscam-backend/internal/domain"
)

// memoryEvictor drops keys from this process's LRU tier only. It consumes
// invalidation notices, which are published after the shared row is gone,
// so every replica can run one in its own consumer group.
type memoryEvictor struct {
	mem *memcache.Store
}

func (e memoryEvictor) Invalidate(_ context.Context, _ domain.Caller, et domain.EntityType, raw string) (bool, error) {
	value, err := et.Normalize(raw)
	if err != nil {
		return false, err
	}
	return e.mem.Evict(et, value), nil
}
