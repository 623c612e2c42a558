package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/checkscam/checkscam-backend/internal/adapter/kafka/reportevents"
	"github.com/checkscam/checkscam-backend/internal/adapter/memcache"
	"github.com/checkscam/checkscam-backend/internal/adapter/postgres"
	auditrepo "github.com/checkscam/checkscam-backend/internal/adapter/postgres/audit"
	pgcache "github.com/checkscam/checkscam-backend/internal/adapter/postgres/lookupcache"
	reportrepo "github.com/checkscam/checkscam-backend/internal/adapter/postgres/report"
	"github.com/checkscam/checkscam-backend/internal/adapter/redis"
	rediscache "github.com/checkscam/checkscam-backend/internal/adapter/redis/lookupcache"
	"github.com/checkscam/checkscam-backend/internal/config"
	"github.com/checkscam/checkscam-backend/internal/service/adminlookup"
	"github.com/checkscam/checkscam-backend/internal/service/lookup"
	"github.com/checkscam/checkscam-backend/internal/transport/rest"
	"github.com/checkscam/checkscam-backend/migrations"
)

// Core holds the connected stores and services shared by the server, the
// operator CLI and the invalidator worker.
type Core struct {
	Config *config.Config
	Logger *slog.Logger

	Pool   *pgxpool.Pool
	Redis  *goredis.Client         // nil unless the redis backend is selected
	Memory *memcache.Store         // nil when the LRU tier is disabled
	Events *reportevents.Publisher // nil unless kafka is configured

	Audit  *auditrepo.Repo
	Lookup *lookup.Service
	Admin  *adminlookup.Service
}

// NewCore connects PostgreSQL (and Redis when selected), optionally runs
// migrations, and builds the lookup and admin services. Call Close when done.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Core{Config: cfg, Logger: logger, Pool: pool}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			c.Close()
			return nil, err
		}
	}

	store, err := c.cacheStore(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	reports := reportrepo.New(pool)
	c.Audit = auditrepo.New(pool)

	if cfg.Kafka.Enabled() {
		writer, err := reportevents.NewKafkaWriter(cfg.Kafka.BrokerList(), cfg.Kafka.InvalidatedTopic)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Events = reportevents.NewPublisher(writer)
		c.Lookup = lookup.NewService(logger, store, reports, c.Audit, c.Events)
	} else {
		c.Lookup = lookup.NewService(logger, store, reports, c.Audit, nil)
	}
	c.Admin = adminlookup.NewService(logger, store, reports, c.Audit, postgres.NewTxManager(pool))

	logger.Info("lookup core ready",
		slog.String("cache_backend", cfg.Lookup.CacheBackend),
		slog.Int("memory_cache_size", cfg.Lookup.MemoryCacheSize),
		slog.Duration("memory_cache_ttl", cfg.Lookup.MemoryCacheTTL),
		slog.Bool("invalidation_notices", c.Events != nil),
	)
	return c, nil
}

// cacheStore picks the configured backend and fronts it with the LRU tier.
func (c *Core) cacheStore(ctx context.Context) (memcache.Backend, error) {
	var store memcache.Backend

	switch c.Config.Lookup.CacheBackend {
	case config.CacheBackendRedis:
		client, err := redis.Connect(ctx, c.Config.Redis.URL)
		if err != nil {
			return nil, err
		}
		c.Redis = client
		store = rediscache.New(client, c.Config.Redis.KeyPrefix)
	case config.CacheBackendPostgres, "":
		store = pgcache.New(c.Pool)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Config.Lookup.CacheBackend)
	}

	if size := c.Config.Lookup.MemoryCacheSize; size > 0 {
		mem, err := memcache.New(store, size, c.Config.Lookup.MemoryCacheTTL)
		if err != nil {
			return nil, err
		}
		c.Memory = mem
		return mem, nil
	}
	return store, nil
}

// Pings returns the health checks for every connected dependency.
func (c *Core) Pings() map[string]rest.PingFunc {
	checks := map[string]rest.PingFunc{
		"database": c.Pool.Ping,
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases every connection opened by NewCore.
func (c *Core) Close() {
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
