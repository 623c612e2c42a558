package config

import (
	"errors"
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Lookup.validate(c.Redis); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if c.RateLimit.LookupPerMinute < 0 {
		return fmt.Errorf("rate_limit.lookup_per_minute must be >= 0 (got %d)", c.RateLimit.LookupPerMinute)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (l LookupConfig) validate(redis RedisConfig) error {
	switch l.CacheBackend {
	case CacheBackendPostgres:
	case CacheBackendRedis:
		if redis.URL == "" {
			return errors.New("redis.url is required when cache_backend is redis")
		}
	default:
		return fmt.Errorf("cache_backend must be %q or %q (got %q)", CacheBackendPostgres, CacheBackendRedis, l.CacheBackend)
	}

	if l.MemoryCacheSize < 0 {
		return fmt.Errorf("memory_cache_size must be >= 0 (got %d)", l.MemoryCacheSize)
	}
	if l.MemoryCacheSize > 0 && l.MemoryCacheTTL <= 0 {
		return fmt.Errorf("memory_cache_ttl must be positive when the memory cache is on (got %s)", l.MemoryCacheTTL)
	}

	return nil
}

// ValidateKafka checks the settings a report-events consumer needs. Load
// does not call it because Kafka is optional for the HTTP server.
func (k KafkaConfig) ValidateKafka() error {
	if len(k.BrokerList()) == 0 {
		return errors.New("kafka.brokers is required")
	}
	if k.Topic == "" {
		return errors.New("kafka.topic is required")
	}
	if k.InvalidatedTopic == "" {
		return errors.New("kafka.invalidated_topic is required")
	}
	if k.GroupID == "" {
		return errors.New("kafka.group_id is required")
	}
	return nil
}
