package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Lookup    LookupConfig    `yaml:"lookup"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"false"`
}

// AuthConfig holds JWT settings for the admin surface.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"checkscam"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
}

// Cache backends for the lookup store.
const (
	CacheBackendPostgres = "postgres"
	CacheBackendRedis    = "redis"
)

// LookupConfig selects where verdicts are cached. MemoryCacheTTL bounds how
// long a replica may serve a local copy after the key was invalidated
// elsewhere, should the invalidation event not reach it.
type LookupConfig struct {
	CacheBackend    string        `yaml:"cache_backend"     env:"LOOKUP_CACHE_BACKEND"     env-default:"postgres"`
	MemoryCacheSize int           `yaml:"memory_cache_size" env:"LOOKUP_MEMORY_CACHE_SIZE" env-default:"10000"`
	MemoryCacheTTL  time.Duration `yaml:"memory_cache_ttl"  env:"LOOKUP_MEMORY_CACHE_TTL"  env-default:"1m"`
}

// RedisConfig holds the connection for the redis cache backend.
type RedisConfig struct {
	URL       string `yaml:"url"        env:"REDIS_URL"`
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"checkscam:lookup:"`
}

// KafkaConfig wires report events into invalidation. Topic carries report
// events for cmd/invalidator; InvalidatedTopic carries a notice for every key
// removed from the shared store, read by each server replica's LRU tier.
type KafkaConfig struct {
	Brokers          string `yaml:"brokers"           env:"KAFKA_BROKERS"`
	Topic            string `yaml:"topic"             env:"KAFKA_TOPIC"             env-default:"report-events"`
	InvalidatedTopic string `yaml:"invalidated_topic" env:"KAFKA_INVALIDATED_TOPIC" env-default:"lookup-invalidated"`
	GroupID          string `yaml:"group_id"          env:"KAFKA_GROUP_ID"          env-default:"checkscam-invalidator"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.BrokerList()) > 0 }

// BrokerList splits Brokers on commas, dropping blanks.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// RateLimitConfig bounds public lookups per client IP. Zero disables it.
type RateLimitConfig struct {
	LookupPerMinute int `yaml:"lookup_per_minute" env:"RATE_LIMIT_LOOKUP_PER_MINUTE" env-default:"60"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
