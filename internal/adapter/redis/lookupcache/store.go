// Package lookupcache implements the lookup cache store on Redis. Entries
// are JSON documents; insert-or-read and delete run as Lua scripts so the
// stats counters move together with the entries.
package lookupcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// KEYS: entry, total counter, risky counter. ARGV: payload, risky flag.
// Returns 1 when stored, otherwise the existing payload.
var insertScript = redis.NewScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'NX') then
  redis.call('INCR', KEYS[2])
  if ARGV[2] == '1' then
    redis.call('INCR', KEYS[3])
  end
  return 1
end
return redis.call('GET', KEYS[1])
`)

// KEYS: entry, total counter, risky counter. Returns 1 when a key was removed.
var deleteScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('DECR', KEYS[2])
if cjson.decode(v).reportCount > 0 then
  redis.call('DECR', KEYS[3])
end
return 1
`)

// Store is a Redis-backed lookup cache.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New creates a Store. Every key it touches starts with prefix.
func New(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

type payload struct {
	Type        string    `json:"type"`
	Value       string    `json:"value"`
	ReportCount int       `json:"reportCount"`
	RiskLevel   string    `json:"riskLevel"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func encode(e domain.CacheEntry) ([]byte, error) {
	return json.Marshal(payload{
		Type:        string(e.EntityType),
		Value:       e.Value,
		ReportCount: e.ReportCount,
		RiskLevel:   string(e.RiskLevel),
		UpdatedAt:   e.UpdatedAt.UTC(),
	})
}

func decode(raw []byte) (domain.CacheEntry, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.CacheEntry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return domain.CacheEntry{
		EntityType:  domain.EntityType(p.Type),
		Value:       p.Value,
		ReportCount: p.ReportCount,
		RiskLevel:   domain.RiskLevel(p.RiskLevel),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}, nil
}

func (s *Store) entryKey(et domain.EntityType, value string) string {
	return s.prefix + "entry:" + domain.CacheKey(et, value)
}

func (s *Store) totalKey() string { return s.prefix + "stats:total" }
func (s *Store) riskyKey() string { return s.prefix + "stats:risky" }

// Get returns the cached verdict for the key, or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	raw, err := s.client.Get(ctx, s.entryKey(et, value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CacheEntry{}, fmt.Errorf("lookup cache %s: %w", domain.CacheKey(et, value), domain.ErrNotFound)
		}
		return domain.CacheEntry{}, fmt.Errorf("redis get %s: %w", domain.CacheKey(et, value), err)
	}
	return decode(raw)
}

// Insert stores entry unless the key already has a verdict, in which case
// the stored one is returned with created=false.
func (s *Store) Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error) {
	if !entry.RiskLevel.IsValid() {
		return domain.CacheEntry{}, false, domain.MissingReference("risk_levels", string(entry.RiskLevel))
	}

	raw, err := encode(entry)
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("encode cache entry: %w", err)
	}

	risky := "0"
	if entry.ReportCount > 0 {
		risky = "1"
	}

	res, err := insertScript.Run(ctx, s.client,
		[]string{s.entryKey(entry.EntityType, entry.Value), s.totalKey(), s.riskyKey()},
		raw, risky,
	).Result()
	if err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("redis insert %s: %w", entry.Key(), err)
	}

	switch v := res.(type) {
	case int64:
		return entry, true, nil
	case string:
		winner, err := decode([]byte(v))
		if err != nil {
			return domain.CacheEntry{}, false, err
		}
		return winner, false, nil
	default:
		return domain.CacheEntry{}, false, fmt.Errorf("redis insert %s: unexpected reply %T", entry.Key(), res)
	}
}

// Delete removes the cached verdict and reports whether one existed.
func (s *Store) Delete(ctx context.Context, et domain.EntityType, value string) (bool, error) {
	n, err := deleteScript.Run(ctx, s.client,
		[]string{s.entryKey(et, value), s.totalKey(), s.riskyKey()},
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis delete %s: %w", domain.CacheKey(et, value), err)
	}
	return n == 1, nil
}

// Stats reads the counters maintained by Insert and Delete.
func (s *Store) Stats(ctx context.Context) (domain.CacheStats, error) {
	vals, err := s.client.MGet(ctx, s.totalKey(), s.riskyKey()).Result()
	if err != nil {
		return domain.CacheStats{}, fmt.Errorf("redis stats: %w", err)
	}

	total, err := counter(vals[0])
	if err != nil {
		return domain.CacheStats{}, err
	}
	risky, err := counter(vals[1])
	if err != nil {
		return domain.CacheStats{}, err
	}

	return domain.CacheStats{TotalTargets: total, RiskyTargets: risky}, nil
}

func counter(v any) (int, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("redis stats: unexpected counter type %T", v)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("redis stats: %w", err)
	}
	return n, nil
}
