// Package memcache fronts a lookup cache store with an in-process LRU.
// Local copies live at most ttl, and are dropped early by Delete or Evict
// when the key is invalidated.
package memcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

// Backend is the store being fronted.
type Backend interface {
	Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error)
	Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error)
	Delete(ctx context.Context, et domain.EntityType, value string) (bool, error)
	Stats(ctx context.Context) (domain.CacheStats, error)
}

// Store is a read-through LRU over a Backend.
//
// Every eviction bumps gen. A row read from the backend is only cached if no
// eviction happened since the read started, so a read racing an
// invalidation cannot put the old verdict back.
type Store struct {
	next  Backend
	cache *expirable.LRU[string, domain.CacheEntry]

	mu  sync.Mutex
	gen uint64
}

// New wraps next with an LRU holding up to size entries for at most ttl.
func New(next Backend, size int, ttl time.Duration) (*Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("memcache: size must be positive (got %d)", size)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("memcache: ttl must be positive (got %s)", ttl)
	}
	return &Store{
		next:  next,
		cache: expirable.NewLRU[string, domain.CacheEntry](size, nil, ttl),
	}, nil
}

func (s *Store) Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	key := domain.CacheKey(et, value)
	if e, ok := s.cache.Get(key); ok {
		return e, nil
	}

	gen := s.generation()
	e, err := s.next.Get(ctx, et, value)
	if err != nil {
		return domain.CacheEntry{}, err
	}
	s.fill(gen, key, e)
	return e, nil
}

func (s *Store) Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error) {
	gen := s.generation()
	stored, created, err := s.next.Insert(ctx, entry)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}
	s.fill(gen, stored.Key(), stored)
	return stored, created, nil
}

// Delete removes the key from the backend, then evicts locally. The local
// eviction happens even when the backend call fails.
func (s *Store) Delete(ctx context.Context, et domain.EntityType, value string) (bool, error) {
	removed, err := s.next.Delete(ctx, et, value)
	s.Evict(et, value)
	return removed, err
}

// Evict drops the local copy only and reports whether one was held. Used
// when another process invalidated the key.
func (s *Store) Evict(et domain.EntityType, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.cache.Remove(domain.CacheKey(et, value))
}

func (s *Store) Stats(ctx context.Context) (domain.CacheStats, error) {
	return s.next.Stats(ctx)
}

// Len reports how many verdicts are held locally.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Store) fill(gen uint64, key string, e domain.CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cache.Add(key, e)
	}
}
