package memcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/checkscam/checkscam-backend/internal/domain"
)

type backendMock struct {
	GetFunc    func(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error)
	InsertFunc func(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error)
	DeleteFunc func(ctx context.Context, et domain.EntityType, value string) (bool, error)
	StatsFunc  func(ctx context.Context) (domain.CacheStats, error)

	getCalls int
}

func (m *backendMock) Get(ctx context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	m.getCalls++
	return m.GetFunc(ctx, et, value)
}

func (m *backendMock) Insert(ctx context.Context, entry domain.CacheEntry) (domain.CacheEntry, bool, error) {
	return m.InsertFunc(ctx, entry)
}

func (m *backendMock) Delete(ctx context.Context, et domain.EntityType, value string) (bool, error) {
	return m.DeleteFunc(ctx, et, value)
}

func (m *backendMock) Stats(ctx context.Context) (domain.CacheStats, error) {
	return m.StatsFunc(ctx)
}

var stored = domain.CacheEntry{
	EntityType:  domain.EntityTypePhone,
	Value:       "0912345678",
	ReportCount: 3,
	RiskLevel:   domain.RiskLevelHigh,
	UpdatedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
}

func TestStore_Get_ReadsThroughOnce(t *testing.T) {
	t.Parallel()

	backend := &backendMock{
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			return stored, nil
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	for range 3 {
		got, err := s.Get(context.Background(), domain.EntityTypePhone, "0912345678")
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	}
	assert.Equal(t, 1, backend.getCalls)
}

func TestStore_Get_MissIsNotCached(t *testing.T) {
	t.Parallel()

	backend := &backendMock{
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			return domain.CacheEntry{}, domain.ErrNotFound
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	for range 2 {
		_, err := s.Get(context.Background(), domain.EntityTypePhone, "0912345678")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
	assert.Equal(t, 2, backend.getCalls)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Insert_CachesStoredRow(t *testing.T) {
	t.Parallel()

	backend := &backendMock{
		InsertFunc: func(_ context.Context, e domain.CacheEntry) (domain.CacheEntry, bool, error) {
			// Simulate a lost race: the backend returns another writer's row.
			return stored, false, nil
		},
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			t.Fatal("backend Get should not be called after Insert")
			return domain.CacheEntry{}, nil
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	loser := stored
	loser.ReportCount = 9
	got, created, err := s.Insert(context.Background(), loser)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, stored, got)

	cached, err := s.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	assert.Equal(t, stored, cached)
}

func TestStore_Insert_ErrorNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	backend := &backendMock{
		InsertFunc: func(context.Context, domain.CacheEntry) (domain.CacheEntry, bool, error) {
			return domain.CacheEntry{}, false, boom
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	_, _, err = s.Insert(context.Background(), stored)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Delete_Evicts(t *testing.T) {
	t.Parallel()

	backend := &backendMock{
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			return stored, nil
		},
		DeleteFunc: func(context.Context, domain.EntityType, string) (bool, error) {
			return true, nil
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	ok, err := s.Delete(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Evict(t *testing.T) {
	t.Parallel()

	backend := &backendMock{
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			return stored, nil
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)

	assert.True(t, s.Evict(stored.EntityType, stored.Value))
	assert.False(t, s.Evict(stored.EntityType, stored.Value))
	assert.Equal(t, 0, s.Len())

	_, err = s.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.getCalls)
}

func TestNew_InvalidSize(t *testing.T) {
	t.Parallel()

	_, err := New(&backendMock{}, 0, time.Minute)
	assert.Error(t, err)
}

func TestNew_InvalidTTL(t *testing.T) {
	t.Parallel()

	_, err := New(&backendMock{}, 10, 0)
	assert.Error(t, err)
}

// sharedBackend is a map-backed store shared by several Stores, the way
// replicas share one database.
type sharedBackend struct {
	mu   sync.Mutex
	rows map[string]domain.CacheEntry

	// beforeDelete runs while the row still exists.
	beforeDelete func()
}

func newSharedBackend(entries ...domain.CacheEntry) *sharedBackend {
	b := &sharedBackend{rows: map[string]domain.CacheEntry{}}
	for _, e := range entries {
		b.rows[e.Key()] = e
	}
	return b
}

func (b *sharedBackend) Get(_ context.Context, et domain.EntityType, value string) (domain.CacheEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.rows[domain.CacheKey(et, value)]
	if !ok {
		return domain.CacheEntry{}, domain.ErrNotFound
	}
	return e, nil
}

func (b *sharedBackend) Insert(_ context.Context, e domain.CacheEntry) (domain.CacheEntry, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.rows[e.Key()]; ok {
		return cur, false, nil
	}
	b.rows[e.Key()] = e
	return e, true, nil
}

func (b *sharedBackend) Delete(_ context.Context, et domain.EntityType, value string) (bool, error) {
	if b.beforeDelete != nil {
		b.beforeDelete()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := domain.CacheKey(et, value)
	_, ok := b.rows[key]
	delete(b.rows, key)
	return ok, nil
}

func (b *sharedBackend) Stats(context.Context) (domain.CacheStats, error) {
	return domain.CacheStats{}, nil
}

func TestStore_Delete_ReadDuringDeleteIsNotKept(t *testing.T) {
	t.Parallel()

	backend := newSharedBackend(stored)
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	// A lookup served while the delete is in flight still sees the row.
	backend.beforeDelete = func() {
		got, err := s.Get(context.Background(), stored.EntityType, stored.Value)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	}

	removed, err := s.Delete(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.Get(context.Background(), stored.EntityType, stored.Value)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_EvictAfterOtherReplicaDeletes(t *testing.T) {
	t.Parallel()

	backend := newSharedBackend(stored)
	a, err := New(backend, 10, time.Minute)
	require.NoError(t, err)
	b, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	_, err = a.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)

	removed, err := b.Delete(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)
	require.True(t, removed)

	// The shared row is gone before a is told; a refill now misses.
	assert.True(t, a.Evict(stored.EntityType, stored.Value))
	_, err = a.Get(context.Background(), stored.EntityType, stored.Value)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, a.Len())
}

func TestStore_Get_FillRacingEvictIsDropped(t *testing.T) {
	t.Parallel()

	reading := make(chan struct{})
	release := make(chan struct{})
	backend := &backendMock{
		GetFunc: func(context.Context, domain.EntityType, string) (domain.CacheEntry, error) {
			close(reading)
			<-release
			return stored, nil
		},
	}
	s, err := New(backend, 10, time.Minute)
	require.NoError(t, err)

	done := make(chan domain.CacheEntry)
	go func() {
		got, _ := s.Get(context.Background(), stored.EntityType, stored.Value)
		done <- got
	}()

	<-reading
	s.Evict(stored.EntityType, stored.Value)
	close(release)

	assert.Equal(t, stored, <-done)
	assert.Equal(t, 0, s.Len(), "a read that began before the eviction must not be cached")
}

func TestStore_EntriesExpire(t *testing.T) {
	t.Parallel()

	backend := newSharedBackend(stored)
	a, err := New(backend, 10, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = a.Get(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)

	// Deleted elsewhere and the eviction notice never arrived.
	_, err = backend.Delete(context.Background(), stored.EntityType, stored.Value)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := a.Get(context.Background(), stored.EntityType, stored.Value)
		return errors.Is(err, domain.ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}
