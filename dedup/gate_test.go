package dedup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tender-scraper/models"
	"tender-scraper/utils"
)

type memStore struct {
	mu          sync.Mutex
	rows        map[string]*models.Listing
	existsCalls int
	existsErr   error
	insertErr   error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.Listing)}
}

func (m *memStore) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.rows[url]
	return ok, nil
}

func (m *memStore) InsertIfAbsent(_ context.Context, l *models.Listing) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, ok := m.rows[l.URL]; ok {
		return false, nil
	}
	l.ID = int64(len(m.rows) + 1)
	m.rows[l.URL] = l
	return true, nil
}

type memSeen struct {
	mu   sync.Mutex
	urls map[string]bool
	err  error
}

func (s *memSeen) Seen(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[url], s.err
}

func (s *memSeen) Mark(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls[url] = true
	return s.err
}

func newGate(t *testing.T, store *memStore, cache SeenCache) *Gate {
	t.Helper()
	g, err := NewGate(store, cache, 16, utils.NopLogger())
	require.NoError(t, err)
	return g
}

func TestRecordIfNewOnlyOnce(t *testing.T) {
	g := newGate(t, newMemStore(), nil)
	ctx := context.Background()

	first, err := g.RecordIfNew(ctx, &models.Listing{URL: "https://x/1"})
	require.NoError(t, err)
	second, err := g.RecordIfNew(ctx, &models.Listing{URL: "https://x/1"})
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestRecordIfNewConcurrent(t *testing.T) {
	g := newGate(t, newMemStore(), nil)
	var wins int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.RecordIfNew(context.Background(), &models.Listing{URL: "https://x/race"})
			if err == nil && ok {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
}

func TestIsKnownUsesRecentTier(t *testing.T) {
	store := newMemStore()
	g := newGate(t, store, nil)
	ctx := context.Background()

	assert.False(t, g.IsKnown(ctx, "https://x/2"))
	assert.Equal(t, 1, store.existsCalls)

	_, err := g.RecordIfNew(ctx, &models.Listing{URL: "https://x/2"})
	require.NoError(t, err)

	assert.True(t, g.IsKnown(ctx, "https://x/2"))
	assert.Equal(t, 1, store.existsCalls, "recent tier should answer without the store")
}

func TestIsKnownFromStore(t *testing.T) {
	store := newMemStore()
	store.rows["https://x/3"] = &models.Listing{URL: "https://x/3"}
	g := newGate(t, store, nil)

	assert.True(t, g.IsKnown(context.Background(), "https://x/3"))
	assert.True(t, g.IsKnown(context.Background(), "https://x/3"))
	assert.Equal(t, 1, store.existsCalls)
}

func TestIsKnownSeenCache(t *testing.T) {
	store := newMemStore()
	cache := &memSeen{urls: map[string]bool{"https://x/4": true}}
	g := newGate(t, store, cache)

	assert.True(t, g.IsKnown(context.Background(), "https://x/4"))
	assert.Equal(t, 0, store.existsCalls)

	_, err := g.RecordIfNew(context.Background(), &models.Listing{URL: "https://x/5"})
	require.NoError(t, err)
	assert.True(t, cache.urls["https://x/5"])
}

func TestIsKnownDegradesToNotKnown(t *testing.T) {
	store := newMemStore()
	store.existsErr = errors.New("db down")
	cache := &memSeen{urls: map[string]bool{}, err: errors.New("redis down")}
	g := newGate(t, store, cache)

	assert.False(t, g.IsKnown(context.Background(), "https://x/6"))
}

func TestRecordIfNewPropagatesError(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("db down")
	g := newGate(t, store, nil)

	ok, err := g.RecordIfNew(context.Background(), &models.Listing{URL: "https://x/7"})
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, g.IsKnown(context.Background(), "https://x/7"))
}

// Requires a running Redis; skipped otherwise.
func TestRedisCacheLive(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/0")
	require.NoError(t, err)
	defer client.Close()

	cache := NewRedisCache(client, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	url := "https://x/live-" + time.Now().Format("150405.000000")
	seen, err := cache.Seen(ctx, url)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, cache.Mark(ctx, url))
	seen, err = cache.Seen(ctx, url)
	require.NoError(t, err)
	assert.True(t, seen)
}
