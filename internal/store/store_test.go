package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreVersions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, entry.Exists())

	v1, err := s.Put(ctx, "k", []byte("a"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := s.Put(ctx, "k", []byte("b"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	entry, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", string(entry.Value))
	assert.Equal(t, int64(2), entry.Version)
}

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	v, err := s.CompareAndSwap(ctx, "k", 0, []byte("a"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = s.CompareAndSwap(ctx, "k", 0, []byte("b"), time.Hour)
	assert.ErrorIs(t, err, ErrVersionConflict, "claiming an existing key must fail")

	_, err = s.CompareAndSwap(ctx, "k", 5, []byte("b"), time.Hour)
	assert.ErrorIs(t, err, ErrVersionConflict)

	v, err = s.CompareAndSwap(ctx, "k", 1, []byte("b"), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStoreWithClock(clock.Now)

	_, err := s.Put(ctx, "k", []byte("a"), time.Minute)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, entry.Exists())

	clock.Advance(time.Second)
	entry, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, entry.Exists(), "entry must be gone at its expiry instant")

	// An expired key can be claimed again and restarts at version 1
	v, err := s.CompareAndSwap(ctx, "k", 0, []byte("b"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestMemoryStoreForget(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Put(ctx, "k", []byte("a"), time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Forget(ctx, "k"))
	require.NoError(t, s.Forget(ctx, "missing"))

	entry, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, entry.Exists())
}

func TestMemoryStorePurgeAndKeys(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	s := NewMemoryStoreWithClock(clock.Now)

	_, _ = s.Put(ctx, "room_001_players", []byte("{}"), time.Minute)
	_, _ = s.Put(ctx, "room_002_players", []byte("{}"), time.Hour)
	_, _ = s.Put(ctx, "spy_game_002", []byte("{}"), time.Hour)

	keys, err := s.Keys(ctx, "room_")
	require.NoError(t, err)
	assert.Equal(t, []string{"room_001_players", "room_002_players"}, keys)

	clock.Advance(2 * time.Minute)
	removed, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"room_002_players", "spy_game_002"}, keys)
}

func TestMemoryStoreEntriesRestore(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	src := NewMemoryStoreWithClock(clock.Now)

	_, _ = src.Put(ctx, "a", []byte(`{"n":1}`), time.Hour)
	_, _ = src.Put(ctx, "a", []byte(`{"n":2}`), time.Hour)
	_, _ = src.Put(ctx, "b", []byte(`{"n":3}`), time.Hour)

	records, err := src.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Key)
	assert.Equal(t, int64(2), records[0].Version)

	expired := Record{Key: "old", Value: []byte(`1`), Version: 1, ExpiresAt: clock.Now().Add(-time.Second)}

	dst := NewMemoryStoreWithClock(clock.Now)
	n, err := dst.Restore(ctx, append(records, expired))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entry, err := dst.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Version)
	assert.JSONEq(t, `{"n":2}`, string(entry.Value))
}

type counter struct {
	N int `json:"n"`
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := Update(ctx, s, "c", time.Hour, 3, func(c *counter, exists bool) error {
		assert.False(t, exists)
		c.N++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.N)

	got, err = Update(ctx, s, "c", time.Hour, 3, func(c *counter, exists bool) error {
		assert.True(t, exists)
		c.N++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.N)

	var stored counter
	version, err := GetJSON(ctx, s, "c", &stored)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 2, stored.N)
}

func TestUpdateSkipWriteAndErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := Update(ctx, s, "c", time.Hour, 3, func(c *counter, exists bool) error {
		return ErrSkipWrite
	})
	require.NoError(t, err)

	entry, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.False(t, entry.Exists(), "skip must not write")

	boom := errors.New("boom")
	_, err = Update(ctx, s, "c", time.Hour, 3, func(c *counter, exists bool) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

// racingStore bumps the key behind the caller's back before every CAS
type racingStore struct {
	*MemoryStore
	races int
}

func (r *racingStore) CompareAndSwap(ctx context.Context, key string, expected int64, value []byte, ttl time.Duration) (int64, error) {
	if r.races > 0 {
		r.races--
		_, _ = r.MemoryStore.Put(ctx, key, []byte(`{"n":100}`), ttl)
	}
	return r.MemoryStore.CompareAndSwap(ctx, key, expected, value, ttl)
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s := &racingStore{MemoryStore: NewMemoryStore(), races: 2}

	calls := 0
	got, err := Update(ctx, s, "c", time.Hour, 5, func(c *counter, exists bool) error {
		calls++
		c.N++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 101, got.N, "the final attempt must see the concurrent write")
}

func TestUpdateContention(t *testing.T) {
	ctx := context.Background()
	s := &racingStore{MemoryStore: NewMemoryStore(), races: 10}

	_, err := Update(ctx, s, "c", time.Hour, 3, func(c *counter, exists bool) error {
		c.N++
		return nil
	})
	assert.ErrorIs(t, err, ErrContention)
}

func TestUpdateConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Update(ctx, s, "c", time.Hour, 100, func(c *counter, exists bool) error {
				c.N++
				return nil
			})
			if err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var stored counter
	_, err := GetJSON(ctx, s, "c", &stored)
	require.NoError(t, err)
	assert.Equal(t, workers-failures, stored.N, "no increment may be lost")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "room_123_players", RoomPlayersKey("123"))
	assert.Equal(t, "spy_game_123", GameKey("spy", "123"))
	assert.Equal(t, "crocodile_game_007", GameKey("crocodile", "007"))
	assert.Equal(t, "spy_ready_to_start_123", SpyReadyToStartKey("123"))
	assert.Equal(t, "crocodile_settings_123", CrocodileSettingsKey("123"))
}
