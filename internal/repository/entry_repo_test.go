package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"partyrooms/internal/content"
	"partyrooms/internal/database"
	"partyrooms/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations(context.Background(), "../../migrations"))
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepo(t *testing.T) (*EntryRepository, *testClock) {
	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	repo := NewEntryRepository(setupTestDB(t))
	repo.now = clock.Now
	return repo, clock
}

func TestEntryRepositoryPutGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	entry, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, entry.Exists())

	v, err := repo.Put(ctx, "k", []byte(`{"a":1}`), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = repo.Put(ctx, "k", []byte(`{"a":2}`), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	entry, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.Version)
	assert.JSONEq(t, `{"a":2}`, string(entry.Value))
}

func TestEntryRepositoryCompareAndSwap(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	v, err := repo.CompareAndSwap(ctx, "room_001_players", 0, []byte(`{}`), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = repo.CompareAndSwap(ctx, "room_001_players", 0, []byte(`{}`), time.Minute)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, err = repo.CompareAndSwap(ctx, "room_001_players", 7, []byte(`{}`), time.Minute)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	v, err = repo.CompareAndSwap(ctx, "room_001_players", 1, []byte(`{"n":1}`), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	// Once expired the key can be claimed again from version 0
	clock.Advance(2 * time.Minute)
	_, err = repo.CompareAndSwap(ctx, "room_001_players", 2, []byte(`{}`), time.Minute)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	v, err = repo.CompareAndSwap(ctx, "room_001_players", 0, []byte(`{}`), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestEntryRepositoryUpdateConcurrent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	type counter struct {
		N int `json:"n"`
	}

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, repo, "counter", time.Hour, 50, func(c *counter, exists bool) error {
				c.N++
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}

	var got counter
	_, err := store.GetJSON(ctx, repo, "counter", &got)
	require.NoError(t, err)
	assert.Equal(t, succeeded, got.N, "every successful update must be visible")
}

func TestEntryRepositoryMaintenance(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Put(ctx, "room_001_players", []byte(`{}`), time.Minute)
	require.NoError(t, err)
	_, err = repo.Put(ctx, "room_002_players", []byte(`{}`), time.Hour)
	require.NoError(t, err)
	_, err = repo.Put(ctx, "roomy", []byte(`{}`), time.Hour)
	require.NoError(t, err)
	_, err = repo.Put(ctx, "spy_game_002", []byte(`{}`), time.Hour)
	require.NoError(t, err)

	keys, err := repo.Keys(ctx, "room_")
	require.NoError(t, err)
	assert.Equal(t, []string{"room_001_players", "room_002_players"}, keys, "underscore must not act as a wildcard")

	clock.Advance(5 * time.Minute)
	removed, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	require.NoError(t, repo.Forget(ctx, "roomy"))
	require.NoError(t, repo.Forget(ctx, "roomy"))

	records, err := repo.Entries(ctx, "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "room_002_players", records[0].Key)
	assert.Equal(t, "spy_game_002", records[1].Key)
}

func TestEntryRepositoryRestore(t *testing.T) {
	repo, clock := newTestRepo(t)
	ctx := context.Background()
	now := clock.Now()

	_, err := repo.Put(ctx, "a", []byte(`"old"`), time.Hour)
	require.NoError(t, err)

	n, err := repo.Restore(ctx, []store.Record{
		{Key: "a", Value: []byte(`"new"`), Version: 9, ExpiresAt: now.Add(time.Hour)},
		{Key: "b", Value: []byte(`"b"`), Version: 3, ExpiresAt: now.Add(time.Hour)},
		{Key: "c", Value: []byte(`"c"`), Version: 1, ExpiresAt: now.Add(-time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entry, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(9), entry.Version)
	assert.Equal(t, `"new"`, string(entry.Value))

	entry, err = repo.Get(ctx, "c")
	require.NoError(t, err)
	assert.False(t, entry.Exists())
}

func TestContentRepositoryLoad(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SeedContent(ctx, content.Default()))

	repo := NewContentRepository(db)
	tables, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, content.Default(), tables)

	counts, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(content.Default().Locations), counts[content.KindLocation])
}
