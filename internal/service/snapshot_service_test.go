package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"partyrooms/internal/models"
	"partyrooms/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	joinAll(t, env, "042", threePlayers)
	_, err := env.crocodile.Start(ctx, "042", []string{"A", "B"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := NewSnapshotService(env.store).Export(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	var snapshot Snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snapshot))
	assert.Len(t, snapshot.Entries, 2)

	restoredStore := store.NewMemoryStore()
	restored, err := NewSnapshotService(restoredStore).Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	rooms := NewRoomService(restoredStore, env.notifier, nil, newTestRand(1), testOptions())
	players, err := rooms.ListPlayers(ctx, "042")
	require.NoError(t, err)
	assert.Equal(t, threePlayers, players)

	var g models.CrocodileGame
	version, err := store.GetJSON(ctx, restoredStore, store.GameKey(models.GameCrocodile, "042"), &g)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, "player_0", g.CurrentPlayerID)
}

func TestSnapshotImportSkipsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	input := `{
		"exportedAt": "2024-06-01T10:00:00Z",
		"entries": [
			{"key": "room_001_players", "value": {"players": []}, "version": 3, "expiresAt": "2024-06-01T11:00:00Z"},
			{"key": "room_002_players", "value": {"players": []}, "version": 5, "expiresAt": "2024-06-02T11:00:00Z"}
		]
	}`

	target := store.NewMemoryStoreWithClock(func() time.Time { return now })
	svc := NewSnapshotService(target)
	svc.now = func() time.Time { return now }

	restored, err := svc.Import(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	keys, err := target.Keys(ctx, "room_")
	require.NoError(t, err)
	assert.Equal(t, []string{"room_002_players"}, keys)
}

func TestSnapshotImportRejectsGarbage(t *testing.T) {
	_, err := NewSnapshotService(store.NewMemoryStore()).Import(context.Background(), strings.NewReader("not json"))
	assert.Error(t, err)
}
