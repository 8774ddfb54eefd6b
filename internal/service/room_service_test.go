package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"partyrooms/internal/credentials"
	"partyrooms/internal/models"
	"partyrooms/internal/notify"
	"partyrooms/internal/store"
	"partyrooms/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ann := models.Player{ID: "ann-id", Name: "Ann", IsHost: true}
	require.NoError(t, env.rooms.Join(ctx, "042", ann))

	players, err := env.rooms.ListPlayers(ctx, "042")
	require.NoError(t, err)
	assert.Equal(t, []models.Player{ann}, players)

	bob := models.Player{ID: "bob-id", Name: "Bob"}
	require.NoError(t, env.rooms.Join(ctx, "042", bob))

	players, err = env.rooms.ListPlayers(ctx, "042")
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Ann", players[0].Name)
	assert.True(t, players[0].IsHost)
	assert.Equal(t, "Bob", players[1].Name)
	assert.False(t, players[1].IsHost)

	assert.Equal(t, 2, env.notifier.Count(models.EventPlayerJoined))
	payload, ok := env.notifier.Last(models.EventPlayerJoined)
	require.True(t, ok)
	assert.Equal(t, models.PlayerJoinedEvent{RoomCode: "042", Player: bob}, payload)
}

func TestJoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p := models.Player{ID: "p1", Name: "Ann"}
	require.NoError(t, env.rooms.Join(ctx, "100", p))
	require.NoError(t, env.rooms.Join(ctx, "100", p))

	renamed := models.Player{ID: "p1", Name: "Annie"}
	require.NoError(t, env.rooms.Join(ctx, "100", renamed))

	players, err := env.rooms.ListPlayers(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, []models.Player{renamed}, players)
}

func TestConcurrentJoinsKeepEveryone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.rooms.JoinRoom(ctx, "555", "Player")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	players, err := env.rooms.ListPlayers(ctx, "555")
	require.NoError(t, err)
	assert.Len(t, players, n)
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	m, err := env.rooms.CreateRoom(ctx, "  Ann ")
	require.NoError(t, err)
	require.NoError(t, utils.ValidateRoomCode(m.RoomCode))
	assert.Equal(t, "Ann", m.Player.Name)
	assert.True(t, m.Player.IsHost)
	assert.NotEmpty(t, m.Player.ID)
	assert.Empty(t, m.Ticket, "no ticket issuer configured")

	players, err := env.rooms.ListPlayers(ctx, m.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, []models.Player{m.Player}, players)
}

func TestCreateRoomValidatesName(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rooms.CreateRoom(context.Background(), "   ")
	var verr utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "playerName", verr.Field)
}

// fixedRand always returns the same value
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func TestCreateRoomRunsOutOfCodes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	opts := testOptions()
	opts.RoomCodeAttempts = 3
	rooms := NewRoomService(s, notify.Discard, nil, fixedRand(7), opts)

	first, err := rooms.CreateRoom(ctx, "Ann")
	require.NoError(t, err)
	assert.Equal(t, "007", first.RoomCode)

	_, err = rooms.CreateRoom(ctx, "Bob")
	assert.ErrorIs(t, err, ErrNoRoomCode)
}

func TestCreateRoomIssuesTicket(t *testing.T) {
	ctx := context.Background()
	tickets := credentials.NewTicketIssuer("secret", time.Hour)
	rooms := NewRoomService(store.NewMemoryStore(), notify.Discard, tickets, newTestRand(1), testOptions())

	m, err := rooms.CreateRoom(ctx, "Ann")
	require.NoError(t, err)
	require.NotEmpty(t, m.Ticket)

	room, player, err := tickets.Parse(m.Ticket)
	require.NoError(t, err)
	assert.Equal(t, m.RoomCode, room)
	assert.Equal(t, m.Player.ID, player)
}

func TestJoinRoomValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		code      string
		player    string
		wantField string
	}{
		{name: "short code", code: "42", player: "Ann", wantField: "roomCode"},
		{name: "letters", code: "abc", player: "Ann", wantField: "roomCode"},
		{name: "blank name", code: "042", player: " ", wantField: "playerName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.rooms.JoinRoom(context.Background(), tt.code, tt.player)
			var verr utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, p := range []models.Player{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}} {
		require.NoError(t, env.rooms.Join(ctx, "321", p))
	}
	_, err := env.spy.ReadyToStart(ctx, "321", "b")
	require.NoError(t, err)

	env.notifier.Reset()
	require.NoError(t, env.rooms.Leave(ctx, "321", "b"))

	players, err := env.rooms.ListPlayers(ctx, "321")
	require.NoError(t, err)
	assert.Equal(t, []models.Player{{ID: "a", Name: "A"}, {ID: "c", Name: "C"}}, players)
	assert.Equal(t, []string{models.EventPlayerLeft}, env.notifier.Names())

	var ready []string
	_, err = store.GetJSON(ctx, env.store, store.SpyReadyToStartKey("321"), &ready)
	require.NoError(t, err)
	assert.Empty(t, ready)

	// Leaving again is a no-op
	env.notifier.Reset()
	require.NoError(t, env.rooms.Leave(ctx, "321", "b"))
	assert.Empty(t, env.notifier.Names())
}

func TestLeavePurgesReadyToVote(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedSpyGame(t, env, "777", []string{"b"}, models.SpyStatusPlaying)

	_, err := env.spy.ReadyToVote(ctx, "777", "a")
	require.NoError(t, err)

	require.NoError(t, env.rooms.Leave(ctx, "777", "a"))

	g, err := env.spy.GetState(ctx, "777")
	require.NoError(t, err)
	assert.Empty(t, g.ReadyToVote)
}

func TestLeaveSettlesSpyRounds(t *testing.T) {
	ctx := context.Background()

	t.Run("opens voting when everyone left is ready", func(t *testing.T) {
		env := newTestEnv(t)
		seedSpyGame(t, env, "777", []string{"b"}, models.SpyStatusPlaying)
		for _, id := range []string{"a", "b"} {
			_, err := env.spy.ReadyToVote(ctx, "777", id)
			require.NoError(t, err)
		}

		require.NoError(t, env.rooms.Leave(ctx, "777", "c"))

		g, err := env.spy.GetState(ctx, "777")
		require.NoError(t, err)
		assert.Equal(t, models.SpyStatusVoting, g.Status)
		assert.Equal(t, []string{"c"}, g.Departed)
		assert.Equal(t, 1, env.notifier.Count(models.EventSpyVotingStarted))
	})

	t.Run("tallies when everyone left has voted", func(t *testing.T) {
		env := newTestEnv(t)
		seedSpyGame(t, env, "777", []string{"b"}, models.SpyStatusVoting)
		for _, v := range [][2]string{{"a", "b"}, {"c", "b"}} {
			_, err := env.spy.SubmitVote(ctx, "777", v[0], v[1])
			require.NoError(t, err)
		}

		require.NoError(t, env.rooms.Leave(ctx, "777", "b"))

		g, err := env.spy.GetState(ctx, "777")
		require.NoError(t, err)
		assert.Equal(t, models.SpyStatusResults, g.Status)
		assert.Equal(t, []string{"b"}, g.EliminatedPlayers)
		assert.True(t, g.Results.AwaitingGuess)
	})

	t.Run("untouched round stays open", func(t *testing.T) {
		env := newTestEnv(t)
		seedSpyGame(t, env, "777", []string{"b"}, models.SpyStatusPlaying)

		require.NoError(t, env.rooms.Leave(ctx, "777", "c"))

		g, err := env.spy.GetState(ctx, "777")
		require.NoError(t, err)
		assert.Equal(t, models.SpyStatusPlaying, g.Status)
		assert.Zero(t, env.notifier.Count(models.EventSpyVotingStarted))
	})

	t.Run("rejoining player is waited on again", func(t *testing.T) {
		env := newTestEnv(t)
		seedSpyGame(t, env, "777", []string{"b"}, models.SpyStatusPlaying)

		require.NoError(t, env.rooms.Leave(ctx, "777", "c"))
		require.NoError(t, env.rooms.Join(ctx, "777", models.Player{ID: "c", Name: "C"}))

		for _, id := range []string{"a", "b"} {
			_, err := env.spy.ReadyToVote(ctx, "777", id)
			require.NoError(t, err)
		}

		g, err := env.spy.GetState(ctx, "777")
		require.NoError(t, err)
		assert.Empty(t, g.Departed)
		assert.Equal(t, models.SpyStatusPlaying, g.Status)
	})
}

func TestLeaveRequiresPlayerID(t *testing.T) {
	env := newTestEnv(t)

	err := env.rooms.Leave(context.Background(), "321", "")
	var verr utils.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "playerId", verr.Field)
}

func TestListPlayersMissingRoom(t *testing.T) {
	env := newTestEnv(t)

	players, err := env.rooms.ListPlayers(context.Background(), "999")
	require.NoError(t, err)
	assert.NotNil(t, players)
	assert.Empty(t, players)
}

func TestSelectGame(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.rooms.SelectGame(ctx, "123", models.GameSpy))
	payload, ok := env.notifier.Last(models.EventGameRulesOpened)
	require.True(t, ok)
	assert.Equal(t, models.GameRulesOpenedEvent{RoomCode: "123", GameID: "spy"}, payload)

	err := env.rooms.SelectGame(ctx, "123", "chess")
	var verr utils.ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, env.rooms.AnnounceStart(ctx, "123"))
	assert.Equal(t, 1, env.notifier.Count(models.EventGameStarted))
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.notifier.err = errors.New("hub closed")

	require.NoError(t, env.rooms.Join(ctx, "042", models.Player{ID: "a", Name: "A"}))

	ok, err := env.rooms.IsMember(ctx, "042", "a")
	require.NoError(t, err)
	assert.True(t, ok)
}
