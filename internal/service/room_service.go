package service

import (
	"context"
	"errors"
	"slices"

	"partyrooms/internal/credentials"
	"partyrooms/internal/game"
	"partyrooms/internal/models"
	"partyrooms/internal/notify"
	"partyrooms/internal/store"
	"partyrooms/internal/utils"

	"github.com/rs/zerolog/log"
)

// Membership is what a player receives on creating or joining a room
type Membership struct {
	RoomCode string        `json:"roomCode"`
	Player   models.Player `json:"player"`
	Ticket   string        `json:"ticket,omitempty"`
}

// RoomService is the room registry: who is in which room
type RoomService struct {
	store    store.Store
	notifier notify.Notifier
	tickets  *credentials.TicketIssuer
	rand     game.Rand
	opts     Options
}

// NewRoomService creates a new room service. tickets may be nil.
func NewRoomService(s store.Store, n notify.Notifier, tickets *credentials.TicketIssuer, r game.Rand, opts Options) *RoomService {
	return &RoomService{
		store:    s,
		notifier: n,
		tickets:  tickets,
		rand:     r,
		opts:     opts,
	}
}

// CreateRoom claims a free room code and makes hostName its host
func (s *RoomService) CreateRoom(ctx context.Context, hostName string) (*Membership, error) {
	name, err := utils.NormalizePlayerName(hostName)
	if err != nil {
		return nil, err
	}

	host := models.Player{ID: utils.NewPlayerID(), Name: name, IsHost: true}
	data, err := jsonBytes(models.Roster{Players: []models.Player{host}})
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < s.opts.RoomCodeAttempts; attempt++ {
		code := credentials.GenerateRoomCode(s.rand)

		_, err := s.store.CompareAndSwap(ctx, store.RoomPlayersKey(code), 0, data, s.opts.RoomTTL)
		if errors.Is(err, store.ErrVersionConflict) {
			log.Debug().Str("room", code).Msg("Room code taken, drawing another")
			continue
		}
		if err != nil {
			return nil, err
		}

		log.Info().Str("room", code).Str("player_id", host.ID).Msg("Room created")
		publish(ctx, s.notifier, code, models.EventPlayerJoined, models.PlayerJoinedEvent{RoomCode: code, Player: host})
		return s.membership(code, host), nil
	}

	return nil, ErrNoRoomCode
}

// JoinRoom adds a new guest player named name to the room
func (s *RoomService) JoinRoom(ctx context.Context, code, playerName string) (*Membership, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	name, err := utils.NormalizePlayerName(playerName)
	if err != nil {
		return nil, err
	}

	player := models.Player{ID: utils.NewPlayerID(), Name: name}
	if err := s.Join(ctx, code, player); err != nil {
		return nil, err
	}
	return s.membership(code, player), nil
}

func (s *RoomService) membership(code string, player models.Player) *Membership {
	m := &Membership{RoomCode: code, Player: player}
	if s.tickets.Enabled() {
		ticket, err := s.tickets.Issue(code, player.ID)
		if err != nil {
			log.Error().Err(err).Str("room", code).Msg("Failed to issue player ticket")
		} else {
			m.Ticket = ticket
		}
	}
	return m
}

// Join inserts the player or overwrites the entry with the same id, refreshing the room's TTL.
// Joining twice with the same id leaves a single entry.
func (s *RoomService) Join(ctx context.Context, code string, player models.Player) error {
	if err := utils.ValidateRoomCode(code); err != nil {
		return err
	}
	if err := utils.RequireField("playerId", player.ID); err != nil {
		return err
	}

	_, err := store.Update(ctx, s.store, store.RoomPlayersKey(code), s.opts.RoomTTL, s.opts.CASRetries,
		func(roster *models.Roster, exists bool) error {
			roster.Upsert(player)
			return nil
		})
	if err != nil {
		return err
	}
	if err := s.restoreSpyPresence(ctx, code, player.ID); err != nil {
		return err
	}

	log.Debug().Str("room", code).Str("player_id", player.ID).Msg("Player joined")
	publish(ctx, s.notifier, code, models.EventPlayerJoined, models.PlayerJoinedEvent{RoomCode: code, Player: player})
	return nil
}

// Leave removes the player and purges them from the room's ready lists.
// Leaving a room one is not in does nothing.
func (s *RoomService) Leave(ctx context.Context, code, playerID string) error {
	if err := utils.ValidateRoomCode(code); err != nil {
		return err
	}
	if err := utils.RequireField("playerId", playerID); err != nil {
		return err
	}

	removed := false
	_, err := store.Update(ctx, s.store, store.RoomPlayersKey(code), s.opts.RoomTTL, s.opts.CASRetries,
		func(roster *models.Roster, exists bool) error {
			removed = roster.Remove(playerID)
			if !removed {
				return store.ErrSkipWrite
			}
			return nil
		})
	if err != nil {
		return err
	}

	if err := s.purgeReadyLists(ctx, code, playerID); err != nil {
		return err
	}

	if removed {
		log.Debug().Str("room", code).Str("player_id", playerID).Msg("Player left")
		publish(ctx, s.notifier, code, models.EventPlayerLeft, models.PlayerLeftEvent{RoomCode: code, PlayerID: playerID})
	}
	return nil
}

func (s *RoomService) purgeReadyLists(ctx context.Context, code, playerID string) error {
	_, err := store.Update(ctx, s.store, store.SpyReadyToStartKey(code), s.opts.GameTTL, s.opts.CASRetries,
		func(ready *[]string, exists bool) error {
			if !slices.Contains(*ready, playerID) {
				return store.ErrSkipWrite
			}
			*ready = slices.DeleteFunc(*ready, func(id string) bool { return id == playerID })
			return nil
		})
	if err != nil {
		return err
	}

	var out outbox
	_, err = store.Update(ctx, s.store, store.GameKey(models.GameSpy, code), s.opts.GameTTL, s.opts.CASRetries,
		func(g *models.SpyGame, exists bool) error {
			out.reset()
			if !exists || !g.MarkDeparted(playerID) {
				return store.ErrSkipWrite
			}
			g.ReadyToVote = slices.DeleteFunc(g.ReadyToVote, func(id string) bool { return id == playerID })
			settleAfterDeparture(code, g, &out)
			return nil
		})
	if err != nil {
		return err
	}
	out.flush(ctx, s.notifier, code)
	return nil
}

// restoreSpyPresence lets a returning player count towards the game's rounds again
func (s *RoomService) restoreSpyPresence(ctx context.Context, code, playerID string) error {
	_, err := store.Update(ctx, s.store, store.GameKey(models.GameSpy, code), s.opts.GameTTL, s.opts.CASRetries,
		func(g *models.SpyGame, exists bool) error {
			if !exists || !g.MarkReturned(playerID) {
				return store.ErrSkipWrite
			}
			return nil
		})
	return err
}

// ListPlayers returns the room's players in join order. A missing room has no players.
func (s *RoomService) ListPlayers(ctx context.Context, code string) ([]models.Player, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	var roster models.Roster
	if _, err := store.GetJSON(ctx, s.store, store.RoomPlayersKey(code), &roster); err != nil {
		return nil, err
	}
	if roster.Players == nil {
		return []models.Player{}, nil
	}
	return roster.Players, nil
}

// IsMember reports whether playerID is in the room
func (s *RoomService) IsMember(ctx context.Context, code, playerID string) (bool, error) {
	players, err := s.ListPlayers(ctx, code)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(players, func(p models.Player) bool { return p.ID == playerID }), nil
}

// SelectGame tells the room which game's rules to open
func (s *RoomService) SelectGame(ctx context.Context, code, gameID string) error {
	if err := utils.ValidateRoomCode(code); err != nil {
		return err
	}
	if !models.IsValidGame(gameID) {
		return utils.ValidationError{Field: "gameId", Message: "unknown game"}
	}

	publish(ctx, s.notifier, code, models.EventGameRulesOpened, models.GameRulesOpenedEvent{RoomCode: code, GameID: gameID})
	return nil
}

// AnnounceStart tells the room the host has moved on to game selection
func (s *RoomService) AnnounceStart(ctx context.Context, code string) error {
	if err := utils.ValidateRoomCode(code); err != nil {
		return err
	}

	publish(ctx, s.notifier, code, models.EventGameStarted, models.GameStartedEvent{RoomCode: code})
	return nil
}
