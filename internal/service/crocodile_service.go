package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"partyrooms/internal/content"
	"partyrooms/internal/game"
	"partyrooms/internal/models"
	"partyrooms/internal/notify"
	"partyrooms/internal/store"
	"partyrooms/internal/utils"

	"github.com/rs/zerolog/log"
)

// AllowedTimerSeconds are the turn lengths a room may choose; 0 is unlimited
var AllowedTimerSeconds = []int{0, 30, 60}

// Actor identifies who is taking a turn. PlayerID wins when set; otherwise the
// display name is matched, which is ambiguous if two players share a name.
type Actor struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

func (a Actor) validate() error {
	if strings.TrimSpace(a.PlayerID) == "" && strings.TrimSpace(a.PlayerName) == "" {
		return utils.ValidationError{Field: "playerId", Message: "playerId or playerName is required"}
	}
	return nil
}

func (a Actor) matches(p models.CrocodilePlayer) bool {
	if id := strings.TrimSpace(a.PlayerID); id != "" {
		return p.ID == id
	}
	return p.Name == strings.TrimSpace(a.PlayerName)
}

// TurnWord is the word the current player has to convey
type TurnWord struct {
	PlayerID string        `json:"playerId"`
	Word     string        `json:"word"`
	Action   models.Action `json:"action"`
}

// TurnResult is returned when a turn ends
type TurnResult struct {
	Scores     map[string]int         `json:"scores"`
	NextPlayer models.CrocodilePlayer `json:"nextPlayer"`
	Game       *models.CrocodileGame  `json:"gameData"`
}

// CrocodileService runs Crocodile sessions
type CrocodileService struct {
	store    store.Store
	notifier notify.Notifier
	content  *content.Tables
	rand     game.Rand
	opts     Options
	now      func() time.Time
}

// NewCrocodileService creates a new Crocodile service
func NewCrocodileService(s store.Store, n notify.Notifier, tables *content.Tables, r game.Rand, opts Options) *CrocodileService {
	return &CrocodileService{
		store:    s,
		notifier: n,
		content:  tables,
		rand:     r,
		opts:     opts,
		now:      time.Now,
	}
}

// ValidateSettings checks a settings value
func ValidateSettings(settings models.CrocodileSettings) error {
	if !slices.Contains(AllowedTimerSeconds, settings.TimerSeconds) {
		return utils.ValidationError{Field: "timerSeconds", Message: "timer must be 30, 60 or 0 for unlimited"}
	}
	switch settings.WordType {
	case models.WordTypeSingle, models.WordTypePhrase, models.WordTypeAll:
	default:
		return utils.ValidationError{Field: "wordType", Message: "word type must be single, phrase or all"}
	}
	return nil
}

// SaveSettings stores the room's settings for the next game
func (s *CrocodileService) SaveSettings(ctx context.Context, code string, settings models.CrocodileSettings) (models.CrocodileSettings, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return settings, err
	}
	if err := ValidateSettings(settings); err != nil {
		return settings, err
	}

	if _, err := store.PutJSON(ctx, s.store, store.CrocodileSettingsKey(code), settings, s.opts.GameTTL); err != nil {
		return settings, err
	}

	publish(ctx, s.notifier, code, models.EventCrocodileSettingsUpdated, models.CrocodileSettingsUpdatedEvent{RoomCode: code, Settings: settings})
	return settings, nil
}

// Settings returns the room's saved settings, or the defaults
func (s *CrocodileService) Settings(ctx context.Context, code string) (models.CrocodileSettings, error) {
	settings := models.DefaultCrocodileSettings()
	if err := utils.ValidateRoomCode(code); err != nil {
		return settings, err
	}
	if _, err := store.GetJSON(ctx, s.store, store.CrocodileSettingsKey(code), &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

// Start begins a game for the non-blank names, in the order given. The first
// player takes the first turn. A nil settings uses the room's saved settings.
func (s *CrocodileService) Start(ctx context.Context, code string, names []string, settings *models.CrocodileSettings) (*models.CrocodileGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	var players []models.CrocodilePlayer
	for _, raw := range names {
		name := utils.TruncatePlayerName(raw)
		if name == "" {
			continue
		}
		players = append(players, models.CrocodilePlayer{ID: fmt.Sprintf("player_%d", len(players)), Name: name})
	}
	if len(players) == 0 {
		return nil, utils.ValidationError{Field: "players", Message: "at least one player name is required"}
	}

	var chosen models.CrocodileSettings
	if settings != nil {
		if err := ValidateSettings(*settings); err != nil {
			return nil, err
		}
		chosen = *settings
	} else {
		saved, err := s.Settings(ctx, code)
		if err != nil {
			return nil, err
		}
		chosen = saved
	}

	scores := make(map[string]int, len(players))
	for _, p := range players {
		scores[p.ID] = 0
	}

	g := &models.CrocodileGame{
		Mode:               models.CrocodileModeSinglePhone,
		Players:            players,
		CurrentPlayerIndex: 0,
		CurrentPlayerID:    players[0].ID,
		Settings:           chosen,
		Scores:             scores,
		Status:             models.CrocodileStatusPlaying,
		StartedAt:          s.now().UTC(),
	}

	if _, err := store.PutJSON(ctx, s.store, store.GameKey(models.GameCrocodile, code), g, s.opts.GameTTL); err != nil {
		return nil, err
	}

	log.Info().Str("room", code).Int("players", len(players)).Msg("Crocodile game started")
	publish(ctx, s.notifier, code, models.EventCrocodileGameStarted, models.CrocodileGameStartedEvent{RoomCode: code, GameData: g})
	return g, nil
}

// ConfirmTurn draws a word and action for the current player. Confirming again
// while a word is pending returns the same word.
func (s *CrocodileService) ConfirmTurn(ctx context.Context, code string, actor Actor) (*TurnWord, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := actor.validate(); err != nil {
		return nil, err
	}

	var turn TurnWord
	var out outbox
	_, err := store.Update(ctx, s.store, store.GameKey(models.GameCrocodile, code), s.opts.GameTTL, s.opts.CASRetries,
		func(g *models.CrocodileGame, exists bool) error {
			out.reset()
			if !exists {
				return ErrGameNotFound
			}

			current := g.CurrentPlayer()
			if !actor.matches(current) {
				return ErrNotCurrentPlayer
			}

			if g.WordPending() {
				turn = TurnWord{PlayerID: current.ID, Word: *g.CurrentWord, Action: *g.CurrentAction}
				return store.ErrSkipWrite
			}

			word, ok := game.Pick(s.rand, s.content.WordPool(g.Settings))
			if !ok {
				return errors.New("no words available for the chosen settings")
			}
			action, _ := game.Pick(s.rand, models.Actions)
			generatedAt := s.now().UTC()

			g.CurrentWord = &word
			g.CurrentAction = &action
			g.WordGeneratedAt = &generatedAt

			turn = TurnWord{PlayerID: current.ID, Word: word, Action: action}
			out.add(models.EventCrocodileWordGenerated, models.CrocodileWordGeneratedEvent{
				RoomCode: code,
				PlayerID: current.ID,
				Word:     &word,
				Action:   &action,
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	out.flush(ctx, s.notifier, code)
	return &turn, nil
}

// CompleteTurn scores the current player on success and passes the turn on
func (s *CrocodileService) CompleteTurn(ctx context.Context, code string, actor Actor, success bool) (*TurnResult, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}
	if err := actor.validate(); err != nil {
		return nil, err
	}

	var out outbox
	g, err := store.Update(ctx, s.store, store.GameKey(models.GameCrocodile, code), s.opts.GameTTL, s.opts.CASRetries,
		func(g *models.CrocodileGame, exists bool) error {
			out.reset()
			if !exists {
				return ErrGameNotFound
			}

			current := g.CurrentPlayer()
			if !actor.matches(current) {
				return ErrNotCurrentPlayer
			}

			if success {
				if g.Scores == nil {
					g.Scores = make(map[string]int)
				}
				g.Scores[current.ID]++
			}

			g.CurrentPlayerIndex = game.NextTurn(g.CurrentPlayerIndex, len(g.Players))
			next := g.CurrentPlayer()
			g.CurrentPlayerID = next.ID
			g.CurrentWord = nil
			g.CurrentAction = nil
			g.WordGeneratedAt = nil

			out.add(models.EventCrocodileWordGenerated, models.CrocodileWordGeneratedEvent{
				RoomCode:     code,
				PlayerID:     next.ID,
				IsNextPlayer: true,
			})
			return nil
		})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("room", code).Str("next_player", g.CurrentPlayerID).Bool("success", success).Msg("Crocodile turn completed")
	out.flush(ctx, s.notifier, code)
	return &TurnResult{Scores: g.Scores, NextPlayer: g.CurrentPlayer(), Game: &g}, nil
}

// GetState returns the stored session
func (s *CrocodileService) GetState(ctx context.Context, code string) (*models.CrocodileGame, error) {
	if err := utils.ValidateRoomCode(code); err != nil {
		return nil, err
	}

	var g models.CrocodileGame
	version, err := store.GetJSON(ctx, s.store, store.GameKey(models.GameCrocodile, code), &g)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, ErrGameNotFound
	}
	return &g, nil
}
