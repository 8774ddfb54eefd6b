package models

import "time"

// WordType selects which pools Crocodile words are drawn from
type WordType string

const (
	WordTypeSingle WordType = "single"
	WordTypePhrase WordType = "phrase"
	WordTypeAll    WordType = "all"
)

// Action is how the current player must convey the word
type Action string

const (
	ActionTell Action = "tell"
	ActionShow Action = "show"
)

// Actions lists every action a turn can draw
var Actions = []Action{ActionTell, ActionShow}

// CrocodileModeSinglePhone is the only play mode: one device passed between players
const CrocodileModeSinglePhone = "single_phone"

// CrocodileStatusPlaying is the only in-progress status
const CrocodileStatusPlaying = "playing"

// CrocodileSettings configures a Crocodile game.
// TimerSeconds of 0 means the turn is unlimited.
type CrocodileSettings struct {
	TimerSeconds int      `json:"timerSeconds"`
	WordType     WordType `json:"wordType"`
	AdultMode    bool     `json:"adultMode"`
}

// DefaultCrocodileSettings returns the settings used when none were saved
func DefaultCrocodileSettings() CrocodileSettings {
	return CrocodileSettings{
		TimerSeconds: 0,
		WordType:     WordTypeSingle,
		AdultMode:    false,
	}
}

// Unlimited reports whether turns have no countdown
func (s CrocodileSettings) Unlimited() bool {
	return s.TimerSeconds == 0
}

// CrocodilePlayer is a participant in turn order
type CrocodilePlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CrocodileGame is the session record for one room
type CrocodileGame struct {
	Mode               string            `json:"mode"`
	Players            []CrocodilePlayer `json:"players"`
	CurrentPlayerIndex int               `json:"currentPlayerIndex"`
	CurrentPlayerID    string            `json:"currentPlayerId"`
	Settings           CrocodileSettings `json:"settings"`
	Scores             map[string]int    `json:"scores"`
	Status             string            `json:"status"`
	CurrentWord        *string           `json:"currentWord"`
	CurrentAction      *Action           `json:"currentAction"`
	StartedAt          time.Time         `json:"startedAt"`
	WordGeneratedAt    *time.Time        `json:"wordGeneratedAt,omitempty"`
}

// CurrentPlayer returns the player whose turn it is
func (g *CrocodileGame) CurrentPlayer() CrocodilePlayer {
	return g.Players[g.CurrentPlayerIndex]
}

// WordPending reports whether the current player has drawn a word
func (g *CrocodileGame) WordPending() bool {
	return g.CurrentWord != nil
}
