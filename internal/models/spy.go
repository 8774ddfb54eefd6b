package models

import (
	"slices"
	"time"
)

// SpyStatus is the phase of a Spy game
type SpyStatus string

const (
	SpyStatusCardReveal SpyStatus = "card_reveal"
	SpyStatusPlaying    SpyStatus = "playing"
	SpyStatusVoting     SpyStatus = "voting"
	SpyStatusResults    SpyStatus = "results"
	SpyStatusGuessing   SpyStatus = "guessing"
	SpyStatusEnded      SpyStatus = "ended"
)

// EndReason explains why a Spy game ended
type EndReason string

const (
	EndReasonSpiesEliminated  EndReason = "spies_eliminated"
	EndReasonNotEnoughPlayers EndReason = "not_enough_players"
	EndReasonTie              EndReason = "tie"
	EndReasonSpiesGuessed     EndReason = "spies_guessed"
)

// Roles reported to individual players
const (
	RoleSpy    = "spy"
	RolePlayer = "player"
)

// GuessVote is a player's verdict on the spy's guess
type GuessVote string

const (
	GuessVoteYes GuessVote = "yes"
	GuessVoteNo  GuessVote = "no"
)

// IsValid reports whether v is yes or no
func (v GuessVote) IsValid() bool {
	return v == GuessVoteYes || v == GuessVoteNo
}

// MinSpyPlayers is the smallest room a Spy game can start with
const MinSpyPlayers = 3

// SpyGame is the session record for one room
type SpyGame struct {
	Players           []Player          `json:"players"`
	Location          string            `json:"location"`
	SpyIDs            []string          `json:"spyIds"`
	Status            SpyStatus         `json:"status"`
	Votes             map[string]string `json:"votes"`
	ReadyToVote       []string          `json:"readyToVote"`
	EliminatedPlayers []string          `json:"eliminatedPlayers"`
	Results           *SpyResults       `json:"results,omitempty"`
	SpyGuess          *SpyGuess         `json:"spyGuess,omitempty"`
	// Departed lists players who left the room mid-game. Rounds stop waiting on them.
	Departed  []string  `json:"departed,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// SpyResults is the outcome of the last vote tally
type SpyResults struct {
	VoteCounts         map[string]int `json:"voteCounts"`
	ActiveVoteCounts   map[string]int `json:"activeVoteCounts"`
	MostVotedID        string         `json:"mostVotedId,omitempty"`
	MaxVotes           int            `json:"maxVotes"`
	IsSpy              bool           `json:"isSpy"`
	Location           string         `json:"location,omitempty"`
	SpyIDs             []string       `json:"spyIds,omitempty"`
	EliminatedPlayerID string         `json:"eliminatedPlayerId,omitempty"`
	IsTie              bool           `json:"isTie"`
	GameEnded          bool           `json:"gameEnded"`
	GameEndReason      EndReason      `json:"gameEndReason,omitempty"`
	ContinueGame       bool           `json:"continueGame"`
	AwaitingGuess      bool           `json:"awaitingGuess"`
}

// Redacted hides the location and the spy list until the game is over
func (r *SpyResults) Redacted() *SpyResults {
	if r == nil || r.GameEnded {
		return r
	}
	out := *r
	out.Location = ""
	out.SpyIDs = nil
	return &out
}

// SpyGuess tracks the eliminated spy's last-chance guess
type SpyGuess struct {
	PlayerID    string               `json:"playerId"`
	GuessedWord string               `json:"guessedWord"`
	Votes       map[string]GuessVote `json:"votes"`
	AllVoted    bool                 `json:"allVoted"`
	Result      *GuessResult         `json:"result,omitempty"`
}

// GuessResult is the outcome of voting on a spy's guess
type GuessResult struct {
	GuessedWord     string `json:"guessedWord"`
	Location        string `json:"location"`
	MatchesLocation bool   `json:"matchesLocation"`
	YesVotes        int    `json:"yesVotes"`
	NoVotes         int    `json:"noVotes"`
	SpiesWin        bool   `json:"spiesWin"`
}

// IsSpy reports whether the player was dealt the spy card
func (g *SpyGame) IsSpy(playerID string) bool {
	return slices.Contains(g.SpyIDs, playerID)
}

// IsEliminated reports whether the player has been voted out
func (g *SpyGame) IsEliminated(playerID string) bool {
	return slices.Contains(g.EliminatedPlayers, playerID)
}

// FindPlayer returns the game's snapshot of a player
func (g *SpyGame) FindPlayer(playerID string) (Player, bool) {
	for _, p := range g.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// IsActive reports whether the player is in the game and not eliminated
func (g *SpyGame) IsActive(playerID string) bool {
	_, ok := g.FindPlayer(playerID)
	return ok && !g.IsEliminated(playerID)
}

// ActivePlayers returns the players not yet eliminated, in game order
func (g *SpyGame) ActivePlayers() []Player {
	active := make([]Player, 0, len(g.Players))
	for _, p := range g.Players {
		if !g.IsEliminated(p.ID) {
			active = append(active, p)
		}
	}
	return active
}

// PresentPlayers returns the active players still in the room
func (g *SpyGame) PresentPlayers() []Player {
	return slices.DeleteFunc(g.ActivePlayers(), func(p Player) bool { return slices.Contains(g.Departed, p.ID) })
}

// MarkDeparted records that a player of this game left the room
func (g *SpyGame) MarkDeparted(playerID string) bool {
	if _, ok := g.FindPlayer(playerID); !ok || slices.Contains(g.Departed, playerID) {
		return false
	}
	g.Departed = append(g.Departed, playerID)
	return true
}

// MarkReturned undoes MarkDeparted
func (g *SpyGame) MarkReturned(playerID string) bool {
	if !slices.Contains(g.Departed, playerID) {
		return false
	}
	g.Departed = slices.DeleteFunc(g.Departed, func(id string) bool { return id == playerID })
	return true
}

// ActiveSpyIDs returns the spies not yet eliminated
func (g *SpyGame) ActiveSpyIDs() []string {
	active := make([]string, 0, len(g.SpyIDs))
	for _, id := range g.SpyIDs {
		if !g.IsEliminated(id) {
			active = append(active, id)
		}
	}
	return active
}

// LastEliminated returns the most recently eliminated player id
func (g *SpyGame) LastEliminated() (string, bool) {
	if len(g.EliminatedPlayers) == 0 {
		return "", false
	}
	return g.EliminatedPlayers[len(g.EliminatedPlayers)-1], true
}

// ResetRound clears per-round voting state
func (g *SpyGame) ResetRound() {
	g.Votes = map[string]string{}
	g.ReadyToVote = []string{}
}

// PlayerName returns the display name for an id, or the id itself when unknown
func (g *SpyGame) PlayerName(playerID string) string {
	if p, ok := g.FindPlayer(playerID); ok {
		return p.Name
	}
	return playerID
}

// SpyPlayerView is what a single player may see of the game
type SpyPlayerView struct {
	Role          string      `json:"role"`
	Location      *string     `json:"location"`
	GameStatus    SpyStatus   `json:"gameStatus"`
	Players       []Player    `json:"players"`
	ReadyToVote   []string    `json:"readyToVote"`
	Results       *SpyResults `json:"results,omitempty"`
	IsEliminated  bool        `json:"isEliminated"`
	CanGuess      bool        `json:"canGuess"`
	EliminatedIDs []string    `json:"eliminatedPlayers"`
}

// SpyPublicState is the part of a game safe to broadcast to the whole room
type SpyPublicState struct {
	Players           []Player  `json:"players"`
	Status            SpyStatus `json:"status"`
	SpyCount          int       `json:"spyCount"`
	EliminatedPlayers []string  `json:"eliminatedPlayers"`
	StartedAt         time.Time `json:"startedAt"`
}

// PublicState strips the location and spy identities
func (g *SpyGame) PublicState() SpyPublicState {
	return SpyPublicState{
		Players:           g.Players,
		Status:            g.Status,
		SpyCount:          len(g.SpyIDs),
		EliminatedPlayers: g.EliminatedPlayers,
		StartedAt:         g.StartedAt,
	}
}

// GuessStatus is the pull-based view of the guess sub-phase
type GuessStatus struct {
	PlayerID    string               `json:"playerId,omitempty"`
	GuessedWord string               `json:"guessedWord,omitempty"`
	Votes       map[string]GuessVote `json:"votes"`
	AllVoted    bool                 `json:"allVoted"`
	Result      *GuessResult         `json:"result,omitempty"`
}
