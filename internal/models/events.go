package models

// Event names published on a room topic
const (
	EventPlayerJoined     = "player.joined"
	EventPlayerLeft       = "player.left"
	EventPlayerEliminated = "player.eliminated"
	EventGameRulesOpened  = "game.rules.opened"
	EventGameStarted      = "game.started"

	EventCrocodileGameStarted     = "crocodile.game.started"
	EventCrocodileWordGenerated   = "crocodile.word.generated"
	EventCrocodileSettingsUpdated = "crocodile.settings.updated"

	EventSpyGameStarted        = "spy.game.started"
	EventSpyReadyToStart       = "spy.ready.to.start"
	EventSpyReadyToVote        = "spy.ready.to.vote"
	EventSpyVotingStarted      = "spy.voting.started"
	EventSpyVoteSubmitted      = "spy.vote.submitted"
	EventSpyResultsReady       = "spy.results.ready"
	EventSpyGameContinue       = "spy.game.continue"
	EventSpyGuessSubmitted     = "spy.guess.submitted"
	EventSpyGuessVoteSubmitted = "spy.guess.vote.submitted"
	EventSpyGuessResult        = "spy.guess.result"
)

type PlayerJoinedEvent struct {
	RoomCode string `json:"roomCode"`
	Player   Player `json:"player"`
}

type PlayerLeftEvent struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type PlayerEliminatedEvent struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type GameRulesOpenedEvent struct {
	RoomCode string `json:"roomCode"`
	GameID   string `json:"gameId"`
}

type GameStartedEvent struct {
	RoomCode string `json:"roomCode"`
}

type CrocodileGameStartedEvent struct {
	RoomCode string         `json:"roomCode"`
	GameData *CrocodileGame `json:"gameData"`
}

// CrocodileWordGeneratedEvent doubles as the "your turn" signal when IsNextPlayer is set
type CrocodileWordGeneratedEvent struct {
	RoomCode     string  `json:"roomCode"`
	PlayerID     string  `json:"playerId"`
	Word         *string `json:"word"`
	Action       *Action `json:"action"`
	IsNextPlayer bool    `json:"isNextPlayer"`
}

type CrocodileSettingsUpdatedEvent struct {
	RoomCode string            `json:"roomCode"`
	Settings CrocodileSettings `json:"settings"`
}

type SpyGameStartedEvent struct {
	RoomCode string         `json:"roomCode"`
	GameData SpyPublicState `json:"gameData"`
}

// SpyReadyEvent is shared by the ready-to-start and ready-to-vote gates
type SpyReadyEvent struct {
	RoomCode     string   `json:"roomCode"`
	PlayerID     string   `json:"playerId"`
	ReadyPlayers []string `json:"readyPlayers"`
}

type SpyVotingStartedEvent struct {
	RoomCode      string   `json:"roomCode"`
	ActivePlayers []Player `json:"activePlayers"`
}

type SpyVoteSubmittedEvent struct {
	RoomCode     string `json:"roomCode"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	VotedForID   string `json:"votedForId"`
	VotedForName string `json:"votedForName"`
}

type SpyResultsReadyEvent struct {
	RoomCode string      `json:"roomCode"`
	Results  *SpyResults `json:"results"`
}

type SpyGameContinueEvent struct {
	RoomCode      string   `json:"roomCode"`
	ActivePlayers []Player `json:"activePlayers"`
}

type SpyGuessSubmittedEvent struct {
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	GuessedWord string `json:"guessedWord"`
}

type SpyGuessVoteSubmittedEvent struct {
	RoomCode string    `json:"roomCode"`
	PlayerID string    `json:"playerId"`
	Vote     GuessVote `json:"vote"`
}

type SpyGuessResultEvent struct {
	RoomCode string       `json:"roomCode"`
	Result   *GuessResult `json:"result"`
}
