package handlers

import (
	"net/http"

	"partyrooms/internal/models"
	"partyrooms/internal/service"
	"partyrooms/internal/utils"
)

// SpyHandler handles Spy game requests
type SpyHandler struct {
	spy *service.SpyService
}

// NewSpyHandler creates a new Spy handler
func NewSpyHandler(spy *service.SpyService) *SpyHandler {
	return &SpyHandler{spy: spy}
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type voteRequest struct {
	PlayerID   string `json:"playerId"`
	VotedForID string `json:"votedForId"`
}

type guessRequest struct {
	PlayerID    string `json:"playerId"`
	GuessedWord string `json:"guessedWord"`
}

type guessVoteRequest struct {
	PlayerID string           `json:"playerId"`
	Vote     models.GuessVote `json:"vote"`
}

// ReadyToStart marks a player ready in the lobby
func (h *SpyHandler) ReadyToStart(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req playerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.spy.ReadyToStart(r.Context(), code, req.PlayerID)
	if err != nil {
		respondWithServiceError(w, err, "Error marking player ready to start")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Start deals a new game
func (h *SpyHandler) Start(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	g, err := h.spy.Start(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error starting Spy game")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"gameData": g.PublicState()})
}

// ReadyToVote marks a player ready to vote
func (h *SpyHandler) ReadyToVote(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req playerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.spy.ReadyToVote(r.Context(), code, req.PlayerID)
	if err != nil {
		respondWithServiceError(w, err, "Error marking player ready to vote")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": g.Status, "readyToVote": g.ReadyToVote})
}

// StartVoting opens voting
func (h *SpyHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	g, err := h.spy.StartVoting(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error starting Spy vote")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": g.Status, "activePlayers": g.ActivePlayers()})
}

// Vote records a vote
func (h *SpyHandler) Vote(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.spy.SubmitVote(r.Context(), code, req.PlayerID, req.VotedForID)
	if err != nil {
		respondWithServiceError(w, err, "Error submitting Spy vote")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": g.Status, "results": g.Results.Redacted()})
}

// GameData returns the caller's view of the game
func (h *SpyHandler) GameData(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	view, err := h.spy.PlayerView(r.Context(), code, r.URL.Query().Get("playerId"))
	if err != nil {
		respondWithServiceError(w, err, "Error loading Spy game")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GuessStatus returns the state of the vote on the spy's guess
func (h *SpyHandler) GuessStatus(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	status, err := h.spy.GuessStatus(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error loading guess status")
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// GuessOptions returns the locations offered to the guessing spy
func (h *SpyHandler) GuessOptions(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	options, err := h.spy.GuessOptions(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error loading guess options")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"options": options})
}

// SubmitGuess records the eliminated spy's guess
func (h *SpyHandler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req guessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.spy.SubmitGuess(r.Context(), code, req.PlayerID, req.GuessedWord)
	if err != nil {
		respondWithServiceError(w, err, "Error submitting guess")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": g.Status})
}

// VoteGuess records a yes/no vote on the spy's guess
func (h *SpyHandler) VoteGuess(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req guessVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.RequireField("vote", string(req.Vote)); err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	g, err := h.spy.VoteOnGuess(r.Context(), code, req.PlayerID, req.Vote)
	if err != nil {
		respondWithServiceError(w, err, "Error submitting guess vote")
		return
	}

	resp := map[string]any{"status": g.Status}
	if g.SpyGuess != nil {
		resp["allVoted"] = g.SpyGuess.AllVoted
		resp["result"] = g.SpyGuess.Result
	}
	respondJSON(w, http.StatusOK, resp)
}
