package handlers

import (
	"net/http"

	"partyrooms/internal/models"
	"partyrooms/internal/service"
)

// CrocodileHandler handles Crocodile game requests
type CrocodileHandler struct {
	crocodile *service.CrocodileService
}

// NewCrocodileHandler creates a new Crocodile handler
func NewCrocodileHandler(crocodile *service.CrocodileService) *CrocodileHandler {
	return &CrocodileHandler{crocodile: crocodile}
}

type crocodileStartRequest struct {
	Players  []string                  `json:"players"`
	Settings *models.CrocodileSettings `json:"settings"`
}

type completeTaskRequest struct {
	service.Actor
	Success bool `json:"success"`
}

// SaveSettings stores the room's settings
func (h *CrocodileHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	settings := models.DefaultCrocodileSettings()
	if !decodeJSON(w, r, &settings) {
		return
	}

	saved, err := h.crocodile.SaveSettings(r.Context(), code, settings)
	if err != nil {
		respondWithServiceError(w, err, "Error saving Crocodile settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": saved})
}

// Settings returns the room's settings
func (h *CrocodileHandler) Settings(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	settings, err := h.crocodile.Settings(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error loading Crocodile settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// Start begins a game
func (h *CrocodileHandler) Start(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req crocodileStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	g, err := h.crocodile.Start(r.Context(), code, req.Players, req.Settings)
	if err != nil {
		respondWithServiceError(w, err, "Error starting Crocodile game")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"gameData": g})
}

// ConfirmPlayer draws the current player's word
func (h *CrocodileHandler) ConfirmPlayer(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var actor service.Actor
	if !decodeJSON(w, r, &actor) {
		return
	}

	turn, err := h.crocodile.ConfirmTurn(r.Context(), code, actor)
	if err != nil {
		respondWithServiceError(w, err, "Error confirming Crocodile turn")
		return
	}
	respondJSON(w, http.StatusOK, turn)
}

// CompleteTask ends the current player's turn
func (h *CrocodileHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req completeTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.crocodile.CompleteTurn(r.Context(), code, req.Actor, req.Success)
	if err != nil {
		respondWithServiceError(w, err, "Error completing Crocodile turn")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GameData returns the current session
func (h *CrocodileHandler) GameData(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	g, err := h.crocodile.GetState(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error loading Crocodile game")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"gameData": g})
}
