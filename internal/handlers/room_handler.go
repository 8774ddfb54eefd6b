package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"partyrooms/internal/security"
	"partyrooms/internal/service"
	"partyrooms/internal/utils"

	"github.com/skip2/go-qrcode"
)

// QRCodeSize is the edge length of join QR images in pixels
const QRCodeSize = 256

// RoomHandler handles room membership requests
type RoomHandler struct {
	rooms         *service.RoomService
	email         *service.EmailService
	publicBaseURL string
}

// NewRoomHandler creates a new room handler. email may be disabled.
func NewRoomHandler(rooms *service.RoomService, email *service.EmailService, publicBaseURL string) *RoomHandler {
	return &RoomHandler{
		rooms:         rooms,
		email:         email,
		publicBaseURL: publicBaseURL,
	}
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type joinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type leaveRoomRequest struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type selectGameRequest struct {
	GameID string `json:"gameId"`
}

type inviteRequest struct {
	Email    string `json:"email"`
	HostName string `json:"hostName"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Create creates a room hosted by the caller
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.rooms.CreateRoom(r.Context(), req.PlayerName)
	if err != nil {
		respondWithServiceError(w, err, "Error creating room")
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// Join adds the caller to an existing room
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.rooms.JoinRoom(r.Context(), strings.TrimSpace(req.RoomCode), req.PlayerName)
	if err != nil {
		respondWithServiceError(w, err, "Error joining room")
		return
	}
	respondJSON(w, http.StatusOK, m)
}

// Leave removes a player from a room
func (h *RoomHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req leaveRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.rooms.Leave(r.Context(), strings.TrimSpace(req.RoomCode), req.PlayerID); err != nil {
		respondWithServiceError(w, err, "Error leaving room")
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// Players lists the room's players
func (h *RoomHandler) Players(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	players, err := h.rooms.ListPlayers(r.Context(), code)
	if err != nil {
		respondWithServiceError(w, err, "Error listing players")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"players": players})
}

// SelectGame opens a game's rules for the whole room
func (h *RoomHandler) SelectGame(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req selectGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.rooms.SelectGame(r.Context(), code, req.GameID); err != nil {
		respondWithServiceError(w, err, "Error selecting game")
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// Start moves the room on to game selection
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	if err := h.rooms.AnnounceStart(r.Context(), code); err != nil {
		respondWithServiceError(w, err, "Error starting room")
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *RoomHandler) joinURL(r *http.Request, code string) string {
	return security.BaseURL(r, h.publicBaseURL) + "/?room=" + url.QueryEscape(code)
}

// Invite e-mails a join link for the room
func (h *RoomHandler) Invite(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := utils.ValidateEmail(req.Email); err != nil {
		respondWithServiceError(w, err, "")
		return
	}
	hostName, err := utils.NormalizePlayerName(req.HostName)
	if err != nil {
		respondWithServiceError(w, err, "")
		return
	}

	if err := h.email.SendRoomInvite(r.Context(), strings.TrimSpace(req.Email), code, hostName, h.joinURL(r, code)); err != nil {
		respondWithServiceError(w, err, "Error sending invite")
		return
	}
	respondJSON(w, http.StatusAccepted, okResponse{OK: true})
}

// QRCode renders the room's join link as a PNG
func (h *RoomHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, code), qrcode.Medium, QRCodeSize)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
