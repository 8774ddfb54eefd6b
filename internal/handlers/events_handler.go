package handlers

import (
	"errors"
	"net/http"
	"time"

	"partyrooms/internal/credentials"
	"partyrooms/internal/notify"

	"github.com/rs/zerolog/log"
)

// EventsHandler attaches clients to a room's event stream
type EventsHandler struct {
	hub     *notify.Hub
	tickets *credentials.TicketIssuer
}

// NewEventsHandler creates a new events handler. With a nil or disabled issuer
// subscriptions are anonymous unless a playerId query parameter is given.
func NewEventsHandler(hub *notify.Hub, tickets *credentials.TicketIssuer) *EventsHandler {
	return &EventsHandler{hub: hub, tickets: tickets}
}

// subscriber resolves the room code and the id of the connecting player
func (h *EventsHandler) subscriber(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	code, ok := roomCode(w, r)
	if !ok {
		return "", "", false
	}

	if !h.tickets.Enabled() {
		return code, r.URL.Query().Get("playerId"), true
	}

	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		respondWithError(w, http.StatusUnauthorized, ErrTicketRequired, "", nil)
		return "", "", false
	}
	room, playerID, err := h.tickets.Parse(ticket)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, ErrInvalidTicket, "Rejected event stream ticket", err)
		return "", "", false
	}
	if room != code {
		respondWithError(w, http.StatusForbidden, ErrInvalidTicket, "Ticket issued for another room", errors.New("room "+room+" != "+code))
		return "", "", false
	}
	return code, playerID, true
}

// WebSocket streams the room's events over a WebSocket
func (h *EventsHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	code, playerID, ok := h.subscriber(w, r)
	if !ok {
		return
	}
	h.hub.ServeWS(w, r, notify.RoomTopic(code), playerID)
}

// SSE streams the room's events as Server-Sent Events
func (h *EventsHandler) SSE(w http.ResponseWriter, r *http.Request) {
	code, playerID, ok := h.subscriber(w, r)
	if !ok {
		return
	}

	// The stream outlives the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Debug().Err(err).Msg("Could not clear write deadline for event stream")
	}
	h.hub.ServeSSE(w, r, notify.RoomTopic(code), playerID)
}

// Presence lists the players currently connected to the room's stream
func (h *EventsHandler) Presence(w http.ResponseWriter, r *http.Request) {
	code, ok := roomCode(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"connected": h.hub.Subscribers(notify.RoomTopic(code))})
}
