package handlers

import "net/http"

// Handlers bundles everything the route table needs
type Handlers struct {
	Rooms      *RoomHandler
	Crocodile  *CrocodileHandler
	Spy        *SpyHandler
	Events     *EventsHandler
	Middleware *Middleware
}

// Register adds every route to mux. Mutating routes are rate limited.
func (h *Handlers) Register(mux *http.ServeMux) {
	limit := h.Middleware.RateLimit

	mux.HandleFunc("GET /healthz", Health)

	// Room routes
	mux.HandleFunc("POST /room/create", limit(h.Rooms.Create))
	mux.HandleFunc("POST /room/join", limit(h.Rooms.Join))
	mux.HandleFunc("POST /room/leave", limit(h.Rooms.Leave))
	mux.HandleFunc("GET /room/{code}/players", h.Rooms.Players)
	mux.HandleFunc("POST /room/{code}/select", limit(h.Rooms.SelectGame))
	mux.HandleFunc("POST /room/{code}/start", limit(h.Rooms.Start))
	mux.HandleFunc("POST /room/{code}/invite", limit(h.Rooms.Invite))
	mux.HandleFunc("GET /room/{code}/qr.png", h.Rooms.QRCode)

	// Event streams
	mux.HandleFunc("GET /room/{code}/events/ws", h.Events.WebSocket)
	mux.HandleFunc("GET /room/{code}/events/sse", h.Events.SSE)
	mux.HandleFunc("GET /room/{code}/presence", h.Events.Presence)

	// Crocodile routes
	mux.HandleFunc("GET /room/{code}/crocodile/settings", h.Crocodile.Settings)
	mux.HandleFunc("POST /room/{code}/crocodile/settings", limit(h.Crocodile.SaveSettings))
	mux.HandleFunc("POST /room/{code}/crocodile/start", limit(h.Crocodile.Start))
	mux.HandleFunc("POST /room/{code}/crocodile/confirm-player", limit(h.Crocodile.ConfirmPlayer))
	mux.HandleFunc("POST /room/{code}/crocodile/complete-task", limit(h.Crocodile.CompleteTask))
	mux.HandleFunc("GET /room/{code}/crocodile/game-data", h.Crocodile.GameData)

	// Spy routes
	mux.HandleFunc("POST /room/{code}/spy/ready-to-start", limit(h.Spy.ReadyToStart))
	mux.HandleFunc("POST /room/{code}/spy/start", limit(h.Spy.Start))
	mux.HandleFunc("POST /room/{code}/spy/ready-to-vote", limit(h.Spy.ReadyToVote))
	mux.HandleFunc("POST /room/{code}/spy/start-voting", limit(h.Spy.StartVoting))
	mux.HandleFunc("POST /room/{code}/spy/vote", limit(h.Spy.Vote))
	mux.HandleFunc("GET /room/{code}/spy/game-data", h.Spy.GameData)
	mux.HandleFunc("GET /room/{code}/spy/guess-status", h.Spy.GuessStatus)
	mux.HandleFunc("GET /room/{code}/spy/guess-options", h.Spy.GuessOptions)
	mux.HandleFunc("POST /room/{code}/spy/submit-guess", limit(h.Spy.SubmitGuess))
	mux.HandleFunc("POST /room/{code}/spy/vote-guess", limit(h.Spy.VoteGuess))
}
