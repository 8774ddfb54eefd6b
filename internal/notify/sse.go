package notify

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HeartbeatInterval is how often an idle event stream gets a comment line
const HeartbeatInterval = 25 * time.Second

// ServeSSE streams topic's events as Server-Sent Events until the client disconnects
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, topic, playerID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable buffering in nginx/proxies
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.Subscribe(topic, playerID)
	defer h.Unsubscribe(topic, sub)
	log.Info().Str("topic", topic).Str("player_id", playerID).Msg("SSE client connected")

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("topic", topic).Str("player_id", playerID).Msg("SSE client disconnected")
			return
		case <-sub.Done():
			return
		case msg := <-sub.C():
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Payload); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
