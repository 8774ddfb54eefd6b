package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"partyrooms/internal/notify"

	"github.com/rs/zerolog/log"
)

// Options holds the tunables shared by the session services
type Options struct {
	RoomTTL          time.Duration
	GameTTL          time.Duration
	CASRetries       int
	RoomCodeAttempts int
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		RoomTTL:          24 * time.Hour,
		GameTTL:          2 * time.Hour,
		CASRetries:       8,
		RoomCodeAttempts: 10,
	}
}

type pendingEvent struct {
	name    string
	payload any
}

// outbox collects events during a read-modify-write cycle. It is reset on every
// attempt and flushed only once the write has landed.
type outbox struct {
	events []pendingEvent
}

func (o *outbox) reset() {
	o.events = o.events[:0]
}

func (o *outbox) add(name string, payload any) {
	o.events = append(o.events, pendingEvent{name: name, payload: payload})
}

// flush publishes the collected events in order. Delivery failures are logged, never returned.
func (o *outbox) flush(ctx context.Context, n notify.Notifier, roomCode string) {
	topic := notify.RoomTopic(roomCode)
	for _, e := range o.events {
		if err := n.Publish(ctx, topic, e.name, e.payload); err != nil {
			log.Warn().Err(err).Str("room", roomCode).Str("event", e.name).Msg("Failed to publish event")
		}
	}
	o.events = nil
}

func publish(ctx context.Context, n notify.Notifier, roomCode, event string, payload any) {
	var o outbox
	o.add(event, payload)
	o.flush(ctx, n, roomCode)
}

func jsonBytes(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return data, nil
}
