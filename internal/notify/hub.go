package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Notifier delivers an event to everyone subscribed to a topic
type Notifier interface {
	Publish(ctx context.Context, topic, event string, payload any) error
}

// RoomTopic is the topic all of a room's events are published on
func RoomTopic(code string) string {
	return "room." + code
}

// Envelope is the wire form of a published event
type Envelope struct {
	Event string          `json:"event"`
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

type discard struct{}

func (discard) Publish(context.Context, string, string, any) error { return nil }

// Discard drops every event
var Discard Notifier = discard{}

// DefaultBufferSize is how many undelivered messages a subscriber may queue
const DefaultBufferSize = 16

// Message is one encoded envelope queued for a subscriber
type Message struct {
	Event   string
	Payload []byte
}

// Subscriber is one connected listener on a topic
type Subscriber struct {
	PlayerID string
	send     chan Message
	done     chan struct{}
	once     sync.Once
}

// C delivers encoded envelopes
func (s *Subscriber) C() <-chan Message {
	return s.send
}

// Done is closed once the hub has dropped the subscriber
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans published events out to in-process subscribers
type Hub struct {
	mu          sync.RWMutex
	topics      map[string]map[*Subscriber]struct{}
	sendTimeout time.Duration
	bufferSize  int
}

// NewHub creates a hub. A subscriber that cannot take a message within sendTimeout is dropped.
func NewHub(sendTimeout time.Duration) *Hub {
	return &Hub{
		topics:      make(map[string]map[*Subscriber]struct{}),
		sendTimeout: sendTimeout,
		bufferSize:  DefaultBufferSize,
	}
}

// Subscribe registers a listener for topic
func (h *Hub) Subscribe(topic, playerID string) *Subscriber {
	sub := &Subscriber{
		PlayerID: playerID,
		send:     make(chan Message, h.bufferSize),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	log.Debug().Str("topic", topic).Str("player_id", playerID).Int("subscribers", len(subs)).Msg("Subscriber added")
	return sub
}

// Unsubscribe removes a listener. It is safe to call more than once.
func (h *Hub) Unsubscribe(topic string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(topic, sub)
}

func (h *Hub) removeLocked(topic string, sub *Subscriber) {
	sub.stop()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Subscribers returns the sorted, de-duplicated player ids listening on topic
func (h *Hub) Subscribers(topic string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	ids := []string{}
	for sub := range h.topics[topic] {
		if sub.PlayerID == "" || seen[sub.PlayerID] {
			continue
		}
		seen[sub.PlayerID] = true
		ids = append(ids, sub.PlayerID)
	}
	sort.Strings(ids)
	return ids
}

// Publish encodes the event once and hands it to every subscriber of topic.
// Delivery is best effort; slow subscribers are dropped rather than blocking the publisher.
func (h *Hub) Publish(ctx context.Context, topic, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	encoded, err := json.Marshal(Envelope{Event: event, Topic: topic, Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", event, err)
	}
	msg := Message{Event: event, Payload: encoded}

	// Collect subscribers while holding the lock, send without it
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.topics[topic]))
	for sub := range h.topics[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if h.deliver(ctx, sub, msg) {
			delivered++
			continue
		}
		log.Warn().Str("topic", topic).Str("event", event).Str("player_id", sub.PlayerID).Msg("Dropping slow subscriber")
		h.Unsubscribe(topic, sub)
	}

	log.Debug().Str("topic", topic).Str("event", event).Int("delivered", delivered).Int("subscribers", len(subs)).Msg("Event published")
	return nil
}

func (h *Hub) deliver(ctx context.Context, sub *Subscriber, msg Message) bool {
	select {
	case sub.send <- msg:
		return true
	case <-sub.done:
		return true
	default:
	}

	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()

	select {
	case sub.send <- msg:
		return true
	case <-sub.done:
		// Already gone; nothing to drop
		return true
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}

// Close drops every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.topics {
		for sub := range subs {
			sub.stop()
		}
		delete(h.topics, topic)
	}
}
