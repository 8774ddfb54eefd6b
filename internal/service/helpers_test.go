package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"partyrooms/internal/content"
	"partyrooms/internal/store"
)

type recordedEvent struct {
	Topic   string
	Event   string
	Payload any
}

// recordingNotifier keeps every published event in order
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, topic, event string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Topic: topic, Event: event, Payload: payload})
	return n.err
}

func (n *recordingNotifier) Names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	names := make([]string, 0, len(n.events))
	for _, e := range n.events {
		names = append(names, e.Event)
	}
	return names
}

func (n *recordingNotifier) Count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, e := range n.events {
		if e.Event == event {
			count++
		}
	}
	return count
}

// Last returns the payload of the most recent event with the given name
func (n *recordingNotifier) Last(event string) (any, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Event == event {
			return n.events[i].Payload, true
		}
	}
	return nil, false
}

func (n *recordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// lockedRand makes a seeded generator safe for concurrent tests
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newTestRand(seed uint64) *lockedRand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed+1))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

var testNow = time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.CASRetries = 50
	return opts
}

type testEnv struct {
	store     *store.MemoryStore
	notifier  *recordingNotifier
	rooms     *RoomService
	crocodile *CrocodileService
	spy       *SpyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.NewMemoryStore()
	n := &recordingNotifier{}
	r := newTestRand(42)
	tables := content.Default()

	croc := NewCrocodileService(s, n, tables, r, testOptions())
	croc.now = func() time.Time { return testNow }
	spy := NewSpyService(s, n, tables, r, testOptions())
	spy.now = func() time.Time { return testNow }

	return &testEnv{
		store:     s,
		notifier:  n,
		rooms:     NewRoomService(s, n, nil, r, testOptions()),
		crocodile: croc,
		spy:       spy,
	}
}
