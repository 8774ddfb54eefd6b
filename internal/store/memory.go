package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	version   int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store. It backs single-instance deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store using the wall clock
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty store reading time from now
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

// live returns the entry for key if it has not expired. Caller holds mu.
func (m *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) Get(ctx context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return Entry{}, nil
	}
	return Entry{Value: copyBytes(e.value), Version: e.version, ExpiresAt: e.expiresAt}, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, _ := m.live(key)
	return m.write(key, e.version, value, ttl), nil
}

func (m *MemoryStore) CompareAndSwap(ctx context.Context, key string, expected int64, value []byte, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, _ := m.live(key)
	if e.version != expected {
		return 0, ErrVersionConflict
	}
	return m.write(key, e.version, value, ttl), nil
}

func (m *MemoryStore) write(key string, prev int64, value []byte, ttl time.Duration) int64 {
	next := prev + 1
	m.entries[key] = memoryEntry{
		value:     copyBytes(value),
		version:   next,
		expiresAt: m.now().Add(ttl),
	}
	return next
}

func (m *MemoryStore) Forget(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// PurgeExpired drops expired entries and returns how many were removed
func (m *MemoryStore) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Keys lists live keys starting with prefix, sorted
func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var keys []string
	for key, e := range m.entries {
		if strings.HasPrefix(key, prefix) && now.Before(e.expiresAt) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Entries returns live records whose key starts with prefix, sorted by key
func (m *MemoryStore) Entries(ctx context.Context, prefix string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var records []Record
	for key, e := range m.entries {
		if !strings.HasPrefix(key, prefix) || !now.Before(e.expiresAt) {
			continue
		}
		records = append(records, Record{
			Key:       key,
			Value:     copyBytes(e.value),
			Version:   e.version,
			ExpiresAt: e.expiresAt,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })
	return records, nil
}

// Restore writes records verbatim, keeping their versions and expiry.
// Records that have already expired are skipped; the count of restored records is returned.
func (m *MemoryStore) Restore(ctx context.Context, records []Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	restored := 0
	for _, r := range records {
		if !now.Before(r.ExpiresAt) {
			continue
		}
		m.entries[r.Key] = memoryEntry{value: copyBytes(r.Value), version: r.Version, expiresAt: r.ExpiresAt}
		restored++
	}
	return restored, nil
}
