package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrVersionConflict is returned by CompareAndSwap when the stored version differs from the expected one
	ErrVersionConflict = errors.New("version conflict")
	// ErrContention is returned by Update when every attempt lost a race
	ErrContention = errors.New("too much contention, try again")
	// ErrSkipWrite can be returned from an Update mutate function to finish without writing
	ErrSkipWrite = errors.New("skip write")
)

// Entry is a stored value. Version is 0 when the key is absent or expired.
type Entry struct {
	Value     []byte
	Version   int64
	ExpiresAt time.Time
}

// Exists reports whether the entry holds a live value
func (e Entry) Exists() bool {
	return e.Version > 0
}

// Store is a shared key/value store with per-key expiry and optimistic versioning.
// Versions start at 1 and grow by one on every successful write to a key.
type Store interface {
	// Get returns the live entry for key, or a zero Entry if it is absent or expired
	Get(ctx context.Context, key string) (Entry, error)
	// Put unconditionally writes value with the given time to live
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) (int64, error)
	// CompareAndSwap writes only if the stored version equals expected.
	// An expected version of 0 means the key must be absent or expired.
	CompareAndSwap(ctx context.Context, key string, expected int64, value []byte, ttl time.Duration) (int64, error)
	// Forget removes key. Removing a missing key is not an error.
	Forget(ctx context.Context, key string) error
}

// RoomPlayersKey holds a room's roster
func RoomPlayersKey(code string) string {
	return "room_" + code + "_players"
}

// GameKey holds the state of a game in a room
func GameKey(game, code string) string {
	return game + "_game_" + code
}

// SpyReadyToStartKey holds the players ready to start a spy game
func SpyReadyToStartKey(code string) string {
	return "spy_ready_to_start_" + code
}

// CrocodileSettingsKey holds a room's crocodile settings
func CrocodileSettingsKey(code string) string {
	return "crocodile_settings_" + code
}

// GetJSON loads key into v. It returns the entry version, which is 0 when nothing is stored.
func GetJSON(ctx context.Context, s Store, key string, v any) (int64, error) {
	entry, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !entry.Exists() {
		return 0, nil
	}
	if err := json.Unmarshal(entry.Value, v); err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return entry.Version, nil
}

// PutJSON unconditionally stores v under key
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data, ttl)
}

// Update runs a read-modify-write cycle on a JSON value under optimistic concurrency.
// mutate receives a fresh zero T and a flag telling whether a value was stored; it is
// called again after every lost race, so it must not have side effects outside of v.
// Returning ErrSkipWrite ends the cycle without writing and without error.
func Update[T any](ctx context.Context, s Store, key string, ttl time.Duration, retries int, mutate func(v *T, exists bool) error) (T, error) {
	if retries < 1 {
		retries = 1
	}

	var zero T
	for attempt := 0; attempt < retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		var value T
		version, err := GetJSON(ctx, s, key, &value)
		if err != nil {
			return zero, err
		}

		if err := mutate(&value, version > 0); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return value, nil
			}
			return zero, err
		}

		data, err := json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("failed to encode %s: %w", key, err)
		}

		_, err = s.CompareAndSwap(ctx, key, version, data, ttl)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return zero, err
		}
	}

	return zero, ErrContention
}

// Record is an entry together with its key, as exported by snapshots
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Version   int64           `json:"version"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Maintainer is implemented by stores that support housekeeping and inspection
type Maintainer interface {
	PurgeExpired(ctx context.Context) (int64, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
	Entries(ctx context.Context, prefix string) ([]Record, error)
	Restore(ctx context.Context, records []Record) (int, error)
}
