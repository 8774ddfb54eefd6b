package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"partyrooms/internal/store"

	"github.com/rs/zerolog/log"
)

// Snapshot is the export format of the live store contents
type Snapshot struct {
	ExportedAt time.Time      `json:"exportedAt"`
	Entries    []store.Record `json:"entries"`
}

// SnapshotService exports and restores live room and game state
type SnapshotService struct {
	store store.Maintainer
	now   func() time.Time
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(m store.Maintainer) *SnapshotService {
	return &SnapshotService{store: m, now: time.Now}
}

// Export writes every live entry to w as indented JSON
func (s *SnapshotService) Export(ctx context.Context, w io.Writer) (int, error) {
	entries, err := s.store.Entries(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to read entries: %w", err)
	}
	if entries == nil {
		entries = []store.Record{}
	}

	snapshot := Snapshot{
		ExportedAt: s.now().UTC(),
		Entries:    entries,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	log.Info().Int("entries", len(entries)).Msg("Snapshot exported")
	return len(entries), nil
}

// Import restores the entries of a snapshot read from r. Entries that have
// expired since the export are skipped.
func (s *SnapshotService) Import(ctx context.Context, r io.Reader) (int, error) {
	var snapshot Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return 0, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	now := s.now()
	live := make([]store.Record, 0, len(snapshot.Entries))
	for _, rec := range snapshot.Entries {
		if rec.ExpiresAt.After(now) {
			live = append(live, rec)
		}
	}

	restored, err := s.store.Restore(ctx, live)
	if err != nil {
		return 0, fmt.Errorf("failed to restore entries: %w", err)
	}

	log.Info().Int("restored", restored).Int("skipped", len(snapshot.Entries)-len(live)).Msg("Snapshot imported")
	return restored, nil
}
