package database

import (
	"context"
	"fmt"

	"partyrooms/internal/content"

	"github.com/rs/zerolog/log"
)

// SeedContent populates content_items from tables when it is empty
func (db *DB) SeedContent(ctx context.Context, tables *content.Tables) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM content_items").Scan(&count); err != nil {
		return fmt.Errorf("failed to check content count: %w", err)
	}
	if count > 0 {
		log.Debug().Int("items", count).Msg("Content already seeded")
		return nil
	}

	added := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO content_items (kind, text) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare content insert: %w", err)
		}
		defer stmt.Close()

		for _, kind := range content.Kinds {
			for _, text := range tables.ByKind(kind) {
				if _, err := stmt.ExecContext(ctx, kind, text); err != nil {
					return fmt.Errorf("failed to insert %s %q: %w", kind, text, err)
				}
				added++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("items", added).Msg("Content seeded")
	return nil
}
