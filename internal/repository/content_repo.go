package repository

import (
	"context"
	"fmt"

	"partyrooms/internal/content"
	"partyrooms/internal/database"
)

// ContentRepository reads the word and location tables
type ContentRepository struct {
	db *database.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *database.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Load reads every content row into tables, preserving insertion order
func (r *ContentRepository) Load(ctx context.Context) (*content.Tables, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, text FROM content_items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	defer rows.Close()

	tables := &content.Tables{}
	for rows.Next() {
		var kind, text string
		if err := rows.Scan(&kind, &text); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		tables.Append(kind, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return tables, nil
}

// Count returns how many rows of each kind are stored
func (r *ContentRepository) Count(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM content_items GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count content: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan content count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
