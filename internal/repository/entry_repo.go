package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"partyrooms/internal/database"
	"partyrooms/internal/store"
)

// EntryRepository is the SQL-backed store.Store. Rows live in kv_entries and
// expiry is stored as unix milliseconds.
type EntryRepository struct {
	db  *database.DB
	now func() time.Time
}

var (
	_ store.Store      = (*EntryRepository)(nil)
	_ store.Maintainer = (*EntryRepository)(nil)
)

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{db: db, now: time.Now}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Get retrieves the live entry for key
func (r *EntryRepository) Get(ctx context.Context, key string) (store.Entry, error) {
	query := "SELECT entry_value, version, expires_at FROM kv_entries WHERE entry_key = ? AND expires_at > ?"

	var value string
	var entry store.Entry
	var expiresAt int64
	err := r.db.QueryRowContext(ctx, query, key, toMillis(r.now())).Scan(&value, &entry.Version, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entry{}, nil
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("failed to get entry %s: %w", key, err)
	}

	entry.Value = []byte(value)
	entry.ExpiresAt = fromMillis(expiresAt)
	return entry, nil
}

// Put writes value unconditionally. An expired row is replaced and restarts at version 1.
func (r *EntryRepository) Put(ctx context.Context, key string, value []byte, ttl time.Duration) (int64, error) {
	now := r.now()
	var version int64

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := deleteExpired(ctx, tx, key, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, tx.Dialect().UpsertEntryQuery(), key, string(value), toMillis(now.Add(ttl))); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx, "SELECT version FROM kv_entries WHERE entry_key = ?", key).Scan(&version)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to put entry %s: %w", key, err)
	}
	return version, nil
}

// CompareAndSwap writes value only if the stored version equals expected
func (r *EntryRepository) CompareAndSwap(ctx context.Context, key string, expected int64, value []byte, ttl time.Duration) (int64, error) {
	now := r.now()
	expiresAt := toMillis(now.Add(ttl))

	if expected == 0 {
		return r.insertIfAbsent(ctx, key, value, now, expiresAt)
	}

	query := `UPDATE kv_entries SET entry_value = ?, version = version + 1, expires_at = ?
		WHERE entry_key = ? AND version = ? AND expires_at > ?`
	result, err := r.db.ExecContext(ctx, query, string(value), expiresAt, key, expected, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to update entry %s: %w", key, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to update entry %s: %w", key, err)
	}
	if rows == 0 {
		return 0, store.ErrVersionConflict
	}
	return expected + 1, nil
}

func (r *EntryRepository) insertIfAbsent(ctx context.Context, key string, value []byte, now time.Time, expiresAt int64) (int64, error) {
	inserted := false

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := deleteExpired(ctx, tx, key, now); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, tx.Dialect().InsertEntryIfAbsentQuery(), key, string(value), 1, expiresAt)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		inserted = rows > 0
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry %s: %w", key, err)
	}
	if !inserted {
		return 0, store.ErrVersionConflict
	}
	return 1, nil
}

func deleteExpired(ctx context.Context, tx *database.Tx, key string, now time.Time) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM kv_entries WHERE entry_key = ? AND expires_at <= ?", key, toMillis(now))
	return err
}

// Forget deletes key
func (r *EntryRepository) Forget(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE entry_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes every expired row and returns how many were removed
func (r *EntryRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE expires_at <= ?", toMillis(r.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired entries: %w", err)
	}
	return result.RowsAffected()
}

// Keys lists live keys starting with prefix
func (r *EntryRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	records, err := r.Entries(ctx, prefix)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.Key)
	}
	return keys, nil
}

// Entries returns live rows whose key starts with prefix, ordered by key
func (r *EntryRepository) Entries(ctx context.Context, prefix string) ([]store.Record, error) {
	// LIKE treats _ as a wildcard, so the prefix is re-checked below
	query := `SELECT entry_key, entry_value, version, expires_at FROM kv_entries
		WHERE entry_key LIKE ? AND expires_at > ? ORDER BY entry_key`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%", toMillis(r.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		var rec store.Record
		var value string
		var expiresAt int64
		if err := rows.Scan(&rec.Key, &value, &rec.Version, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if !strings.HasPrefix(rec.Key, prefix) {
			continue
		}
		rec.Value = []byte(value)
		rec.ExpiresAt = fromMillis(expiresAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Restore writes records verbatim in one transaction, skipping those already expired
func (r *EntryRepository) Restore(ctx context.Context, records []store.Record) (int, error) {
	now := r.now()
	restored := 0

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		query := tx.Dialect().ReplaceEntryQuery()
		for _, rec := range records {
			if !now.Before(rec.ExpiresAt) {
				continue
			}
			if _, err := tx.ExecContext(ctx, query, rec.Key, string(rec.Value), rec.Version, toMillis(rec.ExpiresAt)); err != nil {
				return fmt.Errorf("failed to restore %s: %w", rec.Key, err)
			}
			restored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return restored, nil
}
