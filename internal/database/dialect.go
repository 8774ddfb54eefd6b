package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect covers what differs between the supported databases
type Dialect interface {
	DriverName() string
	DSN(config DialectConfig) string

	// RewriteQuery converts ? placeholders where the driver wants something else
	RewriteQuery(query string) string
	ConfigureConnection(db *sql.DB) error

	MigrationsSubdir() string
	CreateMigrationsTableQuery() string

	// InsertEntryIfAbsentQuery inserts (key, value, version, expires_at) into
	// kv_entries, affecting no rows when the key already exists
	InsertEntryIfAbsentQuery() string
	// UpsertEntryQuery writes (key, value, expires_at) at version 1, or
	// overwrites an existing row and bumps its version
	UpsertEntryQuery() string
	// ReplaceEntryQuery writes (key, value, version, expires_at) verbatim
	ReplaceEntryQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// sqlDialect is a Dialect described entirely by data
type sqlDialect struct {
	driver          string
	subdir          string
	numbered        bool
	fileDSN         string
	pragmas         []string
	migrationsTable string
	insertIfAbsent  string
	upsert          string
	replace         string
}

func (d *sqlDialect) DriverName() string       { return d.driver }
func (d *sqlDialect) MigrationsSubdir() string { return d.subdir }

func (d *sqlDialect) DSN(config DialectConfig) string {
	if d.fileDSN != "" {
		return config.Path + d.fileDSN
	}
	return config.URL
}

func (d *sqlDialect) RewriteQuery(query string) string {
	if !d.numbered {
		return query
	}
	return rewritePlaceholdersToNumbered(query)
}

func (d *sqlDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	for _, pragma := range d.pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

func (d *sqlDialect) CreateMigrationsTableQuery() string { return d.migrationsTable }
func (d *sqlDialect) InsertEntryIfAbsentQuery() string   { return d.insertIfAbsent }
func (d *sqlDialect) UpsertEntryQuery() string           { return d.upsert }
func (d *sqlDialect) ReplaceEntryQuery() string          { return d.replace }

// NewSQLiteDialect returns the dialect for mattn/go-sqlite3
func NewSQLiteDialect() Dialect {
	return &sqlDialect{
		driver: "sqlite3",
		subdir: "sqlite",
		// Concurrent writers wait for the lock instead of failing
		fileDSN: "?_busy_timeout=5000",
		pragmas: []string{"PRAGMA journal_mode=WAL;"},
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		insertIfAbsent: onConflictInsertEntry,
		upsert:         onConflictUpsertEntry,
		replace:        onConflictReplaceEntry,
	}
}

// NewPostgresDialect returns the dialect for lib/pq
func NewPostgresDialect() Dialect {
	return &sqlDialect{
		driver:   "postgres",
		subdir:   "postgres",
		numbered: true,
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		insertIfAbsent: onConflictInsertEntry,
		upsert:         onConflictUpsertEntry,
		replace:        onConflictReplaceEntry,
	}
}

// NewMySQLDialect returns the dialect for go-sql-driver/mysql
func NewMySQLDialect() Dialect {
	return &sqlDialect{
		driver: "mysql",
		subdir: "mysql",
		migrationsTable: `CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		)`,
		insertIfAbsent: "INSERT IGNORE INTO kv_entries (entry_key, entry_value, version, expires_at) VALUES (?, ?, ?, ?)",
		upsert: "INSERT INTO kv_entries (entry_key, entry_value, version, expires_at) VALUES (?, ?, 1, ?) " +
			"ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), version = version + 1, expires_at = VALUES(expires_at)",
		replace: "INSERT INTO kv_entries (entry_key, entry_value, version, expires_at) VALUES (?, ?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value), version = VALUES(version), expires_at = VALUES(expires_at)",
	}
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// SQLite and PostgreSQL share the ON CONFLICT forms
const (
	onConflictInsertEntry = `INSERT INTO kv_entries (entry_key, entry_value, version, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entry_key) DO NOTHING`

	onConflictUpsertEntry = `INSERT INTO kv_entries (entry_key, entry_value, version, expires_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (entry_key) DO UPDATE SET
			entry_value = excluded.entry_value,
			version = kv_entries.version + 1,
			expires_at = excluded.expires_at`

	onConflictReplaceEntry = `INSERT INTO kv_entries (entry_key, entry_value, version, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (entry_key) DO UPDATE SET
			entry_value = excluded.entry_value,
			version = excluded.version,
			expires_at = excluded.expires_at`
)
