package database

import (
	"strings"
	"testing"
)

func TestDialects(t *testing.T) {
	tests := []struct {
		name       string
		dialect    Dialect
		driver     string
		subdir     string
		insertHint string
	}{
		{name: "SQLite", dialect: NewSQLiteDialect(), driver: "sqlite3", subdir: "sqlite", insertHint: "ON CONFLICT (entry_key) DO NOTHING"},
		{name: "PostgreSQL", dialect: NewPostgresDialect(), driver: "postgres", subdir: "postgres", insertHint: "ON CONFLICT (entry_key) DO NOTHING"},
		{name: "MySQL", dialect: NewMySQLDialect(), driver: "mysql", subdir: "mysql", insertHint: "INSERT IGNORE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.DriverName(); got != tt.driver {
				t.Errorf("DriverName() = %v, want %v", got, tt.driver)
			}
			if got := tt.dialect.MigrationsSubdir(); got != tt.subdir {
				t.Errorf("MigrationsSubdir() = %v, want %v", got, tt.subdir)
			}
			if got := tt.dialect.InsertEntryIfAbsentQuery(); !strings.Contains(got, tt.insertHint) {
				t.Errorf("InsertEntryIfAbsentQuery() = %q, want it to contain %q", got, tt.insertHint)
			}
			if got := tt.dialect.UpsertEntryQuery(); !strings.Contains(got, "version + 1") {
				t.Errorf("UpsertEntryQuery() = %q, must bump the version", got)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		input   string
		driver  string
		wantErr bool
	}{
		{input: "sqlite", driver: "sqlite3"},
		{input: "", driver: "sqlite3"},
		{input: "PostgreSQL", driver: "postgres"},
		{input: "postgres", driver: "postgres"},
		{input: "mysql", driver: "mysql"},
		{input: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dialect, err := DialectFor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DialectFor(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor(%q) unexpected error: %v", tt.input, err)
			}
			if dialect.DriverName() != tt.driver {
				t.Errorf("DialectFor(%q) driver = %v, want %v", tt.input, dialect.DriverName(), tt.driver)
			}
		})
	}
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT entry_value FROM kv_entries WHERE entry_key = ?",
			expected: "SELECT entry_value FROM kv_entries WHERE entry_key = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT entry_value FROM kv_entries WHERE entry_key = ?",
			expected: "SELECT entry_value FROM kv_entries WHERE entry_key = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "UPDATE kv_entries SET entry_value = ? WHERE entry_key = ? AND version = ?",
			expected: "UPDATE kv_entries SET entry_value = $1 WHERE entry_key = $2 AND version = $3",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "DELETE FROM kv_entries WHERE expires_at <= ?",
			expected: "DELETE FROM kv_entries WHERE expires_at <= ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}
