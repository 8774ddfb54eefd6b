package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(NewViper())

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, 24*time.Hour, cfg.RoomTTL)
	assert.Equal(t, 2*time.Hour, cfg.GameTTL)
	assert.Equal(t, 10, cfg.RoomCodeAttempts)
	require.NoError(t, cfg.Validate())
}

func TestFromViperEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "Memory")
	t.Setenv("GAME_TTL", "90m")
	t.Setenv("PUBLIC_BASE_URL", "https://party.example.com/")

	cfg := FromViper(NewViper())

	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, 90*time.Minute, cfg.GameTTL)
	assert.Equal(t, "https://party.example.com", cfg.PublicBaseURL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "postgres without url", mutate: func(c *Config) { c.DatabaseType = "postgres" }, wantErr: true},
		{name: "mysql with url", mutate: func(c *Config) {
			c.DatabaseType = "mysql"
			c.DatabaseURL = "user:pass@tcp(localhost:3306)/party"
		}},
		{name: "unknown type", mutate: func(c *Config) { c.DatabaseType = "redis" }, wantErr: true},
		{name: "zero game ttl", mutate: func(c *Config) { c.GameTTL = 0 }, wantErr: true},
		{name: "no code attempts", mutate: func(c *Config) { c.RoomCodeAttempts = 0 }, wantErr: true},
		{name: "no cas retries", mutate: func(c *Config) { c.CASRetries = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromViper(NewViper())
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
