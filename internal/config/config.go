package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	DatabaseType   string
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	RoomTTL          time.Duration
	GameTTL          time.Duration
	PurgeInterval    time.Duration
	RoomCodeAttempts int
	CASRetries       int

	TicketSecret  string
	TicketTTL     time.Duration
	PublicBaseURL string

	RateLimitRPS   float64
	RateLimitBurst int

	SESRegion    string
	SESFromEmail string
	SESFromName  string

	LogLevel          string
	LogPretty         bool
	NotifySendTimeout time.Duration
}

var defaults = map[string]any{
	"PORT":                "8080",
	"DATABASE_TYPE":       "sqlite",
	"DB_PATH":             "./partyrooms.db",
	"DATABASE_URL":        "",
	"MIGRATIONS_PATH":     "./migrations",
	"ROOM_TTL":            24 * time.Hour,
	"GAME_TTL":            2 * time.Hour,
	"PURGE_INTERVAL":      15 * time.Minute,
	"ROOM_CODE_ATTEMPTS":  10,
	"CAS_RETRIES":         8,
	"TICKET_SECRET":       "",
	"TICKET_TTL":          24 * time.Hour,
	"PUBLIC_BASE_URL":     "",
	"RATE_LIMIT_RPS":      10.0,
	"RATE_LIMIT_BURST":    20,
	"SES_REGION":          "eu-west-1",
	"SES_FROM_EMAIL":      "",
	"SES_FROM_NAME":       "Party Rooms",
	"LOG_LEVEL":           "info",
	"LOG_PRETTY":          true,
	"NOTIFY_SEND_TIMEOUT": 2 * time.Second,
}

// Load reads configuration from a .env file (if present) and environment variables with sensible defaults
func Load() *Config {
	// A missing .env file is normal outside development
	_ = godotenv.Load()

	return FromViper(NewViper())
}

// NewViper returns a viper instance bound to the environment with all defaults registered
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) *Config {
	return &Config{
		ServerPort:        v.GetString("PORT"),
		DatabaseType:      strings.ToLower(v.GetString("DATABASE_TYPE")),
		DatabasePath:      v.GetString("DB_PATH"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		MigrationsPath:    v.GetString("MIGRATIONS_PATH"),
		RoomTTL:           v.GetDuration("ROOM_TTL"),
		GameTTL:           v.GetDuration("GAME_TTL"),
		PurgeInterval:     v.GetDuration("PURGE_INTERVAL"),
		RoomCodeAttempts:  v.GetInt("ROOM_CODE_ATTEMPTS"),
		CASRetries:        v.GetInt("CAS_RETRIES"),
		TicketSecret:      v.GetString("TICKET_SECRET"),
		TicketTTL:         v.GetDuration("TICKET_TTL"),
		PublicBaseURL:     strings.TrimSuffix(v.GetString("PUBLIC_BASE_URL"), "/"),
		RateLimitRPS:      v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:    v.GetInt("RATE_LIMIT_BURST"),
		SESRegion:         v.GetString("SES_REGION"),
		SESFromEmail:      v.GetString("SES_FROM_EMAIL"),
		SESFromName:       v.GetString("SES_FROM_NAME"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogPretty:         v.GetBool("LOG_PRETTY"),
		NotifySendTimeout: v.GetDuration("NOTIFY_SEND_TIMEOUT"),
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	switch c.DatabaseType {
	case "sqlite", "sqlite3", "memory":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for database type %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if c.RoomTTL <= 0 || c.GameTTL <= 0 {
		return errors.New("ROOM_TTL and GAME_TTL must be positive")
	}
	if c.RoomCodeAttempts < 1 {
		return errors.New("ROOM_CODE_ATTEMPTS must be at least 1")
	}
	if c.CASRetries < 1 {
		return errors.New("CAS_RETRIES must be at least 1")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// UsesMemoryStore reports whether state should live in process memory only
func (c *Config) UsesMemoryStore() bool {
	return c.DatabaseType == "memory"
}
