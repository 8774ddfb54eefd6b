package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"partyrooms/internal/config"
	"partyrooms/internal/content"
	"partyrooms/internal/credentials"
	"partyrooms/internal/database"
	"partyrooms/internal/game"
	"partyrooms/internal/handlers"
	"partyrooms/internal/logger"
	"partyrooms/internal/notify"
	"partyrooms/internal/repository"
	"partyrooms/internal/security"
	"partyrooms/internal/service"
	"partyrooms/internal/store"

	"github.com/rs/zerolog/log"
)

// backend is a store that also supports housekeeping
type backend interface {
	store.Store
	store.Maintainer
}

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogPretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage and word tables
	kv, tables, closeDB := openBackend(ctx, cfg)
	defer closeDB()

	// Shared infrastructure
	hub := notify.NewHub(cfg.NotifySendTimeout)
	defer hub.Close()

	tickets := credentials.NewTicketIssuer(cfg.TicketSecret, cfg.TicketTTL)
	if !tickets.Enabled() {
		log.Warn().Msg("TICKET_SECRET not set, event streams accept any subscriber")
	}
	rnd := game.NewCryptoRand()
	opts := service.Options{
		RoomTTL:          cfg.RoomTTL,
		GameTTL:          cfg.GameTTL,
		CASRetries:       cfg.CASRetries,
		RoomCodeAttempts: cfg.RoomCodeAttempts,
	}

	// Initialize services
	roomService := service.NewRoomService(kv, hub, tickets, rnd, opts)
	crocodileService := service.NewCrocodileService(kv, hub, tables, rnd, opts)
	spyService := service.NewSpyService(kv, hub, tables, rnd, opts)

	emailService, err := service.NewEmailService(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize e-mail service, invites disabled")
		emailService = nil
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	routes := &handlers.Handlers{
		Rooms:      handlers.NewRoomHandler(roomService, emailService, cfg.PublicBaseURL),
		Crocodile:  handlers.NewCrocodileHandler(crocodileService),
		Spy:        handlers.NewSpyHandler(spyService),
		Events:     handlers.NewEventsHandler(hub, tickets),
		Middleware: handlers.NewMiddleware(limiter),
	}

	mux := http.NewServeMux()
	routes.Register(mux)

	// Background housekeeping
	go limiter.Run(ctx, time.Minute)
	go purgeExpired(ctx, kv, cfg.PurgeInterval)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("store", cfg.DatabaseType).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// openBackend returns the configured store and the content tables to play with.
// The returned func releases the database, if one was opened.
func openBackend(ctx context.Context, cfg *config.Config) (backend, *content.Tables, func()) {
	if cfg.UsesMemoryStore() {
		log.Warn().Msg("Using in-memory store, state is lost on restart and not shared between instances")
		return store.NewMemoryStore(), content.Default(), func() {}
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Migrations completed successfully")

	if err := db.SeedContent(ctx, content.Default()); err != nil {
		log.Warn().Err(err).Msg("Failed to seed content")
	}

	tables, err := repository.NewContentRepository(db).Load(ctx)
	if err != nil || !tables.Complete() {
		log.Warn().Err(err).Msg("Stored content unusable, falling back to built-in tables")
		tables = content.Default()
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
	return repository.NewEntryRepository(db), tables, closeDB
}

// purgeExpired periodically removes expired store entries
func purgeExpired(ctx context.Context, m store.Maintainer, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.PurgeExpired(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Error purging expired entries")
				continue
			}
			log.Debug().Int64("purged", n).Msg("Expired entries purged")
		}
	}
}
