package main

import (
	"context"
	"errors"
	"fmt"

	"partyrooms/internal/config"
	"partyrooms/internal/database"
	"partyrooms/internal/repository"
	"partyrooms/internal/store"
)

// opener connects to the configured store. The returned func releases it.
type opener func(ctx context.Context, cfg *config.Config) (store.Maintainer, func() error, error)

func openDatabase(ctx context.Context, cfg *config.Config) (store.Maintainer, func() error, error) {
	if cfg.UsesMemoryStore() {
		return nil, nil, errors.New("the memory store lives inside the server process and cannot be reached from here")
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repository.NewEntryRepository(db), db.Close, nil
}
