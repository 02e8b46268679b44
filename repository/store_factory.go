package repository

import (
	"context"
	"fmt"

	"fairbook/config"
	"fairbook/database"
	"fairbook/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// NewKVStore opens the store backend selected by configuration
func NewKVStore(ctx context.Context, cfg *config.Config) (interfaces.KVStore, error) {
	switch cfg.StoreBackend {
	case "postgres":
		databaseURL := database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName)
		db, err := database.NewConnection(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info("Using postgres store backend")
		return &ownedPostgresStore{PostgresStore: NewPostgresStore(db), db: db}, nil

	case "badger":
		store, err := NewBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		log.Info("Using badger store backend")
		return store, nil

	case "memory":
		log.Warn("Using in-memory store backend, snapshots are lost on restart")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}

// ownedPostgresStore closes the pool it opened
type ownedPostgresStore struct {
	*PostgresStore
	db *database.DB
}

func (s *ownedPostgresStore) Close() error {
	s.db.Close()
	return nil
}
