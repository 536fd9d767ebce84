package backend

import (
	"context"
	"fmt"

	applog "expensetracker/internal/log"
	"expensetracker/internal/storage/memory"
	"expensetracker/internal/storage/mongodb"
	"expensetracker/internal/storage/postgres"
	"expensetracker/internal/storage/sqlite"
)

type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend validates config and opens the selected store. Network
// backends must connect within config.ConnectTimeout.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	switch config.Type {
	case MongoBackend:
		return f.createMongoBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMongoBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := mongodb.New(ctx, mongodb.Config{
		URI:        config.MongoURI,
		Database:   config.MongoDatabase,
		Collection: config.MongoCollection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongo store: %w", err)
	}

	f.logger.Info("Initialized mongo backend",
		"database", config.MongoDatabase,
		"collection", config.MongoCollection)

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := postgres.New(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres store: %w", err)
	}

	f.logger.Info("Initialized postgres backend")

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New()

	f.logger.Warn("Initialized memory backend, records are lost on restart")

	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}
