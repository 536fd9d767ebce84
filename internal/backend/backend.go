// Package backend builds the configured expense store.
package backend

import (
	"context"
	"time"

	"expensetracker/internal/storage"
)

// BackendType names a storage implementation.
type BackendType string

const (
	MongoBackend    BackendType = "mongo"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MongoBackend, SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult is an opened store plus its cleanup.
type BackendResult struct {
	Store   storage.ExpenseStore
	Cleanup CleanupFunc
}

// Factory opens stores from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what every backend needs to open.
type Config struct {
	Type BackendType

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	SQLiteDBPath string

	PostgresURL string

	// ConnectTimeout bounds the initial connection for network backends.
	ConnectTimeout time.Duration
}
