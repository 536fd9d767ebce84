package backend

import (
	"fmt"
	"time"

	"expensetracker/internal/config"
)

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (want one of %v)", appConfig.DataBackend, GetBackendTypes())
	}

	return Config{
		Type: backendType,

		MongoURI:        appConfig.MongoURI,
		MongoDatabase:   appConfig.MongoDatabase,
		MongoCollection: appConfig.MongoCollection,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		PostgresURL: appConfig.PostgresURL,

		ConnectTimeout: 10 * time.Second,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case MongoBackend:
		if c.MongoURI == "" {
			return fmt.Errorf("mongo URI is required for mongo backend")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("mongo database and collection are required for mongo backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres backend")
		}
	case MemoryBackend:
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{MongoBackend, SQLiteBackend, PostgresBackend, MemoryBackend}
}
