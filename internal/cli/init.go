// Package cli provides common CLI initialization utilities shared by
// cmd/expensetracker and cmd/expense-sync-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default. An unknown level falls back to info
// with a warning.
func SetupLogger(cfg *config.Config, component string, w io.Writer) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)

	logConfig := applog.DefaultConfig()
	logConfig.Level = level
	logConfig.Format = cfg.LogFormat
	if component != "" {
		logConfig.Component = component
	}
	if w != nil {
		logConfig.Output = w
	}

	logger := applog.New(logConfig)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown LOG_LEVEL, using info", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and checks it with validate.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string, validate func(*config.Config) error) (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(cfg, component, nil)
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed",
			applog.NewFields().WithErrorType(applog.ErrorTypeConfiguration).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	return cfg, logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
