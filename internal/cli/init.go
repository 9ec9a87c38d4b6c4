// Package cli consolidates the startup steps shared by cmd/fintrack and
// cmd/fintrack-worker.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// SetupLogger builds the component logger and installs it as the process
// default.
func SetupLogger(component string) *applog.Logger {
	logger := applog.New(applog.Config{Component: component})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. Absence is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration or exits on a validation
// failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenRepository opens the SQLite store and runs migrations, exiting on
// failure.
func OpenRepository(logger *applog.Logger, dbPath string) *storage.Repository {
	repo, err := storage.NewRepository(dbPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", dbPath)
		os.Exit(1)
	}
	return repo
}
