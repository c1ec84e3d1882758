// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the market database (always absolute)
	DBPath         string // Full path to the market database file
	Port           int
	LogLevel       string
	DevMode        bool
	ReportSchedule string // Cron expression for the scheduled risk report sweep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RISK_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory to absolute path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := getEnv("RISK_DB_PATH", "")
	if dbPath == "" {
		dbPath = filepath.Join(absDataDir, "market.db")
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}

	return &Config{
		DataDir:        absDataDir,
		DBPath:         dbPath,
		Port:           port,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnv("DEV_MODE", "false") == "true",
		ReportSchedule: getEnv("REPORT_SCHEDULE", "@daily"),
	}, nil
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
