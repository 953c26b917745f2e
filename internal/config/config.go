// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment variables.
// Runtime user settings (currency, refresh interval, chart preferences) live
// in the settings database and take precedence over these static values.
type Config struct {
	DataDir       string // Base directory for databases and portfolio files (always absolute)
	PortfolioPath string // Default portfolio JSON file (defaults to <DataDir>/portfolio.json)
	LogLevel      string
	Port          int
	DevMode       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check PEATRACK_DATA_DIR environment variable
	// 2. If not set, default to ~/.peatrack
	// 3. Always resolve to absolute path and ensure the directory exists
	dataDir := getEnv("PEATRACK_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".peatrack")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	portfolioPath := getEnv("PEATRACK_PORTFOLIO", "")
	if portfolioPath == "" {
		portfolioPath = filepath.Join(absDataDir, "portfolio.json")
	}

	cfg := &Config{
		DataDir:       absDataDir,
		PortfolioPath: portfolioPath,
		Port:          getEnvAsInt("PEATRACK_PORT", 8420),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
