package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client reads from the environment.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	LogFile        string
	CachePath      string
}

// Load reads configuration from the environment, after loading a local .env
// file if one exists. Missing values fall back to defaults.
func Load() (*Config, error) {
	// A missing .env is fine; real env vars always win.
	_ = godotenv.Load()

	cachePath, err := defaultCachePath()
	if err != nil {
		return nil, err
	}

	return &Config{
		APIBaseURL:     getEnv("TEAMTASK_API_URL", "http://localhost:5000/api/v1"),
		RequestTimeout: getEnvAsDuration("TEAMTASK_REQUEST_TIMEOUT", 15*time.Second),
		PollInterval:   getEnvAsDuration("TEAMTASK_POLL_INTERVAL", 10*time.Second),
		LogFile:        getEnv("TEAMTASK_LOG_FILE", ""),
		CachePath:      getEnv("TEAMTASK_DB_PATH", cachePath),
	}, nil
}

// defaultCachePath returns the sqlite cache location under the XDG data
// directory, falling back to ~/.local/share.
func defaultCachePath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "teamtask")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(appDir, "teamtask.db"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
