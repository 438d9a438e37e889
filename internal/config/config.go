// Package config loads terminal configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the terminal daemon.
type Config struct {
	// HTTPAddr is the local listen address for the UI shell.
	HTTPAddr string

	// RemoteBaseURL points at the central catalog/sales service.
	RemoteBaseURL string

	// DataDir holds the SQLite cache and the commit journal.
	DataDir string

	// RefreshInterval is how often the catalog snapshot is re-fetched.
	RefreshInterval time.Duration

	// SessionMaxIdle is how long an untouched session survives.
	SessionMaxIdle time.Duration

	LogLevel    string
	Development bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        getEnv("ABASTO_HTTP_ADDR", "127.0.0.1:8745"),
		RemoteBaseURL:   getEnv("ABASTO_REMOTE_URL", ""),
		DataDir:         getEnv("ABASTO_DATA_DIR", "./data"),
		RefreshInterval: getDuration("ABASTO_REFRESH_INTERVAL", 30*time.Second),
		SessionMaxIdle:  getDuration("ABASTO_SESSION_MAX_IDLE", 4*time.Hour),
		LogLevel:        getEnv("ABASTO_LOG_LEVEL", "info"),
		Development:     getBool("ABASTO_DEV", false),
	}

	if cfg.RemoteBaseURL == "" {
		return Config{}, fmt.Errorf("ABASTO_REMOTE_URL is required")
	}
	return cfg, nil
}

// CachePath is the SQLite snapshot cache location.
func (c Config) CachePath() string { return c.DataDir + "/catalog.db" }

// JournalPath is the commit journal location.
func (c Config) JournalPath() string { return c.DataDir + "/journal.zst" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
