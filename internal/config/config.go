// Package config loads coordinator configuration from environment variables
// and an optional project manifest.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all coordinator configuration loaded from the environment.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Session registry
	DataDir      string `envconfig:"DATA_DIR" default:".coordinator/sessions"`
	JournalDir   string `envconfig:"JOURNAL_DIR" default:".coordinator/journal"`
	StoreBackend string `envconfig:"STORE_BACKEND" default:"file"` // "file", "sqlite" or "memory"
	SQLitePath   string `envconfig:"SQLITE_PATH" default:".coordinator/sessions.db"`
	ProjectFile  string `envconfig:"PROJECT_FILE" default:"coordinator.yaml"`

	// Management API
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8090"`
	AuthMode    string `envconfig:"AUTH_MODE" default:"api-key"` // "api-key", "jwt", "none"
	APIKey      string `envconfig:"API_KEY"`
	JWTSecret   string `envconfig:"JWT_SECRET"`
	CORSOrigins string `envconfig:"CORS_ORIGINS"`

	// Maintenance
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"30s"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.AuthMode {
	case "api-key", "jwt", "none":
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	if c.AuthMode == "api-key" && c.APIKey == "" && c.Environment != "development" {
		return fmt.Errorf("AUTH_MODE=api-key requires API_KEY outside development")
	}
	if c.AuthMode == "jwt" && c.JWTSecret == "" {
		return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
	}
	return nil
}

// Development returns true when running in the development environment.
func (c *Config) Development() bool {
	return c.Environment == "development"
}
