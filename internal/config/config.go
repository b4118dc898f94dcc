// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"

	"github.com/alexanderramin/tally/internal/domain"
	"github.com/alexanderramin/tally/internal/interval"
)

const appDir = "tally"

// Config holds every TALLY_* setting. Unset variables keep the defaults from
// Defaults.
type Config struct {
	DBPath        string        `env:"TALLY_DB"`
	StatePath     string        `env:"TALLY_STATE"`
	User          string        `env:"TALLY_USER"`
	OverlapPolicy string        `env:"TALLY_OVERLAP_POLICY"`
	LogLevel      string        `env:"TALLY_LOG_LEVEL"`
	LogFile       string        `env:"TALLY_LOG_FILE"`
	LogMaxSizeMB  int           `env:"TALLY_LOG_MAX_SIZE_MB"`
	HTTPAddr      string        `env:"TALLY_HTTP_ADDR"`
	TickInterval  time.Duration `env:"TALLY_TICK_INTERVAL"`
	OTelEndpoint  string        `env:"TALLY_OTEL_ENDPOINT"`
	OTelEnabled   bool          `env:"TALLY_OTEL_ENABLED"`
}

// Defaults returns the configuration used when no variable is set. Paths
// follow the XDG base directory layout.
func Defaults() Config {
	user := strings.TrimSpace(os.Getenv("USER"))
	if user == "" {
		user = "local"
	}
	return Config{
		DBPath:        filepath.Join(xdg.DataHome, appDir, "tally.db"),
		StatePath:     filepath.Join(xdg.StateHome, appDir, "timer.db"),
		User:          user,
		OverlapPolicy: string(domain.OverlapWarn),
		LogLevel:      "info",
		LogMaxSizeMB:  10,
		HTTPAddr:      "127.0.0.1:8080",
		TickInterval:  time.Second,
		OTelEnabled:   true,
	}
}

// Load parses the environment over Defaults and validates the result.
func Load() (Config, error) {
	cfg := Defaults()
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if _, err := interval.ParsePolicy(c.OverlapPolicy); err != nil {
		return fmt.Errorf("TALLY_OVERLAP_POLICY: %w", err)
	}
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("TALLY_USER must not be empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TALLY_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.LogMaxSizeMB <= 0 {
		return fmt.Errorf("TALLY_LOG_MAX_SIZE_MB must be positive, got %d", c.LogMaxSizeMB)
	}
	return nil
}

// Policy returns the parsed overlap policy. Call after Validate.
func (c Config) Policy() domain.OverlapPolicy {
	p, err := interval.ParsePolicy(c.OverlapPolicy)
	if err != nil {
		return domain.OverlapWarn
	}
	return p
}
