// Package config loads the application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings.
type Config struct {
	Port   int    `envconfig:"PORT" default:"8080"`
	DBPath string `envconfig:"DB_PATH" default:"./data/cashflow.db"`

	// PrimaryCurrency is the reporting currency all flows are expressed in.
	// Must resolve in the currency table.
	PrimaryCurrency string `envconfig:"PRIMARY_CURRENCY" default:"SEK"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// AllowedOrigins configures CORS; "*" allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// Load reads the environment (and .env, if present) into a Config.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.PrimaryCurrency == "" {
		return fmt.Errorf("PRIMARY_CURRENCY must not be empty")
	}
	return nil
}
