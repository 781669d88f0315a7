package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load loads and validates the relay worker configuration.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs.
//  2. Load a .env file if present (non-fatal if missing; existing
//     environment variables are never overridden).
//  3. Process envconfig struct tags to populate the Config.
//  4. Normalize case-insensitive values.
//  5. Validate the struct with go-playground/validator.
func Load() (*Config, error) {
	time.Local = time.UTC

	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process environment: %w", err)
	}

	cfg.normalize()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}
