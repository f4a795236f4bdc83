// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/zapponejosh/saju-api/internal/engine"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    `env:"PORT" envDefault:"8080"`
	Env  string `env:"ENV" envDefault:"development"`

	// Lookup tables
	TableSource  string `env:"TABLE_SOURCE" envDefault:"json"`
	CalendarPath string `env:"CALENDAR_PATH" envDefault:"./data/calendar.json"`
	TermsPath    string `env:"TERMS_PATH" envDefault:"./data/terms.json"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/tables.db"`

	// Optional YAML file replacing the embedded correction profile.
	CorrectionProfilePath string `env:"CORRECTION_PROFILE_PATH"`

	// Engine options
	WeightScheme     string `env:"WEIGHT_SCHEME" envDefault:"auto"`
	BoundaryTieBreak string `env:"BOUNDARY_TIE_BREAK" envDefault:"at-or-after"`
	LuckDecades      int    `env:"LUCK_DECADES" envDefault:"10"`

	// Authentication for the analyze endpoint
	APIKey string `env:"API_KEY"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Table sources
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	switch c.TableSource {
	case SourceJSON:
		if c.CalendarPath == "" || c.TermsPath == "" {
			errs = append(errs, errors.New("CALENDAR_PATH and TERMS_PATH are required for json tables"))
		}
	case SourceSQLite:
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for sqlite tables"))
		}
	default:
		errs = append(errs, fmt.Errorf("TABLE_SOURCE must be one of: json, sqlite; got %q", c.TableSource))
	}

	if _, err := engine.ParseWeightScheme(c.WeightScheme); err != nil {
		errs = append(errs, fmt.Errorf("WEIGHT_SCHEME must be one of: auto, uniform, positional; got %q", c.WeightScheme))
	}
	if _, err := engine.ParseTieBreak(c.BoundaryTieBreak); err != nil {
		errs = append(errs, fmt.Errorf("BOUNDARY_TIE_BREAK must be one of: at-or-after, strictly-after; got %q", c.BoundaryTieBreak))
	}
	if c.LuckDecades < 10 || c.LuckDecades > 11 {
		errs = append(errs, fmt.Errorf("LUCK_DECADES must be 10 or 11, got %d", c.LuckDecades))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EngineOptions converts the engine settings. Call after Validate.
func (c *Config) EngineOptions() (engine.Options, error) {
	w, err := engine.ParseWeightScheme(c.WeightScheme)
	if err != nil {
		return engine.Options{}, err
	}
	tb, err := engine.ParseTieBreak(c.BoundaryTieBreak)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{Weights: w, TieBreak: tb, LuckPeriods: c.LuckDecades}, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
