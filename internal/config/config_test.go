package config

import (
	"os"
	"testing"

	"github.com/zapponejosh/saju-api/internal/engine"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.TableSource != SourceJSON {
		t.Errorf("TableSource = %q, want %q", cfg.TableSource, SourceJSON)
	}
	if cfg.LuckDecades != 10 {
		t.Errorf("LuckDecades = %d, want 10", cfg.LuckDecades)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "text")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "3000")
	t.Setenv("ENV", "production")
	t.Setenv("TABLE_SOURCE", "sqlite")
	t.Setenv("DATABASE_PATH", "/data/test.db")
	t.Setenv("WEIGHT_SCHEME", "uniform")
	t.Setenv("BOUNDARY_TIE_BREAK", "strictly-after")
	t.Setenv("LUCK_DECADES", "11")
	t.Setenv("API_KEY", "secret-key-123")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.TableSource != SourceSQLite {
		t.Errorf("TableSource = %q, want %q", cfg.TableSource, SourceSQLite)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions() error = %v", err)
	}
	want := engine.Options{Weights: engine.WeightUniform, TieBreak: engine.StrictlyAfter, LuckPeriods: 11}
	if opts != want {
		t.Errorf("EngineOptions() = %+v, want %+v", opts, want)
	}
}

func TestLoad_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("LUCK_DECADES", "ten")

	if _, err := Load(); err == nil {
		t.Error("Load() with LUCK_DECADES=ten succeeded, want error")
	}
}

func validConfig() Config {
	return Config{
		Port:             8080,
		Env:              EnvDevelopment,
		TableSource:      SourceJSON,
		CalendarPath:     "./data/calendar.json",
		TermsPath:        "./data/terms.json",
		DatabasePath:     "./data/tables.db",
		WeightScheme:     "auto",
		BoundaryTieBreak: "at-or-after",
		LuckDecades:      10,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"valid production config", func(c *Config) {
			c.Env = EnvProduction
			c.APIKey = "required-in-prod"
			c.LogFormat = "json"
		}, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"unknown table source", func(c *Config) { c.TableSource = "csv" }, true},
		{"json without calendar path", func(c *Config) { c.CalendarPath = "" }, true},
		{"sqlite without database path", func(c *Config) {
			c.TableSource = SourceSQLite
			c.DatabasePath = ""
		}, true},
		{"sqlite ignores json paths", func(c *Config) {
			c.TableSource = SourceSQLite
			c.CalendarPath = ""
		}, false},
		{"invalid weight scheme", func(c *Config) { c.WeightScheme = "heavy" }, true},
		{"invalid tie break", func(c *Config) { c.BoundaryTieBreak = "before" }, true},
		{"too few decades", func(c *Config) { c.LuckDecades = 9 }, true},
		{"too many decades", func(c *Config) { c.LuckDecades = 12 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

// clearEnv removes all config-related environment variables and restores
// them when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"PORT", "ENV", "TABLE_SOURCE", "CALENDAR_PATH", "TERMS_PATH",
		"DATABASE_PATH", "CORRECTION_PROFILE_PATH", "WEIGHT_SCHEME",
		"BOUNDARY_TIE_BREAK", "LUCK_DECADES", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range vars {
		v := v
		if old, ok := os.LookupEnv(v); ok {
			t.Cleanup(func() { os.Setenv(v, old) })
		}
		os.Unsetenv(v)
	}
}
