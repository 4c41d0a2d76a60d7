// Package config loads server settings. Later sources override earlier
// ones: built-in defaults, an optional YAML file, a .env file, then the
// process environment. Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Addr     string `yaml:"addr" env:"PAINTSTOCK_ADDR"`
	DBPath   string `yaml:"db" env:"PAINTSTOCK_DB"`
	LogPath  string `yaml:"log" env:"PAINTSTOCK_LOG"`
	LogLevel string `yaml:"log_level" env:"PAINTSTOCK_LOG_LEVEL"`

	AdminSecret string `yaml:"admin_secret" env:"PAINTSTOCK_ADMIN_SECRET"`

	ExportDir      string `yaml:"export_dir" env:"PAINTSTOCK_EXPORT_DIR"`
	ExportSchedule string `yaml:"export_schedule" env:"PAINTSTOCK_EXPORT_SCHEDULE"`

	RateLimit float64 `yaml:"rate_limit" env:"PAINTSTOCK_RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" env:"PAINTSTOCK_RATE_BURST"`

	MinQuantity int `yaml:"min_quantity" env:"PAINTSTOCK_MIN_QUANTITY"`
	StaleDays   int `yaml:"stale_days" env:"PAINTSTOCK_STALE_DAYS"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:           ":8080",
		DBPath:         "paintstock.db",
		LogLevel:       "info",
		AdminSecret:    "admin123",
		ExportDir:      "exports",
		ExportSchedule: "0 7 * * *",
		RateLimit:      20,
		RateBurst:      40,
		MinQuantity:    30,
		StaleDays:      30,
	}
}

// Load builds the configuration. path names an optional YAML file and
// envFile an optional dotenv file; a missing envFile is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if envFile != "" {
		// godotenv never overrides variables already set in the environment.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr must not be empty")
	case c.DBPath == "":
		return errors.New("config: db must not be empty")
	case c.AdminSecret == "":
		return errors.New("config: admin_secret must not be empty")
	case c.RateLimit < 0 || c.RateBurst < 0:
		return errors.New("config: rate limits must not be negative")
	case c.MinQuantity < 0:
		return errors.New("config: min_quantity must not be negative")
	case c.StaleDays <= 0:
		return errors.New("config: stale_days must be positive")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: unknown log level %q", s)
}
