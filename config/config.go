// Package config loads typed configuration for the at-risk tracker core
// from environment variables. A .env file is honored in development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all configuration for the tracker core.
type Config struct {
	// Application
	App AppConfig

	// Tracker (risk collaborator) API
	API APIConfig `validate:"required"`

	// Sync controller behavior
	Sync SyncConfig

	// Notification bus behavior
	Notify NotifyConfig

	// Snapshot cache (optional)
	Redis RedisConfig

	// Logging
	Log LogConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
}

// APIConfig holds the external tracker API settings.
type APIConfig struct {
	// BaseURL of the risk collaborator service,
	// e.g. https://tracker.example.edu/api
	BaseURL string `validate:"required,url"`

	// Timeout for each HTTP request
	Timeout time.Duration `validate:"required"`
}

// SyncConfig tunes the sync controller.
type SyncConfig struct {
	// DebounceWindow coalesces rapid manual refresh triggers.
	DebounceWindow time.Duration

	// AllowedRoutes is the fixed allow-list of screens on which
	// background synchronization may run.
	AllowedRoutes []string `validate:"min=1"`
}

// NotifyConfig tunes the notification bus.
type NotifyConfig struct {
	// DefaultTTL for auto-expiring notifications.
	DefaultTTL time.Duration
}

// RedisConfig holds the optional warm-start snapshot cache settings.
// When Addr is empty the snapshot cache is disabled.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// SnapshotTTL bounds how long a stale snapshot may be served.
	SnapshotTTL time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Enabled reports whether the snapshot cache is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "atrisk-tracker"),
			Environment: Environment(getEnv("APP_ENV", string(EnvDevelopment))),
			Debug:       getEnvBool("APP_DEBUG", false),
		},
		API: APIConfig{
			BaseURL: getEnv("TRACKER_API_URL", ""),
			Timeout: getEnvDuration("TRACKER_API_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			DebounceWindow: getEnvDuration("SYNC_DEBOUNCE_WINDOW", 100*time.Millisecond),
			AllowedRoutes:  []string{"/", "/dashboard", "/settings"},
		},
		Notify: NotifyConfig{
			DefaultTTL: getEnvDuration("NOTIFY_DEFAULT_TTL", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Sync.DebounceWindow <= 0 {
		return fmt.Errorf("sync debounce window must be positive")
	}
	return nil
}

// IsDevelopment returns true in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// Environment variable helpers.

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
