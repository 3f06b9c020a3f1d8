// Package config loads application configuration from environment variables.
// All variables use the ACADEMY_ prefix. A .env file, when present, is read
// first; variables already set in the environment win.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	API      APIConfig
	Session  SessionConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Runner   RunnerConfig
	Log      LogConfig
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration // 0 means no client-side timeout
}

// SessionConfig selects where sign-in state is kept.
type SessionConfig struct {
	Store   string // "file", "redis" or "memory"
	File    string
	Profile string
	TTL     time.Duration
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	URL string
}

// DatabaseConfig holds PostgreSQL settings for learning events. An empty
// URL disables event storage.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// RunnerConfig holds lesson runner settings.
type RunnerConfig struct {
	AdvanceDelay time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Load reads the given env files (or ./.env when none are named), then
// builds the configuration from ACADEMY_ variables.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: envStr("ACADEMY_API_URL", "http://localhost:3000"),
			Timeout: envDuration("ACADEMY_HTTP_TIMEOUT", 0),
		},
		Session: SessionConfig{
			Store:   envStr("ACADEMY_SESSION_STORE", "file"),
			File:    envStr("ACADEMY_SESSION_FILE", defaultSessionFile()),
			Profile: envStr("ACADEMY_SESSION_PROFILE", "default"),
			TTL:     envDuration("ACADEMY_SESSION_TTL", 0),
		},
		Cache: CacheConfig{
			URL: envStr("ACADEMY_CACHE_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			URL:      envStr("ACADEMY_DATABASE_URL", ""),
			MaxConns: envInt("ACADEMY_DATABASE_MAX_CONNS", 4),
			MinConns: envInt("ACADEMY_DATABASE_MIN_CONNS", 0),
		},
		Runner: RunnerConfig{
			AdvanceDelay: envDuration("ACADEMY_RUNNER_DELAY", 1200*time.Millisecond),
		},
		Log: LogConfig{
			Level:     envStr("ACADEMY_LOG_LEVEL", "info"),
			Format:    envStr("ACADEMY_LOG_FORMAT", "text"),
			AddSource: envBool("ACADEMY_LOG_SOURCE", false),
		},
	}

	return cfg, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "academy", "session.json")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ACADEMY_API_URL must be an http(s) URL, got %q", c.API.BaseURL)
	}

	switch c.Session.Store {
	case "file":
		if c.Session.File == "" {
			return fmt.Errorf("ACADEMY_SESSION_FILE is required for the file session store")
		}
	case "redis":
		if c.Cache.URL == "" {
			return fmt.Errorf("ACADEMY_CACHE_URL is required for the redis session store")
		}
	case "memory":
	default:
		return fmt.Errorf("ACADEMY_SESSION_STORE must be 'file', 'redis' or 'memory', got %q", c.Session.Store)
	}

	if c.Database.URL != "" && c.Database.MaxConns <= 0 {
		return fmt.Errorf("ACADEMY_DATABASE_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}
	if c.API.Timeout < 0 || c.Runner.AdvanceDelay < 0 || c.Session.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("ACADEMY_LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("ACADEMY_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// EventsEnabled reports whether learning events go to PostgreSQL.
func (c *Config) EventsEnabled() bool {
	return c.Database.URL != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("1.5s") or bare milliseconds ("1200").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
