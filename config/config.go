/*
Package config loads server settings.

PRECEDENCE (later wins):
  1. Defaults
  2. TOML file (--config)
  3. .env in the working directory (optional)
  4. Environment variables
  5. Command-line flags (applied by the cli package)

ENVIRONMENT:
  EGGS_PORT             HTTP port (default 8080)
  EGGS_DB_PATH          SQLite file, or ":memory:" (default ./data/eggs.db)
  EGGS_BACKEND          sqlite | memory (default sqlite)
  EGGS_ALLOWED_ORIGINS  comma-separated CORS origins
  EGGS_METRICS          serve /metrics (default true)
  EGGS_SHUTDOWN_TIMEOUT graceful shutdown budget (default 10s)
  LOG_LEVEL             debug | info | warn | error

EXAMPLE FILE:
  port = 9090
  db_path = "/var/lib/eggs/eggs.db"
  allowed_origins = ["http://localhost:5173"]
  metrics = true
  log_level = "debug"
  shutdown_timeout = "5s"
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/warp/egg-ledger/logging"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	// HTTP Server
	Port            int           `toml:"port"`
	AllowedOrigins  []string      `toml:"allowed_origins"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// Storage
	Backend string `toml:"backend"`
	DBPath  string `toml:"db_path"`

	// Observability
	Metrics  bool   `toml:"metrics"`
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:            8080,
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		ShutdownTimeout: 10 * time.Second,
		Backend:         BackendSQLite,
		DBPath:          "./data/eggs.db",
		Metrics:         true,
		LogLevel:        "info",
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path, .env and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// .env is a development convenience; its absence is not an error.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	if v, ok := os.LookupEnv("EGGS_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("EGGS_PORT %q: must be a number", v))
		} else {
			c.Port = port
		}
	}
	if v, ok := os.LookupEnv("EGGS_DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := os.LookupEnv("EGGS_BACKEND"); ok {
		c.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("EGGS_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := os.LookupEnv("EGGS_METRICS"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("EGGS_METRICS %q: must be a boolean", v))
		} else {
			c.Metrics = enabled
		}
	}
	if v, ok := os.LookupEnv("EGGS_SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("EGGS_SHUTDOWN_TIMEOUT %q: %w", v, err))
		} else {
			c.ShutdownTimeout = d
		}
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}

	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			problems = append(problems, "database path cannot be empty when using sqlite backend")
		} else if c.DBPath != ":memory:" {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid backend '%s': must be one of [sqlite memory]", c.Backend))
	}

	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}

	if !logging.ValidLevel(c.LogLevel) {
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	for _, origin := range c.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			problems = append(problems, fmt.Sprintf("invalid allowed origin '%s': must start with http:// or https://", origin))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
