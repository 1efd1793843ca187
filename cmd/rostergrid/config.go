// Package main provides the rostergrid server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/rostergrid/internal/logging"
	"github.com/good-yellow-bee/rostergrid/internal/storage"
)

// Environment variables that override secrets in the config file.
const (
	envJWTSecret = "ROSTERGRID_JWT_SECRET"
	envCSRFKey   = "ROSTERGRID_CSRF_KEY"
	envMongoURI  = "ROSTERGRID_MONGO_URI"
)

// Config represents the server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	WriteQueue WriteQueueConfig `yaml:"write_queue"`
	Auth       AuthConfig       `yaml:"auth"`
	Web        WebConfig        `yaml:"web"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Log        LogConfig        `yaml:"log"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress    string        `yaml:"http_address"`    // HTTP listen address (default: :8080)
	MetricsAddress string        `yaml:"metrics_address"` // Prometheus listen address (default: :9090, "" disables)
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	TrustedProxies []string      `yaml:"trusted_proxies"` // IPs/CIDRs allowed to set X-Forwarded-For
	SecureCookies  bool          `yaml:"secure_cookies"`  // Mark session and CSRF cookies Secure
}

// StorageConfig selects the project store backend.
type StorageConfig struct {
	Driver string       `yaml:"driver"` // sqlite, mongo or memory (default: sqlite)
	SQLite SQLiteConfig `yaml:"sqlite"`
	Mongo  MongoConfig  `yaml:"mongo"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"` // default: ./data/rostergrid.db
}

type MongoConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`   // default: rostergrid
	Collection string        `yaml:"collection"` // default: projects
	Timeout    time.Duration `yaml:"timeout"`    // default: 10s
}

// WriteQueueConfig tunes background persistence retries.
type WriteQueueConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`    // default: 5
	InitialBackoff time.Duration `yaml:"initial_backoff"` // default: 500ms
	MaxBackoff     time.Duration `yaml:"max_backoff"`     // default: 30s
	WriteTimeout   time.Duration `yaml:"write_timeout"`   // default: 10s
	MaxPending     int           `yaml:"max_pending"`     // readiness fails above this (default: 1000)
}

// AuthConfig enables bearer tokens on the JSON API.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"` // empty disables API auth
	TokenTTL  time.Duration `yaml:"token_ttl"`  // default: 24h
}

type WebConfig struct {
	Enabled    *bool         `yaml:"enabled"`     // default: true
	CSRFKey    string        `yaml:"csrf_key"`    // exactly 32 bytes
	SessionTTL time.Duration `yaml:"session_ttl"` // default: 24h
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 10
	Burst             int     `yaml:"burst"`               // default: 20
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // console or json (default: console)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv lets secrets stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv(envJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(envCSRFKey); v != "" {
		c.Web.CSRFKey = v
	}
	if v := os.Getenv(envMongoURI); v != "" {
		c.Storage.Mongo.URI = v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/rostergrid.db"
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = "rostergrid"
	}
	if c.Storage.Mongo.Collection == "" {
		c.Storage.Mongo.Collection = "projects"
	}
	if c.Storage.Mongo.Timeout == 0 {
		c.Storage.Mongo.Timeout = 10 * time.Second
	}

	if c.WriteQueue.MaxAttempts == 0 {
		c.WriteQueue.MaxAttempts = 5
	}
	if c.WriteQueue.InitialBackoff == 0 {
		c.WriteQueue.InitialBackoff = 500 * time.Millisecond
	}
	if c.WriteQueue.MaxBackoff == 0 {
		c.WriteQueue.MaxBackoff = 30 * time.Second
	}
	if c.WriteQueue.WriteTimeout == 0 {
		c.WriteQueue.WriteTimeout = 10 * time.Second
	}
	if c.WriteQueue.MaxPending == 0 {
		c.WriteQueue.MaxPending = 1000
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Web.Enabled == nil {
		enabled := true
		c.Web.Enabled = &enabled
	}
	if c.Web.SessionTTL == 0 {
		c.Web.SessionTTL = 24 * time.Hour
	}

	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 10
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = logging.FormatConsole
	}
}

// WebEnabled reports whether the browser UI is served.
func (c *Config) WebEnabled() bool {
	return c.Web.Enabled == nil || *c.Web.Enabled
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.MetricsAddress != "" && c.Server.MetricsAddress == c.Server.HTTPAddress {
		return fmt.Errorf("server.metrics_address must differ from server.http_address")
	}

	switch c.Storage.Driver {
	case storage.DriverSQLite:
		if c.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required")
		}
	case storage.DriverMongo:
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required when driver is mongo (or set %s)", envMongoURI)
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be sqlite, mongo or memory, got %q", c.Storage.Driver)
	}

	if c.WriteQueue.MaxAttempts < 1 {
		return fmt.Errorf("write_queue.max_attempts must be at least 1")
	}
	if c.WriteQueue.MaxBackoff < c.WriteQueue.InitialBackoff {
		return fmt.Errorf("write_queue.max_backoff must not be less than initial_backoff")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}

	if c.WebEnabled() && len(c.Web.CSRFKey) != 32 {
		return fmt.Errorf("web.csrf_key must be exactly 32 bytes (or set %s)", envCSRFKey)
	}

	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit values must not be negative")
	}

	switch c.Log.Format {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
