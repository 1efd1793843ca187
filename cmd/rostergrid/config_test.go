package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/rostergrid/internal/storage"
)

const testCSRFKey = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rostergrid.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv(envCSRFKey, testCSRFKey)
	cfg := DefaultConfig()

	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("HTTPAddress = %q, want :8080", cfg.Server.HTTPAddress)
	}
	if cfg.Storage.Driver != storage.DriverSQLite {
		t.Errorf("Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.WriteQueue.MaxAttempts != 5 || cfg.WriteQueue.InitialBackoff != 500*time.Millisecond {
		t.Errorf("WriteQueue = %+v, want 5 attempts from 500ms", cfg.WriteQueue)
	}
	if !cfg.WebEnabled() {
		t.Error("web UI disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  http_address: ":9000"
  metrics_address: ":9100"
storage:
  driver: memory
write_queue:
  max_attempts: 3
  initial_backoff: 1s
  max_backoff: 1m
web:
  enabled: false
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.HTTPAddress != ":9000" || cfg.Server.MetricsAddress != ":9100" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Storage.Driver != storage.DriverMemory {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.WriteQueue.MaxAttempts != 3 || cfg.WriteQueue.InitialBackoff != time.Second || cfg.WriteQueue.MaxBackoff != time.Minute {
		t.Errorf("WriteQueue = %+v", cfg.WriteQueue)
	}
	if cfg.WebEnabled() {
		t.Error("web UI enabled, want disabled")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadConfig_EnvSecrets(t *testing.T) {
	t.Setenv(envCSRFKey, testCSRFKey)
	t.Setenv(envJWTSecret, "env-jwt-secret-that-is-32-bytes!")
	t.Setenv(envMongoURI, "mongodb://db:27017")
	path := writeConfig(t, "storage:\n  driver: mongo\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Storage.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Mongo.URI = %q", cfg.Storage.Mongo.URI)
	}
	if cfg.Auth.JWTSecret != "env-jwt-secret-that-is-32-bytes!" {
		t.Errorf("JWTSecret not taken from env")
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = storage.DriverMongo; c.Storage.Mongo.URI = "" }},
		{"short csrf key", func(c *Config) { c.Web.CSRFKey = "short" }},
		{"short jwt secret", func(c *Config) { c.Auth.JWTSecret = "secret" }},
		{"backoff inverted", func(c *Config) { c.WriteQueue.MaxBackoff = time.Millisecond }},
		{"metrics on http port", func(c *Config) { c.Server.MetricsAddress = c.Server.HTTPAddress }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Web.CSRFKey = testCSRFKey
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigValidate_WebDisabledNeedsNoKey(t *testing.T) {
	cfg := DefaultConfig()
	disabled := false
	cfg.Web.Enabled = &disabled
	cfg.Web.CSRFKey = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
