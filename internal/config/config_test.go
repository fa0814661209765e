package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "HTTP_ADDR", "DB_ENABLED", "DB_HOST", "DB_PORT", "DB_NAME",
		"REDIS_ADDR", "LOG_LEVEL", "AUTH_JWT_SECRET", "CHAT_BASE_URL", "CHAT_API_KEY",
		"CHAT_API_SECRET", "DIRECTORY_CACHE_TTL", "MQTT_ENABLED", "MQTT_BROKER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}
	if !cfg.DBEnabled {
		t.Errorf("Expected DB_ENABLED default true")
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("Unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Database.Database != "carecentral" {
		t.Errorf("Expected DB_NAME default 'carecentral', got '%s'", cfg.Database.Database)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}
	if cfg.Directory.CacheTTL != 60*time.Second {
		t.Errorf("Expected directory cache TTL 60s, got %s", cfg.Directory.CacheTTL)
	}
	if cfg.Chat.Configured() {
		t.Errorf("Expected chat to be unconfigured by default")
	}
	if cfg.MQTT.Enabled {
		t.Errorf("Expected MQTT disabled by default")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("CHAT_BASE_URL", "https://chat.example.com")
	t.Setenv("CHAT_API_KEY", "key")
	t.Setenv("CHAT_API_SECRET", "secret")
	t.Setenv("DIRECTORY_CACHE_TTL", "15")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://mqtt:1883")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("Expected ':9090', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.DBEnabled {
		t.Errorf("Expected DB disabled")
	}
	if cfg.Database.Host != "db.internal" || cfg.Database.Port != 6543 {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if !cfg.Chat.Configured() {
		t.Errorf("Expected chat configured")
	}
	if cfg.Directory.CacheTTL != 15*time.Second {
		t.Errorf("Expected 15s cache TTL, got %s", cfg.Directory.CacheTTL)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker != "tcp://mqtt:1883" {
		t.Errorf("Unexpected MQTT config: %+v", cfg.MQTT)
	}
}

func TestLoad_YAMLFileThenEnvOverride(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "carecentral.yaml")
	doc := []byte(`
http:
  addr: ":7070"
database:
  host: yaml-db
  database: yaml_name
log:
  level: debug
directory:
  cache_ttl: 2m
`)
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_HOST", "env-db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("Expected YAML addr ':7070', got '%s'", cfg.HTTP.Addr)
	}
	if cfg.Database.Host != "env-db" {
		t.Errorf("Expected env to win over YAML, got '%s'", cfg.Database.Host)
	}
	if cfg.Database.Database != "yaml_name" {
		t.Errorf("Expected YAML database name, got '%s'", cfg.Database.Database)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Expected default port to survive overlay, got %d", cfg.Database.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected YAML log level 'debug', got '%s'", cfg.Log.Level)
	}
	if cfg.Directory.CacheTTL != 2*time.Minute {
		t.Errorf("Expected 2m cache TTL, got %s", cfg.Directory.CacheTTL)
	}
}

func TestLoad_BadYAMLFile(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("Expected error for malformed YAML")
	}
}
