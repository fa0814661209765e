package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	commoncfg "github.com/undesputed/senior-care-central-sub001/common/config"

	"gopkg.in/yaml.v3"
)

// Config carecentral-api settings.
// Precedence: built-in defaults < YAML file (CONFIG_FILE) < environment variables.
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled bool                     `yaml:"db_enabled"`
	Database  commoncfg.DatabaseConfig `yaml:"database"`
	Redis     commoncfg.RedisConfig    `yaml:"redis"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Auth          AuthConfig          `yaml:"auth"`
	Chat          ChatConfig          `yaml:"chat"`
	Storage       StorageConfig       `yaml:"storage"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Directory     DirectoryConfig     `yaml:"directory"`
}

// AuthConfig identity provider session tokens
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	JWTIssuer  string        `yaml:"jwt_issuer"`
	RevokedTTL time.Duration `yaml:"revoked_ttl"`
}

// ChatConfig managed chat service
type ChatConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	APISecret string        `yaml:"api_secret"`
	Timeout   time.Duration `yaml:"timeout"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Configured reports whether credentials are present.
func (c ChatConfig) Configured() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.APISecret != ""
}

// StorageConfig managed object store
type StorageConfig struct {
	BaseURL          string        `yaml:"base_url"`
	ServiceKey       string        `yaml:"service_key"`
	DocumentsBucket  string        `yaml:"documents_bucket"`
	OnboardingBucket string        `yaml:"onboarding_bucket"`
	Timeout          time.Duration `yaml:"timeout"`
}

// MQTTConfig live notification fan-out (disabled by default)
type MQTTConfig struct {
	Enabled              bool   `yaml:"enabled"`
	TopicPrefix          string `yaml:"topic_prefix"`
	commoncfg.MQTTConfig `yaml:",inline"`
}

// NotificationsConfig Redis stream fan-out
type NotificationsConfig struct {
	StreamEnabled bool   `yaml:"stream_enabled"`
	Stream        string `yaml:"stream"`
}

// DirectoryConfig published agency listing cache
type DirectoryConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Load builds the configuration. A malformed CONFIG_FILE is fatal for the caller.
func Load() (*Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// MustLoad is Load for tools that have no recovery path.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFile overlays the YAML document at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"

	// Local dev default; if the DB is unreachable main falls back to the in-memory store.
	cfg.DBEnabled = true
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "carecentral",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Auth.RevokedTTL = 24 * time.Hour

	cfg.Chat.Timeout = 10 * time.Second
	cfg.Chat.TokenTTL = 24 * time.Hour

	cfg.Storage.DocumentsBucket = "provider-documents"
	cfg.Storage.OnboardingBucket = "onboarding-uploads"
	cfg.Storage.Timeout = 10 * time.Second

	cfg.MQTT.TopicPrefix = "carecentral"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "carecentral-api"
	cfg.MQTT.QoS = 1

	cfg.Notifications.StreamEnabled = true
	cfg.Notifications.Stream = "carecentral:notifications"

	cfg.Directory.CacheTTL = 60 * time.Second
	return cfg
}

func applyEnv(cfg *Config) {
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.DBEnabled = parseBool(os.Getenv("DB_ENABLED"), cfg.DBEnabled)
	cfg.Database.LoadFromEnv("DB")
	cfg.Redis.LoadFromEnv("REDIS")
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.JWTSecret = getEnv("AUTH_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.JWTIssuer = getEnv("AUTH_JWT_ISSUER", cfg.Auth.JWTIssuer)
	cfg.Auth.RevokedTTL = parseDuration(os.Getenv("AUTH_REVOKED_TTL"), cfg.Auth.RevokedTTL)

	cfg.Chat.BaseURL = getEnv("CHAT_BASE_URL", cfg.Chat.BaseURL)
	cfg.Chat.APIKey = getEnv("CHAT_API_KEY", cfg.Chat.APIKey)
	cfg.Chat.APISecret = getEnv("CHAT_API_SECRET", cfg.Chat.APISecret)
	cfg.Chat.Timeout = parseDuration(os.Getenv("CHAT_TIMEOUT"), cfg.Chat.Timeout)
	cfg.Chat.TokenTTL = parseDuration(os.Getenv("CHAT_TOKEN_TTL"), cfg.Chat.TokenTTL)

	cfg.Storage.BaseURL = getEnv("STORAGE_BASE_URL", cfg.Storage.BaseURL)
	cfg.Storage.ServiceKey = getEnv("STORAGE_SERVICE_KEY", cfg.Storage.ServiceKey)
	cfg.Storage.DocumentsBucket = getEnv("STORAGE_DOCUMENTS_BUCKET", cfg.Storage.DocumentsBucket)
	cfg.Storage.OnboardingBucket = getEnv("STORAGE_ONBOARDING_BUCKET", cfg.Storage.OnboardingBucket)
	cfg.Storage.Timeout = parseDuration(os.Getenv("STORAGE_TIMEOUT"), cfg.Storage.Timeout)

	cfg.MQTT.Enabled = parseBool(os.Getenv("MQTT_ENABLED"), cfg.MQTT.Enabled)
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", cfg.MQTT.TopicPrefix)
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")

	cfg.Notifications.StreamEnabled = parseBool(os.Getenv("NOTIFICATIONS_STREAM_ENABLED"), cfg.Notifications.StreamEnabled)
	cfg.Notifications.Stream = getEnv("NOTIFICATIONS_STREAM", cfg.Notifications.Stream)

	cfg.Directory.CacheTTL = parseDuration(os.Getenv("DIRECTORY_CACHE_TTL"), cfg.Directory.CacheTTL)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

// parseDuration accepts Go durations ("90s") or plain seconds ("90").
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
