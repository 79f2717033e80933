// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (nekolators.yaml), with ${VAR} environment expansion
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv("nekolators.yaml")
//	store, err := storage.Open(cfg.Storage)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Receipt extractors.
const (
	ExtractorWebhook = "webhook"
	ExtractorGemini  = "gemini"
)

// Config represents the entire application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Receipt ReceiptConfig `yaml:"receipt"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`

	// PublicBaseURL is used to build share and edit URLs. When empty the
	// request's Origin or Host is used.
	PublicBaseURL  string   `yaml:"public_base_url"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	StaticPath     string   `yaml:"static_path"`
}

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	BadgerDir   string `yaml:"badger_dir"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// CacheConfig configures the optional Redis read-through cache
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// ReceiptConfig configures receipt image extraction
type ReceiptConfig struct {
	Extractor      string `yaml:"extractor"`
	WebhookURL     string `yaml:"webhook_url"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "./data/nekolators.db",
			BadgerDir:  "./data/badger",
		},
		Cache: CacheConfig{TTL: 10 * time.Minute},
		Receipt: ReceiptConfig{
			Extractor:      ExtractorWebhook,
			GeminiModel:    "gemini-1.5-flash",
			MaxUploadBytes: 10 << 20,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads and parses the config file. Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables (e.g., ${GEMINI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	d := Default()
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("PORT", d.Server.Port),
			PublicBaseURL:  os.Getenv("PUBLIC_BASE_URL"),
			AllowedOrigins: getEnvList("ALLOWED_ORIGINS", d.Server.AllowedOrigins),
			StaticPath:     os.Getenv("STATIC_PATH"),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", d.Storage.Driver),
			SQLitePath:  getEnv("DB_PATH", d.Storage.SQLitePath),
			BadgerDir:   getEnv("BADGER_DIR", d.Storage.BadgerDir),
			PostgresDSN: os.Getenv("DB_URL"),
		},
		Cache: CacheConfig{
			RedisAddr: os.Getenv("REDIS_ADDR"),
			TTL:       getEnvDuration("CACHE_TTL", d.Cache.TTL),
		},
		Receipt: ReceiptConfig{
			Extractor:      getEnv("RECEIPT_EXTRACTOR", d.Receipt.Extractor),
			WebhookURL:     os.Getenv("RECEIPT_WEBHOOK_URL"),
			GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
			GeminiModel:    getEnv("GEMINI_MODEL", d.Receipt.GeminiModel),
			MaxUploadBytes: int64(getEnvInt("RECEIPT_MAX_UPLOAD_BYTES", int(d.Receipt.MaxUploadBytes))),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", d.Log.Level),
			Format: getEnv("LOG_FORMAT", d.Log.Format),
		},
	}
	return cfg
}

// LoadOrEnv tries to load from the given path, falls back to environment
// variables. The returned error is non-nil only when the file exists but is
// invalid.
func LoadOrEnv(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv(), nil
	}
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return LoadFromEnv(), nil
	}
	return nil, err
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case DriverBadger:
		if c.Storage.BadgerDir == "" {
			return fmt.Errorf("storage.badger_dir is required for the badger driver")
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Receipt.Extractor {
	case ExtractorWebhook, ExtractorGemini, "":
	default:
		return fmt.Errorf("unknown receipt extractor %q", c.Receipt.Extractor)
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
