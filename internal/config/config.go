// Package config assembles the service configuration from config.toml, an
// optional per-environment overlay, and STRONGBOX_ environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/strongbox/internal/events"
	"github.com/JaimeStill/strongbox/internal/keys"
	"github.com/JaimeStill/strongbox/internal/processing"
	"github.com/JaimeStill/strongbox/internal/translation"
	"github.com/JaimeStill/strongbox/pkg/auth"
	"github.com/JaimeStill/strongbox/pkg/database"
	"github.com/JaimeStill/strongbox/pkg/logging"
	"github.com/JaimeStill/strongbox/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvStrongboxEnv             = "STRONGBOX_ENV"
	EnvStrongboxShutdownTimeout = "STRONGBOX_SHUTDOWN_TIMEOUT"
	EnvStrongboxVersion         = "STRONGBOX_VERSION"
)

var loggingEnv = &logging.Env{
	Level:  "STRONGBOX_LOG_LEVEL",
	Format: "STRONGBOX_LOG_FORMAT",
}

var databaseEnv = &database.Env{
	Host:            "STRONGBOX_DB_HOST",
	Port:            "STRONGBOX_DB_PORT",
	Name:            "STRONGBOX_DB_NAME",
	User:            "STRONGBOX_DB_USER",
	Password:        "STRONGBOX_DB_PASSWORD",
	SSLMode:         "STRONGBOX_DB_SSL_MODE",
	MaxOpenConns:    "STRONGBOX_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "STRONGBOX_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "STRONGBOX_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "STRONGBOX_DB_CONN_TIMEOUT",
	ApplicationName: "STRONGBOX_DB_APPLICATION_NAME",
}

var storageEnv = &storage.Env{
	Backend:          "STRONGBOX_STORAGE_BACKEND",
	BasePath:         "STRONGBOX_STORAGE_BASE_PATH",
	ContainerName:    "STRONGBOX_STORAGE_CONTAINER_NAME",
	ConnectionString: "STRONGBOX_STORAGE_CONNECTION_STRING",
	Bucket:           "STRONGBOX_STORAGE_BUCKET",
	Region:           "STRONGBOX_STORAGE_REGION",
	BaseEndpoint:     "STRONGBOX_STORAGE_BASE_ENDPOINT",
	AccessKey:        "STRONGBOX_STORAGE_ACCESS_KEY",
	SecretKey:        "STRONGBOX_STORAGE_SECRET_KEY",
	UsePathStyle:     "STRONGBOX_STORAGE_USE_PATH_STYLE",
}

var authEnv = &auth.Env{
	Secret:   "STRONGBOX_AUTH_SECRET",
	Issuer:   "STRONGBOX_AUTH_ISSUER",
	Leeway:   "STRONGBOX_AUTH_LEEWAY",
	TokenTTL: "STRONGBOX_AUTH_TOKEN_TTL",
}

var keysEnv = &keys.Env{
	ArgonTime:      "STRONGBOX_KEYS_ARGON_TIME",
	ArgonMemoryKiB: "STRONGBOX_KEYS_ARGON_MEMORY_KIB",
	ArgonThreads:   "STRONGBOX_KEYS_ARGON_THREADS",
	CacheSize:      "STRONGBOX_KEYS_CACHE_SIZE",
	CacheTTL:       "STRONGBOX_KEYS_CACHE_TTL",
}

var eventsEnv = &events.Env{
	Workers:        "STRONGBOX_EVENTS_WORKERS",
	QueueSize:      "STRONGBOX_EVENTS_QUEUE_SIZE",
	PublishTimeout: "STRONGBOX_EVENTS_PUBLISH_TIMEOUT",
	MaxRetries:     "STRONGBOX_EVENTS_MAX_RETRIES",
	InitialBackoff: "STRONGBOX_EVENTS_INITIAL_BACKOFF",
	MaxBackoff:     "STRONGBOX_EVENTS_MAX_BACKOFF",
	TombstoneSize:  "STRONGBOX_EVENTS_TOMBSTONE_SIZE",
	TombstoneTTL:   "STRONGBOX_EVENTS_TOMBSTONE_TTL",
}

var translationEnv = &translation.Env{
	Endpoint:    "STRONGBOX_TRANSLATION_ENDPOINT",
	AppKey:      "STRONGBOX_TRANSLATION_APP_KEY",
	AppSecret:   "STRONGBOX_TRANSLATION_APP_SECRET",
	SegmentSize: "STRONGBOX_TRANSLATION_SEGMENT_SIZE",
	FontPath:    "STRONGBOX_TRANSLATION_FONT_PATH",
}

var processingEnv = &processing.Env{
	WebSize:    "STRONGBOX_PROCESSING_WEB_SIZE",
	ThumbSize:  "STRONGBOX_PROCESSING_THUMB_SIZE",
	Quality:    "STRONGBOX_PROCESSING_QUALITY",
	DPI:        "STRONGBOX_PROCESSING_DPI",
	MaxSource:  "STRONGBOX_PROCESSING_MAX_SOURCE",
	TempDir:    "STRONGBOX_PROCESSING_TEMP_DIR",
	DisablePDF: "STRONGBOX_PROCESSING_DISABLE_PDF",
}

// Config is the root configuration for the Strongbox service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Logging         logging.Config     `toml:"logging"`
	Database        database.Config    `toml:"database"`
	Storage         storage.Config     `toml:"storage"`
	API             APIConfig          `toml:"api"`
	Auth            auth.Config        `toml:"auth"`
	Keys            keys.Config        `toml:"keys"`
	Events          events.Config      `toml:"events"`
	Translation     translation.Config `toml:"translation"`
	Processing      processing.Config  `toml:"processing"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
}

// Env returns the STRONGBOX_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvStrongboxEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Logging.Merge(&overlay.Logging)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Keys.Merge(&overlay.Keys)
	c.Events.Merge(&overlay.Events)
	c.Translation.Merge(&overlay.Translation)
	c.Processing.Merge(&overlay.Processing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Keys.Finalize(keysEnv); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := c.Events.Finalize(eventsEnv); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := c.Translation.Finalize(translationEnv); err != nil {
		return fmt.Errorf("translation: %w", err)
	}
	if err := c.Processing.Finalize(processingEnv); err != nil {
		return fmt.Errorf("processing: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvStrongboxShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvStrongboxVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvStrongboxEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
