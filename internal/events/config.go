package events

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds dispatcher sizing and retry settings.
type Config struct {
	Workers        int    `toml:"workers"`
	QueueSize      int    `toml:"queue_size"`
	PublishTimeout string `toml:"publish_timeout"`
	MaxRetries     uint64 `toml:"max_retries"`
	InitialBackoff string `toml:"initial_backoff"`
	MaxBackoff     string `toml:"max_backoff"`
	TombstoneSize  int    `toml:"tombstone_size"`
	TombstoneTTL   string `toml:"tombstone_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Workers        string
	QueueSize      string
	PublishTimeout string
	MaxRetries     string
	InitialBackoff string
	MaxBackoff     string
	TombstoneSize  string
	TombstoneTTL   string
}

// PublishTimeoutDuration returns PublishTimeout as a time.Duration.
func (c *Config) PublishTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PublishTimeout)
	return d
}

// InitialBackoffDuration returns InitialBackoff as a time.Duration.
func (c *Config) InitialBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.InitialBackoff)
	return d
}

// MaxBackoffDuration returns MaxBackoff as a time.Duration.
func (c *Config) MaxBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxBackoff)
	return d
}

// TombstoneTTLDuration returns TombstoneTTL as a time.Duration.
func (c *Config) TombstoneTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TombstoneTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.PublishTimeout != "" {
		c.PublishTimeout = overlay.PublishTimeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.InitialBackoff != "" {
		c.InitialBackoff = overlay.InitialBackoff
	}
	if overlay.MaxBackoff != "" {
		c.MaxBackoff = overlay.MaxBackoff
	}
	if overlay.TombstoneSize != 0 {
		c.TombstoneSize = overlay.TombstoneSize
	}
	if overlay.TombstoneTTL != "" {
		c.TombstoneTTL = overlay.TombstoneTTL
	}
}

func (c *Config) loadDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.PublishTimeout == "" {
		c.PublishTimeout = "2s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.InitialBackoff == "" {
		c.InitialBackoff = "200ms"
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = "10s"
	}
	if c.TombstoneSize <= 0 {
		c.TombstoneSize = 4096
	}
	if c.TombstoneTTL == "" {
		c.TombstoneTTL = "10m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.QueueSize != "" {
		if v := os.Getenv(env.QueueSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.QueueSize = n
			}
		}
	}
	if env.PublishTimeout != "" {
		if v := os.Getenv(env.PublishTimeout); v != "" {
			c.PublishTimeout = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.MaxRetries = n
			}
		}
	}
	if env.InitialBackoff != "" {
		if v := os.Getenv(env.InitialBackoff); v != "" {
			c.InitialBackoff = v
		}
	}
	if env.MaxBackoff != "" {
		if v := os.Getenv(env.MaxBackoff); v != "" {
			c.MaxBackoff = v
		}
	}
	if env.TombstoneSize != "" {
		if v := os.Getenv(env.TombstoneSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.TombstoneSize = n
			}
		}
	}
	if env.TombstoneTTL != "" {
		if v := os.Getenv(env.TombstoneTTL); v != "" {
			c.TombstoneTTL = v
		}
	}
}

func (c *Config) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}
	for name, v := range map[string]string{
		"publish_timeout": c.PublishTimeout,
		"initial_backoff": c.InitialBackoff,
		"max_backoff":     c.MaxBackoff,
		"tombstone_ttl":   c.TombstoneTTL,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %s", name, v)
		}
	}
	return nil
}
