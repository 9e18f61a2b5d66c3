package keys

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds master key derivation and caching parameters.
type Config struct {
	ArgonTime      uint32 `toml:"argon_time"`
	ArgonMemoryKiB uint32 `toml:"argon_memory_kib"`
	ArgonThreads   uint8  `toml:"argon_threads"`
	CacheSize      int    `toml:"cache_size"`
	CacheTTL       string `toml:"cache_ttl"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ArgonTime      string
	ArgonMemoryKiB string
	ArgonThreads   string
	CacheSize      string
	CacheTTL       string
}

// CacheTTLDuration returns CacheTTL as a time.Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
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
	if overlay.ArgonTime != 0 {
		c.ArgonTime = overlay.ArgonTime
	}
	if overlay.ArgonMemoryKiB != 0 {
		c.ArgonMemoryKiB = overlay.ArgonMemoryKiB
	}
	if overlay.ArgonThreads != 0 {
		c.ArgonThreads = overlay.ArgonThreads
	}
	if overlay.CacheSize != 0 {
		c.CacheSize = overlay.CacheSize
	}
	if overlay.CacheTTL != "" {
		c.CacheTTL = overlay.CacheTTL
	}
}

func (c *Config) loadDefaults() {
	if c.ArgonTime == 0 {
		c.ArgonTime = 1
	}
	if c.ArgonMemoryKiB == 0 {
		c.ArgonMemoryKiB = 64 * 1024
	}
	if c.ArgonThreads == 0 {
		c.ArgonThreads = 4
	}
	if c.CacheSize == 0 {
		c.CacheSize = 1024
	}
	if c.CacheTTL == "" {
		c.CacheTTL = "10m"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ArgonTime != "" {
		if v := os.Getenv(env.ArgonTime); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.ArgonTime = uint32(n)
			}
		}
	}
	if env.ArgonMemoryKiB != "" {
		if v := os.Getenv(env.ArgonMemoryKiB); v != "" {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.ArgonMemoryKiB = uint32(n)
			}
		}
	}
	if env.ArgonThreads != "" {
		if v := os.Getenv(env.ArgonThreads); v != "" {
			if n, err := strconv.ParseUint(v, 10, 8); err == nil {
				c.ArgonThreads = uint8(n)
			}
		}
	}
	if env.CacheSize != "" {
		if v := os.Getenv(env.CacheSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.CacheSize = n
			}
		}
	}
	if env.CacheTTL != "" {
		if v := os.Getenv(env.CacheTTL); v != "" {
			c.CacheTTL = v
		}
	}
}

func (c *Config) validate() error {
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative")
	}
	if d, err := time.ParseDuration(c.CacheTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid cache_ttl: %s", c.CacheTTL)
	}
	return nil
}
