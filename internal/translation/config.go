package translation

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultEndpoint is the Youdao text translation API.
const DefaultEndpoint = "https://openapi.youdao.com/api"

// Config holds provider credentials and layout settings.
// AppKey and AppSecret may be empty, in which case translation is disabled.
type Config struct {
	Endpoint    string `toml:"endpoint"`
	AppKey      string `toml:"app_key"`
	AppSecret   string `toml:"app_secret"`
	SegmentSize int    `toml:"segment_size"`
	FontPath    string `toml:"font_path"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Endpoint    string
	AppKey      string
	AppSecret   string
	SegmentSize string
	FontPath    string
}

// Enabled reports whether provider credentials are configured.
func (c *Config) Enabled() bool {
	return c.AppKey != "" && c.AppSecret != ""
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
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AppKey != "" {
		c.AppKey = overlay.AppKey
	}
	if overlay.AppSecret != "" {
		c.AppSecret = overlay.AppSecret
	}
	if overlay.SegmentSize != 0 {
		c.SegmentSize = overlay.SegmentSize
	}
	if overlay.FontPath != "" {
		c.FontPath = overlay.FontPath
	}
}

func (c *Config) loadDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.SegmentSize <= 0 {
		c.SegmentSize = SegmentSize
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	if env.AppKey != "" {
		if v := os.Getenv(env.AppKey); v != "" {
			c.AppKey = v
		}
	}
	if env.AppSecret != "" {
		if v := os.Getenv(env.AppSecret); v != "" {
			c.AppSecret = v
		}
	}
	if env.SegmentSize != "" {
		if v := os.Getenv(env.SegmentSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.SegmentSize = n
			}
		}
	}
	if env.FontPath != "" {
		if v := os.Getenv(env.FontPath); v != "" {
			c.FontPath = v
		}
	}
}

func (c *Config) validate() error {
	if c.SegmentSize <= 0 {
		return fmt.Errorf("segment_size must be positive")
	}
	if (c.AppKey == "") != (c.AppSecret == "") {
		return fmt.Errorf("app_key and app_secret must be set together")
	}
	if c.FontPath != "" {
		if _, err := os.Stat(c.FontPath); err != nil {
			return fmt.Errorf("font_path: %w", err)
		}
	}
	return nil
}
