package processing

import (
	"fmt"
	"os"
	"strconv"

	"github.com/docker/go-units"
)

// Config holds rendition sizes and limits for post-processing.
type Config struct {
	WebSize    int    `toml:"web_size"`
	ThumbSize  int    `toml:"thumb_size"`
	Quality    int    `toml:"quality"`
	DPI        int    `toml:"dpi"`
	MaxSource  string `toml:"max_source"`
	TempDir    string `toml:"temp_dir"`
	DisablePDF bool   `toml:"disable_pdf"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	WebSize    string
	ThumbSize  string
	Quality    string
	DPI        string
	MaxSource  string
	TempDir    string
	DisablePDF string
}

// MaxSourceBytes returns MaxSource in bytes.
func (c *Config) MaxSourceBytes() int64 {
	n, _ := units.RAMInBytes(c.MaxSource)
	return n
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
	if overlay.WebSize != 0 {
		c.WebSize = overlay.WebSize
	}
	if overlay.ThumbSize != 0 {
		c.ThumbSize = overlay.ThumbSize
	}
	if overlay.Quality != 0 {
		c.Quality = overlay.Quality
	}
	if overlay.DPI != 0 {
		c.DPI = overlay.DPI
	}
	if overlay.MaxSource != "" {
		c.MaxSource = overlay.MaxSource
	}
	if overlay.TempDir != "" {
		c.TempDir = overlay.TempDir
	}
	if overlay.DisablePDF {
		c.DisablePDF = true
	}
}

func (c *Config) loadDefaults() {
	if c.WebSize <= 0 {
		c.WebSize = 1280
	}
	if c.ThumbSize <= 0 {
		c.ThumbSize = 256
	}
	if c.Quality <= 0 {
		c.Quality = 85
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
	if c.MaxSource == "" {
		c.MaxSource = "64MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	ints := []struct {
		name string
		dst  *int
	}{
		{env.WebSize, &c.WebSize},
		{env.ThumbSize, &c.ThumbSize},
		{env.Quality, &c.Quality},
		{env.DPI, &c.DPI},
	}
	for _, f := range ints {
		if f.name == "" {
			continue
		}
		if v := os.Getenv(f.name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*f.dst = n
			}
		}
	}

	if env.MaxSource != "" {
		if v := os.Getenv(env.MaxSource); v != "" {
			c.MaxSource = v
		}
	}
	if env.TempDir != "" {
		if v := os.Getenv(env.TempDir); v != "" {
			c.TempDir = v
		}
	}
	if env.DisablePDF != "" {
		if v := os.Getenv(env.DisablePDF); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.DisablePDF = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.ThumbSize <= 0 || c.WebSize < c.ThumbSize {
		return fmt.Errorf("web_size (%d) must be at least thumb_size (%d) and both positive", c.WebSize, c.ThumbSize)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100: %d", c.Quality)
	}
	if n, err := units.RAMInBytes(c.MaxSource); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_source: %s", c.MaxSource)
	}
	return nil
}
