package config

import (
	"fmt"
	"os"

	"github.com/docker/go-units"

	"github.com/JaimeStill/strongbox/pkg/middleware"
)

const defaultMaxUploadSize = 50 << 20

var corsEnv = &middleware.CORSEnv{
	Enabled:          "STRONGBOX_CORS_ENABLED",
	Origins:          "STRONGBOX_CORS_ORIGINS",
	AllowedMethods:   "STRONGBOX_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "STRONGBOX_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "STRONGBOX_CORS_EXPOSED_HEADERS",
	AllowCredentials: "STRONGBOX_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "STRONGBOX_CORS_MAX_AGE",
}

// APIConfig holds API routing, upload limits and CORS settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
}

// MaxUploadSizeBytes parses MaxUploadSize with binary units ("50MB" is 50 MiB),
// falling back to 50 MiB when the value does not parse.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := units.RAMInBytes(c.MaxUploadSize)
	if err != nil || size <= 0 {
		return defaultMaxUploadSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("STRONGBOX_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("STRONGBOX_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if size, err := units.RAMInBytes(c.MaxUploadSize); err != nil || size <= 0 {
		return fmt.Errorf("invalid max_upload_size: %q", c.MaxUploadSize)
	}
	return nil
}
