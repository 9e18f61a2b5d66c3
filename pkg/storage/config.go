package storage

import (
	"fmt"
	"os"
	"strconv"
)

// Supported backends.
const (
	BackendFilesystem = "filesystem"
	BackendAzure      = "azure"
	BackendS3         = "s3"
)

// Config selects a storage backend and holds the settings for each.
type Config struct {
	Backend    string           `toml:"backend"`
	Filesystem FilesystemConfig `toml:"filesystem"`
	Azure      AzureConfig      `toml:"azure"`
	S3         S3Config         `toml:"s3"`
}

// FilesystemConfig holds local directory storage settings.
type FilesystemConfig struct {
	BasePath string `toml:"base_path"`
}

// AzureConfig holds Azure Blob Storage connection parameters.
type AzureConfig struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// S3Config holds S3 or S3-compatible connection parameters.
type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	BaseEndpoint string `toml:"base_endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
	SpoolDir     string `toml:"spool_dir"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend          string
	BasePath         string
	ContainerName    string
	ConnectionString string
	Bucket           string
	Region           string
	BaseEndpoint     string
	AccessKey        string
	SecretKey        string
	UsePathStyle     string
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
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Filesystem.BasePath != "" {
		c.Filesystem.BasePath = overlay.Filesystem.BasePath
	}
	if overlay.Azure.ContainerName != "" {
		c.Azure.ContainerName = overlay.Azure.ContainerName
	}
	if overlay.Azure.ConnectionString != "" {
		c.Azure.ConnectionString = overlay.Azure.ConnectionString
	}
	if overlay.S3.Bucket != "" {
		c.S3.Bucket = overlay.S3.Bucket
	}
	if overlay.S3.Region != "" {
		c.S3.Region = overlay.S3.Region
	}
	if overlay.S3.BaseEndpoint != "" {
		c.S3.BaseEndpoint = overlay.S3.BaseEndpoint
	}
	if overlay.S3.AccessKey != "" {
		c.S3.AccessKey = overlay.S3.AccessKey
	}
	if overlay.S3.SecretKey != "" {
		c.S3.SecretKey = overlay.S3.SecretKey
	}
	if overlay.S3.UsePathStyle {
		c.S3.UsePathStyle = true
	}
	if overlay.S3.SpoolDir != "" {
		c.S3.SpoolDir = overlay.S3.SpoolDir
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.Filesystem.BasePath == "" {
		c.Filesystem.BasePath = "data/blobs"
	}
	if c.Azure.ContainerName == "" {
		c.Azure.ContainerName = "files"
	}
	if c.S3.Bucket == "" {
		c.S3.Bucket = "strongbox"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.S3.SpoolDir == "" {
		c.S3.SpoolDir = os.TempDir()
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Backend, &c.Backend)
	set(env.BasePath, &c.Filesystem.BasePath)
	set(env.ContainerName, &c.Azure.ContainerName)
	set(env.ConnectionString, &c.Azure.ConnectionString)
	set(env.Bucket, &c.S3.Bucket)
	set(env.Region, &c.S3.Region)
	set(env.BaseEndpoint, &c.S3.BaseEndpoint)
	set(env.AccessKey, &c.S3.AccessKey)
	set(env.SecretKey, &c.S3.SecretKey)

	if env.UsePathStyle != "" {
		if v := os.Getenv(env.UsePathStyle); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.S3.UsePathStyle = b
			}
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.Filesystem.BasePath == "" {
			return fmt.Errorf("filesystem.base_path required")
		}
	case BackendAzure:
		if c.Azure.ContainerName == "" {
			return fmt.Errorf("azure.container_name required")
		}
		if c.Azure.ConnectionString == "" {
			return fmt.Errorf("azure.connection_string required")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket required")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("s3.region required")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	return nil
}
