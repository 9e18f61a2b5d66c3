package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
)

const (
	EnvServerHost              = "STRONGBOX_SERVER_HOST"
	EnvServerPort              = "STRONGBOX_SERVER_PORT"
	EnvServerReadTimeout       = "STRONGBOX_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "STRONGBOX_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "STRONGBOX_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "STRONGBOX_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "STRONGBOX_SERVER_SHUTDOWN_TIMEOUT"
	EnvServerMaxHeaderSize     = "STRONGBOX_SERVER_MAX_HEADER_SIZE"
)

const defaultMaxHeaderBytes = 1 << 20

// ServerConfig holds HTTP listener parameters. Timeouts are Go duration
// strings; MaxHeaderSize is a human-readable size such as "64KB".
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
	MaxHeaderSize     string `toml:"max_header_size"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return parseDuration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return parseDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return parseDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return parseDuration(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout)
}

// MaxHeaderBytes returns MaxHeaderSize in bytes, falling back to 1MiB
// when it does not parse.
func (c *ServerConfig) MaxHeaderBytes() int {
	n, err := units.RAMInBytes(c.MaxHeaderSize)
	if err != nil || n <= 0 {
		return defaultMaxHeaderBytes
	}
	return int(n)
}

func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.MaxHeaderSize != "" {
		c.MaxHeaderSize = overlay.MaxHeaderSize
	}
	for _, d := range c.durations() {
		if v := *d.field(overlay); v != "" {
			*d.field(c) = v
		}
	}
}

// serverDuration ties a duration field to its TOML key, env var, and default.
type serverDuration struct {
	key   string
	env   string
	def   string
	field func(*ServerConfig) *string
}

func (c *ServerConfig) durations() []serverDuration {
	return []serverDuration{
		{"read_timeout", EnvServerReadTimeout, "1m", func(s *ServerConfig) *string { return &s.ReadTimeout }},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", func(s *ServerConfig) *string { return &s.ReadHeaderTimeout }},
		{"write_timeout", EnvServerWriteTimeout, "15m", func(s *ServerConfig) *string { return &s.WriteTimeout }},
		{"idle_timeout", EnvServerIdleTimeout, "2m", func(s *ServerConfig) *string { return &s.IdleTimeout }},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", func(s *ServerConfig) *string { return &s.ShutdownTimeout }},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MaxHeaderSize == "" {
		c.MaxHeaderSize = "1MB"
	}
	for _, d := range c.durations() {
		if p := d.field(c); *p == "" {
			*p = d.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvServerMaxHeaderSize); v != "" {
		c.MaxHeaderSize = v
	}
	for _, d := range c.durations() {
		if v := os.Getenv(d.env); v != "" {
			*d.field(c) = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range c.durations() {
		if _, err := time.ParseDuration(*d.field(c)); err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}
	if n, err := units.RAMInBytes(c.MaxHeaderSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_header_size: %q", c.MaxHeaderSize)
	}
	return nil
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
