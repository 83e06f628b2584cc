package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "SNARE_SERVER_HOST"
	EnvServerPort              = "SNARE_SERVER_PORT"
	EnvServerReadTimeout       = "SNARE_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "SNARE_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "SNARE_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "SNARE_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "SNARE_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Timeouts are Go duration
// strings. WriteTimeout bounds a whole reply, which may span several model
// calls, so its default is generous.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration       { return duration(c.ReadTimeout) }
func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration { return duration(c.ReadHeaderTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration      { return duration(c.WriteTimeout) }
func (c *ServerConfig) IdleTimeoutDuration() time.Duration       { return duration(c.IdleTimeout) }

// ShutdownTimeoutDuration bounds how long in-flight requests may drain.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// Finalize applies defaults, environment variable overrides, and validation.
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
	for dst, src := range c.timeouts(overlay) {
		if src != "" {
			*dst = src
		}
	}
}

// timeouts pairs each timeout field of c with the same field of other.
func (c *ServerConfig) timeouts(other *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.ReadTimeout:       other.ReadTimeout,
		&c.ReadHeaderTimeout: other.ReadHeaderTimeout,
		&c.WriteTimeout:      other.WriteTimeout,
		&c.IdleTimeout:       other.IdleTimeout,
		&c.ShutdownTimeout:   other.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	c.Merge(&ServerConfig{
		ReadTimeout:       orDefault(c.ReadTimeout, "30s"),
		ReadHeaderTimeout: orDefault(c.ReadHeaderTimeout, "10s"),
		WriteTimeout:      orDefault(c.WriteTimeout, "5m"),
		IdleTimeout:       orDefault(c.IdleTimeout, "2m"),
		ShutdownTimeout:   orDefault(c.ShutdownTimeout, "30s"),
	})
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
	c.Merge(&ServerConfig{
		ReadTimeout:       os.Getenv(EnvServerReadTimeout),
		ReadHeaderTimeout: os.Getenv(EnvServerReadHeaderTimeout),
		WriteTimeout:      os.Getenv(EnvServerWriteTimeout),
		IdleTimeout:       os.Getenv(EnvServerIdleTimeout),
		ShutdownTimeout:   os.Getenv(EnvServerShutdownTimeout),
	})
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for name, v := range map[string]string{
		"read_timeout":        c.ReadTimeout,
		"read_header_timeout": c.ReadHeaderTimeout,
		"write_timeout":       c.WriteTimeout,
		"idle_timeout":        c.IdleTimeout,
		"shutdown_timeout":    c.ShutdownTimeout,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
