package sessions

import (
	"fmt"
	"os"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds session persistence and housekeeping settings.
type Config struct {
	Store           string `toml:"store"`
	IdleTimeout     string `toml:"idle_timeout"`
	JanitorInterval string `toml:"janitor_interval"`
	ExportPrefix    string `toml:"export_prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Store           string
	IdleTimeout     string
	JanitorInterval string
	ExportPrefix    string
}

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *Config) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

// JanitorIntervalDuration returns JanitorInterval as a time.Duration. Zero
// disables the janitor.
func (c *Config) JanitorIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.JanitorInterval)
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
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.JanitorInterval != "" {
		c.JanitorInterval = overlay.JanitorInterval
	}
	if overlay.ExportPrefix != "" {
		c.ExportPrefix = overlay.ExportPrefix
	}
}

func (c *Config) loadDefaults() {
	if c.Store == "" {
		c.Store = DriverMemory
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "24h"
	}
	if c.JanitorInterval == "" {
		c.JanitorInterval = "10m"
	}
	if c.ExportPrefix == "" {
		c.ExportPrefix = "transcripts"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Store != "" {
		if v := os.Getenv(env.Store); v != "" {
			c.Store = v
		}
	}
	if env.IdleTimeout != "" {
		if v := os.Getenv(env.IdleTimeout); v != "" {
			c.IdleTimeout = v
		}
	}
	if env.JanitorInterval != "" {
		if v := os.Getenv(env.JanitorInterval); v != "" {
			c.JanitorInterval = v
		}
	}
	if env.ExportPrefix != "" {
		if v := os.Getenv(env.ExportPrefix); v != "" {
			c.ExportPrefix = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Store {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if d, err := time.ParseDuration(c.IdleTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid idle_timeout: %q", c.IdleTimeout)
	}
	if d, err := time.ParseDuration(c.JanitorInterval); err != nil || d < 0 {
		return fmt.Errorf("invalid janitor_interval: %q", c.JanitorInterval)
	}
	return nil
}
