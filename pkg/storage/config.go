package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config holds Azure Blob Storage connection parameters. Storage is enabled
// by either a ConnectionString (shared key) or an AccountURL, which
// authenticates with the ambient Azure identity. Setting neither disables it.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	MaxRetries       int    `toml:"max_retries"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
	MaxRetries       string
}

// Enabled reports whether a connection string or account URL is configured.
func (c *Config) Enabled() bool {
	return c.ConnectionString != "" || c.AccountURL != ""
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
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.AccountURL != "" {
		c.AccountURL = overlay.AccountURL
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "snare"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
}

func (c *Config) loadEnv(env *Env) {
	for name, dst := range map[string]*string{
		env.ContainerName:    &c.ContainerName,
		env.ConnectionString: &c.ConnectionString,
		env.AccountURL:       &c.AccountURL,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if env.MaxRetries != "" {
		if n, err := strconv.Atoi(os.Getenv(env.MaxRetries)); err == nil {
			c.MaxRetries = n
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return errors.New("container_name required")
	}
	if c.ConnectionString != "" && c.AccountURL != "" {
		return errors.New("connection_string and account_url are mutually exclusive")
	}
	if c.AccountURL != "" {
		u, err := url.Parse(c.AccountURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("account_url must be an https URL: %q", c.AccountURL)
		}
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative: %d", c.MaxRetries)
	}
	return nil
}
