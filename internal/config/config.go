// Package config loads the service configuration from config.toml, an
// optional config.<SNARE_ENV>.toml overlay, and SNARE_* environment
// variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/snare/internal/sessions"
	"github.com/JaimeStill/snare/pkg/database"
	"github.com/JaimeStill/snare/pkg/gateway"
	"github.com/JaimeStill/snare/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvSnareEnv             = "SNARE_ENV"
	EnvSnareShutdownTimeout = "SNARE_SHUTDOWN_TIMEOUT"
	EnvSnareVersion         = "SNARE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "SNARE_DB_HOST",
	Port:            "SNARE_DB_PORT",
	Name:            "SNARE_DB_NAME",
	User:            "SNARE_DB_USER",
	Password:        "SNARE_DB_PASSWORD",
	SSLMode:         "SNARE_DB_SSL_MODE",
	MaxOpenConns:    "SNARE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "SNARE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "SNARE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "SNARE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "SNARE_STORAGE_CONTAINER_NAME",
	ConnectionString: "SNARE_STORAGE_CONNECTION_STRING",
	AccountURL:       "SNARE_STORAGE_ACCOUNT_URL",
	MaxRetries:       "SNARE_STORAGE_MAX_RETRIES",
}

var gatewayEnv = &gateway.Env{
	Provider: "SNARE_GATEWAY_PROVIDER",
	BaseURL:  "SNARE_GATEWAY_BASE_URL",
	APIKey:   "SNARE_GATEWAY_API_KEY",
	Model:    "SNARE_GATEWAY_MODEL",
	Timeout:  "SNARE_GATEWAY_TIMEOUT",
}

var sessionsEnv = &sessions.Env{
	Store:           "SNARE_SESSIONS_STORE",
	IdleTimeout:     "SNARE_SESSIONS_IDLE_TIMEOUT",
	JanitorInterval: "SNARE_SESSIONS_JANITOR_INTERVAL",
	ExportPrefix:    "SNARE_SESSIONS_EXPORT_PREFIX",
}

// Config is the root configuration for the snare service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Gateway         gateway.Config       `toml:"gateway"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Pipeline        PipelineConfig       `toml:"pipeline"`
	Sessions        sessions.Config      `toml:"sessions"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the SNARE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvSnareEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// GatewayModel names the model behind the configured gateway provider.
func (c *Config) GatewayModel() string {
	if c.Gateway.Provider == gateway.ProviderOpenAI && c.Agent.Model != nil {
		return c.Agent.Model.Name
	}
	return c.Gateway.Model
}

// UsesDatabase reports whether any configured component needs Postgres.
func (c *Config) UsesDatabase() bool {
	return c.Sessions.Store == sessions.DriverPostgres
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Gateway.Merge(&overlay.Gateway)
	c.Agent.Merge(&overlay.Agent)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Sessions.Merge(&overlay.Sessions)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Sessions.Finalize(sessionsEnv); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if c.UsesDatabase() {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Gateway.Finalize(gatewayEnv); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvSnareShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvSnareVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvSnareEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
