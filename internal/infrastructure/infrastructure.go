// Package infrastructure provides core service initialization for application startup.
// It assembles the shared dependencies (logging, database, storage, completion
// gateway) that domain systems require.
package infrastructure

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/pkg/database"
	"github.com/JaimeStill/snare/pkg/gateway"
	"github.com/JaimeStill/snare/pkg/lifecycle"
	"github.com/JaimeStill/snare/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless a Postgres-backed component is configured, and
// Storage is nil when no blob connection string is set.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Gateway   gateway.Gateway
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gw, err := gateway.New(lc.Context(), &cfg.Gateway, &cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("gateway init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Gateway:   gw,
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	store, err := storage.New(&cfg.Storage, logger)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Info("transcript storage disabled")
	case err != nil:
		return nil, fmt.Errorf("storage init failed: %w", err)
	default:
		infra.Storage = store
	}

	logger.Info(
		"gateway configured",
		"provider", cfg.Gateway.Provider,
		"model", cfg.GatewayModel(),
	)

	return infra, nil
}

// Start registers the configured infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	return nil
}
