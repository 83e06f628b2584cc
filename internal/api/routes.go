package api

import (
	"log/slog"

	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/pkg/module"
	"github.com/JaimeStill/snare/pkg/routes"
)

func registerRoutes(
	m *module.Module,
	domain *Domain,
	cfg *config.Config,
	logger *slog.Logger,
) {
	groups := []routes.Group{
		domain.Sessions.Handler(cfg.API.MaxBodySizeBytes()).Routes(),
		metrics.NewHandler(domain.Ledger).Routes(),
	}

	m.Register(groups...)
	logger.Debug("routes registered", "prefix", m.Prefix(), "patterns", routes.Patterns(groups...))
}
