// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/internal/infrastructure"
	"github.com/JaimeStill/snare/pkg/middleware"
	"github.com/JaimeStill/snare/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and registers the domain's lifecycle hooks.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := domain.Start(runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath)
	registerRoutes(m, domain, cfg, runtime.Logger)

	m.Use(
		middleware.RequestID(),
		middleware.Logger(runtime.Logger),
		middleware.Recover(runtime.Logger),
		middleware.CORS(&cfg.API.CORS),
	)

	return m, nil
}
