package main

import (
	"github.com/JaimeStill/snare/internal/api"
	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/internal/infrastructure"
	"github.com/JaimeStill/snare/pkg/module"
)

// Modules holds the prefix-mounted HTTP modules served by the process.
type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleProbes(infra.Lifecycle)
	return router
}
