package api

import (
	"context"
	"time"

	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/internal/pipeline"
	"github.com/JaimeStill/snare/internal/sessions"
)

const restoreTimeout = 10 * time.Second

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Ledger   *metrics.Ledger
	Sink     metrics.Store
	Pipeline *pipeline.Orchestrator
	Sessions sessions.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	cfg := runtime.Config

	ledger := metrics.NewLedger()

	var sink metrics.Store = metrics.Discard{}
	store := sessions.NewMemoryStore()
	if runtime.Database != nil {
		sink = metrics.NewStore(runtime.Database.Connection(), runtime.Logger)
		store = sessions.NewPostgresStore(runtime.Database.Connection(), runtime.Logger)
	}

	orchestrator := pipeline.New(pipeline.Runtime{
		Gateway:       runtime.Gateway,
		Ledger:        ledger,
		Params:        cfg.Pipeline.Params(),
		Timeout:       cfg.Gateway.TimeoutDuration(),
		HistoryWindow: cfg.Pipeline.HistoryWindow,
		Logger:        runtime.Logger,
	})

	sessionsSystem := sessions.New(
		store,
		orchestrator,
		sink,
		runtime.Storage,
		cfg.Sessions,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Ledger:   ledger,
		Sink:     sink,
		Pipeline: orchestrator,
		Sessions: sessionsSystem,
	}
}

// Start restores persisted metrics and starts the session janitor.
func (d *Domain) Start(runtime *Runtime) error {
	lc := runtime.Lifecycle

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), restoreTimeout)
		defer cancel()

		snap, err := d.Sink.Load(ctx)
		if err != nil {
			runtime.Logger.Error("metrics restore failed", "error", err)
			return
		}
		d.Ledger.Absorb(snap)
	})

	return d.Sessions.Start(lc)
}
