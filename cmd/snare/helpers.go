package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/snare/internal/config"
	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/internal/pipeline"
	"github.com/JaimeStill/snare/pkg/gateway"
)

type console struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Orchestrator
	ledger   *metrics.Ledger
}

func newConsole(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*console, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), flags.verbose)

	gw, err := gateway.New(ctx, &cfg.Gateway, &cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}

	ledger := metrics.NewLedger()
	orchestrator := pipeline.New(pipeline.Runtime{
		Gateway:       gw,
		Ledger:        ledger,
		Params:        cfg.Pipeline.Params(),
		Timeout:       cfg.Gateway.TimeoutDuration(),
		HistoryWindow: cfg.Pipeline.HistoryWindow,
		Logger:        logger,
	})

	return &console{
		cfg:      cfg,
		logger:   logger,
		pipeline: orchestrator,
		ledger:   ledger,
	}, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
