package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/internal/metrics"
	"github.com/JaimeStill/snare/internal/pipeline"
	"github.com/JaimeStill/snare/pkg/formatting"
	"github.com/JaimeStill/snare/pkg/lifecycle"
	"github.com/JaimeStill/snare/pkg/pagination"
	"github.com/JaimeStill/snare/pkg/storage"
)

type repo struct {
	store      Store
	pipeline   *pipeline.Orchestrator
	sink       metrics.Store
	exporter   storage.Blobs
	cfg        Config
	logger     *slog.Logger
	pagination pagination.Config
	busy       sync.Map
	now        func() time.Time
}

// New creates a session system implementing the System interface. sink may
// be nil to skip metrics persistence and exporter may be nil to disable
// transcript export.
func New(
	store Store,
	orchestrator *pipeline.Orchestrator,
	sink metrics.Store,
	exporter storage.Blobs,
	cfg Config,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	if sink == nil {
		sink = metrics.Discard{}
	}
	return &repo{
		store:      store,
		pipeline:   orchestrator,
		sink:       sink,
		exporter:   exporter,
		cfg:        cfg,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (r *repo) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBodySize)
}

func (r *repo) Start(lc *lifecycle.Coordinator) error {
	interval := r.cfg.JanitorIntervalDuration()
	if interval <= 0 {
		r.logger.Info("session janitor disabled")
		return nil
	}

	r.logger.Info("starting session janitor", "interval", interval, "idle_timeout", r.cfg.IdleTimeout)

	lc.OnShutdown(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-lc.Context().Done():
				r.logger.Info("session janitor stopped")
				return
			case <-ticker.C:
				if _, err := r.Prune(lc.Context()); err != nil {
					r.logger.Error("session prune failed", "error", err)
				}
			}
		}
	})

	return nil
}

func (r *repo) Open(ctx context.Context, message string) (*Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	cf := casefile.New(message, r.now())

	response, err := r.pipeline.Open(ctx, cf)
	if err != nil {
		return nil, err
	}

	if err := r.store.Create(ctx, cf); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	r.logger.Info(
		"session opened",
		"id", cf.ID,
		"stage", cf.Stage,
		"terminated", cf.Terminated(),
	)
	return newExchange(cf, response, nil), nil
}

func (r *repo) Reply(ctx context.Context, id uuid.UUID, message string) (*Exchange, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	release, err := r.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	cf, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	out, err := r.pipeline.Respond(ctx, cf, message)
	if err != nil {
		return nil, err
	}

	// The judgment is already in the ledger; a lost save leaves it counted.
	if err := r.store.Save(ctx, cf); err != nil {
		r.logger.Error(
			"session save failed after judgment recorded",
			"id", cf.ID,
			"round", cf.Rounds,
			"action", out.Action,
			"error", err,
		)
		return nil, fmt.Errorf("store session: %w", err)
	}

	if err := r.sink.Persist(ctx, r.pipeline.Ledger().Snapshot()); err != nil {
		r.logger.Warn("metrics persist failed", "error", err)
	}

	r.logger.Info(
		"session replied",
		"id", cf.ID,
		"action", out.Action,
		"round", cf.Rounds,
		"terminated", out.Terminated,
	)
	return newExchange(cf, out.Response, &out), nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*casefile.CaseFile, error) {
	return r.store.Load(ctx, id)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)
	return r.store.List(ctx, page, filters)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	release, err := r.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}

	if r.exporter != nil {
		key := r.transcriptKey(id)
		if err := r.exporter.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("transcript delete failed after session delete", "key", key, "error", err)
		}
	}

	r.logger.Info("session deleted", "id", id)
	return nil
}

func (r *repo) Export(ctx context.Context, id uuid.UUID) (*ExportResult, error) {
	if r.exporter == nil {
		return nil, ErrExportDisabled
	}

	cf, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(NewTranscript(cf, r.now()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}

	key := r.transcriptKey(id)
	if err := r.exporter.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return nil, fmt.Errorf("export transcript: %w", err)
	}

	size := formatting.FormatBytes(int64(len(data)), 1)
	r.logger.Info("transcript exported", "id", id, "key", key, "size", size)

	return &ExportResult{SessionID: id, Key: key, Size: size}, nil
}

func (r *repo) Transcript(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if r.exporter == nil {
		return nil, ErrExportDisabled
	}
	return r.exporter.Download(ctx, r.transcriptKey(id))
}

func (r *repo) Prune(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.cfg.IdleTimeoutDuration())

	n, err := r.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if n > 0 {
		r.logger.Info("idle sessions pruned", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// acquire marks id as in use until the returned release is called.
func (r *repo) acquire(id uuid.UUID) (func(), error) {
	if _, held := r.busy.LoadOrStore(id, struct{}{}); held {
		return nil, ErrSessionBusy
	}
	return func() { r.busy.Delete(id) }, nil
}

func (r *repo) transcriptKey(id uuid.UUID) string {
	return path.Join(r.cfg.ExportPrefix, id.String()+".json")
}
