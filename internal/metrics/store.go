package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/snare/internal/casefile"
)

// Store persists ledger snapshots between process runs.
type Store interface {
	Persist(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// Discard is a Store that keeps nothing.
type Discard struct{}

func (Discard) Persist(context.Context, Snapshot) error { return nil }

func (Discard) Load(context.Context) (Snapshot, error) { return Snapshot{}, nil }

type pgStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed snapshot store writing the single row
// of the metrics_snapshot table.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &pgStore{
		db:     db,
		logger: logger.With("system", "metrics"),
	}
}

func (s *pgStore) Persist(ctx context.Context, snap Snapshot) error {
	counts, err := json.Marshal(snap.VerdictCounts)
	if err != nil {
		return fmt.Errorf("marshal verdict counts: %w", err)
	}

	q := `
		INSERT INTO metrics_snapshot(
			id, count,
			sum_attractiveness, attractiveness_count,
			sum_feasibility, feasibility_count,
			verdict_counts, updated_at
		)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			count = EXCLUDED.count,
			sum_attractiveness = EXCLUDED.sum_attractiveness,
			attractiveness_count = EXCLUDED.attractiveness_count,
			sum_feasibility = EXCLUDED.sum_feasibility,
			feasibility_count = EXCLUDED.feasibility_count,
			verdict_counts = EXCLUDED.verdict_counts,
			updated_at = EXCLUDED.updated_at
		WHERE metrics_snapshot.count <= EXCLUDED.count`

	_, err = s.db.ExecContext(
		ctx, q,
		snap.Count,
		snap.SumAttractiveness, snap.AttractivenessCount,
		snap.SumFeasibility, snap.FeasibilityCount,
		counts, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("persist metrics: %w", err)
	}
	return nil
}

func (s *pgStore) Load(ctx context.Context) (Snapshot, error) {
	q := `
		SELECT count,
			sum_attractiveness, attractiveness_count,
			sum_feasibility, feasibility_count,
			verdict_counts, updated_at
		FROM metrics_snapshot
		WHERE id = 1`

	var (
		snap   Snapshot
		counts []byte
	)

	err := s.db.QueryRowContext(ctx, q).Scan(
		&snap.Count,
		&snap.SumAttractiveness, &snap.AttractivenessCount,
		&snap.SumFeasibility, &snap.FeasibilityCount,
		&counts, &snap.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load metrics: %w", err)
	}

	snap.VerdictCounts = make(map[casefile.Verdict]int)
	if err := json.Unmarshal(counts, &snap.VerdictCounts); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal verdict counts: %w", err)
	}

	s.logger.Info("metrics restored", "count", snap.Count)
	return snap, nil
}
