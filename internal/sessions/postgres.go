package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/snare/internal/casefile"
	"github.com/JaimeStill/snare/pkg/pagination"
	"github.com/JaimeStill/snare/pkg/query"
	"github.com/JaimeStill/snare/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sessions", "s").
	Project("id", "ID").
	Project("stage", "Stage").
	Project("terminated", "Terminated").
	Project("category", "Category").
	Project("original_message", "OriginalMessage").
	Project("rounds", "Rounds").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

type pgStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a Store over the sessions table. The full case
// file is kept as jsonb alongside the columns listings filter on.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) Store {
	return &pgStore{
		db:     db,
		logger: logger.With("system", "sessions", "store", DriverPostgres),
	}
}

func (s *pgStore) Create(ctx context.Context, cf *casefile.CaseFile) error {
	args, err := columns(cf)
	if err != nil {
		return err
	}

	q := `
		INSERT INTO sessions(id, stage, terminated, category, original_message, rounds, case_file, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q, args...)
		return struct{}{}, err
	})
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) Save(ctx context.Context, cf *casefile.CaseFile) error {
	args, err := columns(cf)
	if err != nil {
		return err
	}

	q := `
		UPDATE sessions SET
			stage = $2,
			terminated = $3,
			category = $4,
			original_message = $5,
			rounds = $6,
			case_file = $7,
			updated_at = $8
		WHERE id = $1`

	args = append(args[:7:7], cf.UpdatedAt)
	err = repository.ExecExpectOne(ctx, s.db, q, args...)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) Load(ctx context.Context, id uuid.UUID) (*casefile.CaseFile, error) {
	cf, err := repository.QueryOne(
		ctx, s.db,
		"SELECT case_file FROM sessions WHERE id = $1",
		[]any{id},
		scanCaseFile,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return cf, nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, s.db, "DELETE FROM sessions WHERE id = $1", id)
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func (s *pgStore) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "OriginalMessage")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	summaries, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	result := pagination.NewPageResult(summaries, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *pgStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := repository.ExecCount(ctx, s.db, "DELETE FROM sessions WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return int(n), nil
}

// columns returns the insert arguments in column order. Save reuses the
// first seven.
func columns(cf *casefile.CaseFile) ([]any, error) {
	data, err := json.Marshal(cf)
	if err != nil {
		return nil, fmt.Errorf("encode case file: %w", err)
	}

	var category sql.NullString
	if cf.Classification != nil {
		category = sql.NullString{String: string(cf.Classification.PrimaryCategory), Valid: true}
	}

	return []any{
		cf.ID,
		string(cf.Stage),
		cf.Terminated(),
		category,
		cf.OriginalMessage,
		cf.Rounds,
		data,
		cf.CreatedAt,
		cf.UpdatedAt,
	}, nil
}

func scanCaseFile(s repository.Scanner) (*casefile.CaseFile, error) {
	var data []byte
	if err := s.Scan(&data); err != nil {
		return nil, err
	}
	return decodeCaseFile(data)
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var (
		sum      Summary
		category sql.NullString
	)
	err := s.Scan(
		&sum.ID,
		&sum.Stage,
		&sum.Terminated,
		&category,
		&sum.OriginalMessage,
		&sum.Rounds,
		&sum.CreatedAt,
		&sum.UpdatedAt,
	)
	sum.Category = casefile.Category(category.String)
	return sum, err
}
