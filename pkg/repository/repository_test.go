package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/snare/pkg/repository"
)

var (
	errMissing = errors.New("missing")
	errTaken   = errors.New("taken")
)

type result int64

func (r result) LastInsertId() (int64, error) { return 0, errors.New("unsupported") }
func (r result) RowsAffected() (int64, error) { return int64(r), nil }

type executor struct {
	affected int64
	err      error
	query    string
	args     []any
}

func (e *executor) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	e.query, e.args = query, args
	if e.err != nil {
		return nil, e.err
	}
	return result(e.affected), nil
}

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")
	foreignKey := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name    string
		err     error
		want    error
		wantMsg string
	}{
		{"nil", nil, nil, ""},
		{"no rows", sql.ErrNoRows, errMissing, "missing"},
		{"wrapped no rows", fmt.Errorf("load: %w", sql.ErrNoRows), errMissing, "missing"},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errTaken, "taken"},
		{"named constraint", &pgconn.PgError{Code: "23505", ConstraintName: "sessions_pkey"}, errTaken, "taken: sessions_pkey"},
		{"serialization", &pgconn.PgError{Code: "40001", Message: "could not serialize"}, repository.ErrConflict, "concurrent update conflict: could not serialize"},
		{"other pg error", foreignKey, foreignKey, foreignKey.Error()},
		{"passthrough", other, other, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errMissing, errTaken)
			if !errors.Is(got, tt.want) {
				t.Fatalf("MapError() = %v, want %v", got, tt.want)
			}
			if got != nil && got.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", got.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExecExpectOne(t *testing.T) {
	ctx := context.Background()

	t.Run("one row", func(t *testing.T) {
		e := &executor{affected: 1}
		if err := repository.ExecExpectOne(ctx, e, "DELETE FROM sessions WHERE id = $1", "abc"); err != nil {
			t.Fatalf("ExecExpectOne() error = %v", err)
		}
		if e.query != "DELETE FROM sessions WHERE id = $1" || len(e.args) != 1 || e.args[0] != "abc" {
			t.Errorf("executed %q %v", e.query, e.args)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		err := repository.ExecExpectOne(ctx, &executor{}, "DELETE FROM sessions")
		if !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("ExecExpectOne() error = %v, want sql.ErrNoRows", err)
		}
	})

	t.Run("exec error", func(t *testing.T) {
		boom := errors.New("boom")
		if err := repository.ExecExpectOne(ctx, &executor{err: boom}, "DELETE"); !errors.Is(err, boom) {
			t.Errorf("ExecExpectOne() error = %v, want boom", err)
		}
	})
}

func TestExecCount(t *testing.T) {
	n, err := repository.ExecCount(context.Background(), &executor{affected: 7}, "DELETE FROM sessions WHERE updated_at < $1")
	if err != nil {
		t.Fatalf("ExecCount() error = %v", err)
	}
	if n != 7 {
		t.Errorf("ExecCount() = %d, want 7", n)
	}
}
