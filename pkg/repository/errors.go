package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes with a domain meaning.
const (
	codeUniqueViolation = "23505"
	codeSerialization   = "40001"
)

// ErrConflict reports a transaction that lost a serialization race and may be retried.
var ErrConflict = errors.New("concurrent update conflict")

// MapError translates driver errors into domain errors.
//
// Missing rows become notFoundErr. A unique violation becomes duplicateErr,
// wrapped with the violated constraint name when the server reports one.
// Serialization failures become ErrConflict. Anything else passes through.
func MapError(err error, notFoundErr, duplicateErr error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		if pgErr.ConstraintName == "" {
			return duplicateErr
		}
		return fmt.Errorf("%w: %s", duplicateErr, pgErr.ConstraintName)
	case codeSerialization:
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	default:
		return err
	}
}
