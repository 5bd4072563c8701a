package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/secdesk/backend/internal/apperr"
)

// translate wraps a driver error as *apperr.StorageError, keeping the
// SQLSTATE and constraint name when PostgreSQL reported one.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	se := &apperr.StorageError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		se.Code = pgErr.Code
		se.Constraint = pgErr.ConstraintName
	}
	return se
}
