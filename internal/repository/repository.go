package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrReferenced is returned when a delete would orphan dependent rows.
var ErrReferenced = errors.New("row is referenced by other records")

// ErrStaleTransition is returned when a conditional status update matched no
// row: the ticket is missing or no longer in the expected state.
var ErrStaleTransition = errors.New("ticket state changed")

// ErrDuplicate is returned when a write collides with a unique key.
var ErrDuplicate = errors.New("row already exists")

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return ErrReferenced
		case pgUniqueViolation:
			return ErrDuplicate
		}
	}
	return err
}
