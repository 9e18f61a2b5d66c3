package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode    = "23505"
	pgForeignKeyCode      = "23503"
	pgInvalidTextReprCode = "22P02"
)

// MapError translates database errors to domain errors.
// sql.ErrNoRows, foreign key violations (23503) and malformed identifiers (22P02)
// map to notFoundErr; unique violations (23505) map to duplicateErr.
// Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgDuplicateKeyCode:
			return duplicateErr
		case pgForeignKeyCode, pgInvalidTextReprCode:
			return notFoundErr
		}
	}

	return err
}
