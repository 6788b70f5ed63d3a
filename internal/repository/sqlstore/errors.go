package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classify maps a driver error onto a repository sentinel, or returns nil
// when the error has no portable meaning.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPgCode(string(pqErr.Code))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgCode(pgErr.Code)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return repository.ErrConcurrentModification
		case sqlite3.ErrConstraint:
			if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return repository.ErrDuplicateEntry
			}
		}
	}
	return nil
}

func classifyPgCode(code string) error {
	switch code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return repository.ErrConcurrentModification
	case pgUniqueViolation:
		return repository.ErrDuplicateEntry
	}
	return nil
}

// wrapErr prefixes err with the failing operation and, when the driver error
// is recognised, makes it match the corresponding repository sentinel.
func wrapErr(op string, err error) error {
	if kind := classify(err); kind != nil {
		return fmt.Errorf("%s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
