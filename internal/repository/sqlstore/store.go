package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Repos() repository.Repositories {
	return s.reposFor(s.db)
}

func (s *Store) reposFor(q DBTX) repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(q),
		Lots:          NewParkingLotRepository(q, s.dialect),
		Spots:         NewParkingSpotRepository(q, s.dialect),
		Reservations:  NewReservationRepository(q, s.dialect),
		RevokedTokens: NewRevokedTokenRepository(q),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("Store.WithinTx (begin)", err)
	}

	if err := fn(s.reposFor(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("Store.WithinTx (commit)", err)
	}
	return nil
}
