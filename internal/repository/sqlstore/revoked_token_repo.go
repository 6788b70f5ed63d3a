package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

type sqlRevokedTokenRepository struct {
	db DBTX
}

func NewRevokedTokenRepository(db DBTX) repository.RevokedTokenRepository {
	return &sqlRevokedTokenRepository{db: db}
}

// Revoke records jti until expiresAt. Revoking twice is not an error.
func (r *sqlRevokedTokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, jti, expiresAt.UTC()); err != nil {
		return wrapErr("RevokedTokenRepository.Revoke", err)
	}
	return nil
}

func (r *sqlRevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = $1`, jti).Scan(&n); err != nil {
		return false, wrapErr("RevokedTokenRepository.IsRevoked", err)
	}
	return n > 0, nil
}

// DeleteExpired drops revocations whose token could no longer validate anyway.
func (r *sqlRevokedTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, wrapErr("RevokedTokenRepository.DeleteExpired", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("RevokedTokenRepository.DeleteExpired (checking rows affected): %w", err)
	}
	return n, nil
}
