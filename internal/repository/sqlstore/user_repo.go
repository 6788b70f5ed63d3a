package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paresh-singh/Vehicle-parking/internal/domain"
	"github.com/paresh-singh/Vehicle-parking/internal/repository"
)

type sqlUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &sqlUserRepository{db: db}
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

func scanUser(row scanner) (*domain.User, error) {
	user := &domain.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	user.UpdatedAt = user.UpdatedAt.In(time.UTC)
	return user, nil
}

func (r *sqlUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	now := time.Now().UTC()
	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5)
	           RETURNING id`
	// user.Password holds the bcrypt hash here.
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Password, user.Role, now, now).Scan(&user.ID)
	if err != nil {
		err = wrapErr("UserRepository.Create", err)
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, fmt.Errorf("%w: username '%s' is taken", repository.ErrDuplicateEntry, user.Username)
		}
		return nil, err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("UserRepository.FindByUsername", err)
	}
	return user, nil
}

func (r *sqlUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("UserRepository.FindByID", err)
	}
	return user, nil
}

func (r *sqlUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapErr("UserRepository.FindAll", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("UserRepository.FindAll (scanning row): %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("UserRepository.FindAll (rows error): %w", err)
	}
	return users, nil
}
