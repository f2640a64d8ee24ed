package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seein-app/seein-backend/internal/shared"
)

// Repository defines persistence operations for the credential store. Two
// implementations exist: PostgreSQL for production and an in-memory variant
// for tests.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, email string, patch ProfilePatch) (*User, error)
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
	Deactivate(ctx context.Context, email string) error
}

const uniqueViolation = "23505"

// PGRepository implements Repository using PostgreSQL. The users table carries
// a unique index on email, which makes concurrent duplicate registrations lose
// with a unique violation instead of silently succeeding.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by normalized email, tombstoned rows included.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT id, email, password_hash, display_name, is_active, created_at, updated_at
		FROM users WHERE email = $1`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a new user row. A unique violation on email maps to
// shared.ErrDuplicateEmail.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (email, password_hash, display_name, is_active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, is_active, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.DisplayName).Scan(
		&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateProfile applies an email and/or display name change in one statement,
// so either both fields update or neither does.
func (r *PGRepository) UpdateProfile(ctx context.Context, email string, patch ProfilePatch) (*User, error) {
	const query = `
		UPDATE users
		SET email = COALESCE($2, email),
		    display_name = COALESCE($3, display_name),
		    updated_at = now()
		WHERE email = $1
		RETURNING id, email, password_hash, display_name, is_active, created_at, updated_at`
	user := &User{}
	err := r.pool.QueryRow(ctx, query, email, patch.Email, patch.DisplayName).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, shared.ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// UpdatePasswordHash replaces the stored hash for the given account.
func (r *PGRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE email = $1`,
		email, passwordHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate flips the active flag; the row and its email stay reserved.
func (r *PGRepository) Deactivate(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = now() WHERE email = $1`,
		email,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ Repository = (*PGRepository)(nil)
