package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pollogram/backend/internal/user/domain"
)

const uniqueViolation = "23505"

// Constraint names from the initial migration.
const (
	constraintUsersEmail       = "users_email_key"
	constraintProfilesUsername = "profiles_user_name_key"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a user repository that uses the given pool for persistence.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, email, password, role, created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

const profileColumns = `id, user_name, COALESCE(image_id, ''), COALESCE(profile_description, ''), user_id, created_at, updated_at`

// GetProfileByUserID returns the profile owned by userID, or nil if not found.
func (r *PostgresRepository) GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// GetProfileByUsername returns the profile with the given username, or nil if not found.
func (r *PostgresRepository) GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_name = $1`, username)
	return scanProfile(row)
}

// CreateWithProfile inserts u and p in one transaction. IDs and timestamps must be set by the caller.
func (r *PostgresRepository) CreateWithProfile(ctx context.Context, u *domain.User, p *domain.Profile) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, user_name, image_id, profile_description, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.Username, nullIfEmpty(p.ImageID), nullIfEmpty(p.Description), p.UserID, p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateRole sets role on the user and bumps updated_at.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID string, role domain.Role) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = $3 WHERE id = $1
	`, userID, string(role), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Username, &p.ImageID, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mapUniqueViolation turns a racing duplicate insert into the same conflict
// the service reports after its pre-checks.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case constraintUsersEmail:
		return domain.ErrEmailTaken
	case constraintProfilesUsername:
		return domain.ErrUsernameTaken
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
