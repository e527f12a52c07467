package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pollogram/backend/internal/session/domain"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the refresh_tokens table.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Create inserts s. ID, CreatedAt and ExpiresAt must be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	if err := insertSession(ctx, r.pool, s); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, token, expires_at, created_at, last_used_at, revoked_at,
		       COALESCE(user_agent, ''), COALESCE(ip_address, ''), COALESCE(device_id, '')
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("find active sessions: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Session, error) {
		var s domain.Session
		err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt, &s.LastUsedAt, &s.RevokedAt,
			&s.UserAgent, &s.IPAddress, &s.DeviceID)
		return &s, err
	})
	if err != nil {
		return nil, fmt.Errorf("find active sessions: %w", err)
	}
	return out, nil
}

// Revoke marks the session revoked. Already-revoked sessions are left untouched.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1
	`, id, now)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $3
		WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
	`, id, userID, now)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Rotate relies on the conditional UPDATE: a concurrent rotation of the same
// session blocks on the row lock and then matches zero rows.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, next *domain.Session, now time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE refresh_tokens
			SET revoked_at = $2, last_used_at = $2
			WHERE id = $1 AND revoked_at IS NULL AND expires_at > $2
		`, oldID, now)
		if err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrSessionNotActive
		}
		if err := insertSession(ctx, tx, next); err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func insertSession(ctx context.Context, db execer, s *domain.Session) error {
	_, err := db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at, last_used_at,
		                            user_agent, ip_address, device_id, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)
	`, s.ID, s.TokenHash, s.UserID, s.ExpiresAt, s.CreatedAt, s.LastUsedAt,
		nullIfEmpty(s.UserAgent), nullIfEmpty(s.IPAddress), nullIfEmpty(s.DeviceID))
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
