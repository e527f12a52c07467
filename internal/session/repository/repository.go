package repository

import (
	"context"
	"errors"
	"time"

	"pollogram/backend/internal/session/domain"
)

// ErrSessionNotActive is returned by Rotate when the session being replaced
// was already revoked or expired.
var ErrSessionNotActive = errors.New("session not active")

// Repository defines persistence for sessions. Revocations are idempotent:
// an already-revoked session keeps its original revocation time.
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// FindActiveByUser returns the user's sessions with expires_at > now and no revocation.
	FindActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error)
	Revoke(ctx context.Context, id string, now time.Time) error
	// RevokeForUser revokes id only if it belongs to userID and is not yet
	// revoked. Reports whether it changed the session.
	RevokeForUser(ctx context.Context, userID, id string, now time.Time) (bool, error)
	// RevokeAllForUser revokes every unrevoked session of userID and returns how many changed.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
	// Rotate revokes oldID and creates next atomically. It fails with
	// ErrSessionNotActive, creating nothing, if oldID is no longer active.
	Rotate(ctx context.Context, oldID string, next *domain.Session, now time.Time) error
	// PurgeExpired deletes sessions with expires_at <= now, revoked or not.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
