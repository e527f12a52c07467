package repository

import (
	"context"

	"pollogram/backend/internal/user/domain"
)

// Repository defines persistence for users and their profiles.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetProfileByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error)
	// CreateWithProfile inserts the user and profile atomically. Unique
	// violations surface as domain.ErrEmailTaken or domain.ErrUsernameTaken.
	CreateWithProfile(ctx context.Context, u *domain.User, p *domain.Profile) error
	// UpdateRole sets the user's role. Returns (false, nil) when the user does not exist.
	UpdateRole(ctx context.Context, userID string, role domain.Role) (bool, error)
}
