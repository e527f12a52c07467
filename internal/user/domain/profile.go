package domain

import (
	"errors"
	"time"
)

// Profile is the public face of a user. Each user has exactly one.
type Profile struct {
	ID          string
	UserID      string
	Username    string
	ImageID     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Profile) Validate() error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	if p.Username == "" {
		return errors.New("username is required")
	}
	return nil
}
