package domain

import "time"

// Metadata describes the client that opened a session. All fields are optional.
type Metadata struct {
	UserAgent string
	IPAddress string
	DeviceID  string
}

// Session is one refresh-token-backed login of a user. TokenHash is a salted
// hash of the refresh token; the raw token is never stored.
type Session struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time // nil when not revoked
	Metadata
}

// Active reports whether the session can still be used at now. A session
// whose expiry equals now is already expired.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// Summary is the client-facing view of an active session. It never carries
// the token hash.
type Summary struct {
	ID         string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	Metadata
}

// Summarize returns the client-facing view of s.
func (s *Session) Summarize() Summary {
	return Summary{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		LastUsedAt: s.LastUsedAt,
		Metadata:   s.Metadata,
	}
}
