// Package events publishes security events (sign-ins, revocations, refresh
// token reuse) to a message broker for downstream consumers.
package events

import "time"

// Type names a security event.
type Type string

const (
	TypeSignUp          Type = "auth.sign_up"
	TypeSignIn          Type = "auth.sign_in"
	TypeSignInFailed    Type = "auth.sign_in_failed"
	TypeRefresh         Type = "auth.refresh"
	TypeReuseDetected   Type = "auth.refresh_reuse_detected"
	TypeLogout          Type = "auth.logout"
	TypeLogoutAll       Type = "auth.logout_all"
	TypeSessionRevoked  Type = "session.revoked"
	TypeSessionsPurged  Type = "session.purged"
	TypeRoleChanged     Type = "user.role_changed"
	TypeSessionsRevoked Type = "user.sessions_revoked"
)

// Event is one security event. It never carries passwords or tokens.
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	UserID     string            `json:"user_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
