package domain

import "time"

// AuditLog is one persisted security event.
type AuditLog struct {
	ID        string
	UserID    string // empty for events without a known user
	Action    string
	Resource  string
	IP        string
	Metadata  string // JSON object
	CreatedAt time.Time
}
