package apiv1

import "time"

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tokens is an access and refresh token pair.
type Tokens struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=256"`
	Password    string `json:"password" validate:"required,min=8,max=32,password"`
	Username    string `json:"username" validate:"required,min=3,max=50"`
	ImageID     string `json:"image_id,omitempty" validate:"max=256"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by SignUp and SignIn.
type AuthResponse struct {
	User      User   `json:"user"`
	Tokens    Tokens `json:"tokens"`
	SessionID string `json:"session_id"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RefreshResponse struct {
	Tokens Tokens `json:"tokens"`
}

// LogoutRequest ends the session holding RefreshToken. Without a token every
// session of the caller is ended.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

type LogoutResponse struct{}

type LogoutAllRequest struct{}

type LogoutAllResponse struct{}

// Session is the client-facing view of an active session.
type Session struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	DeviceID   string     `json:"device_id,omitempty"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type RevokeSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type RevokeSessionResponse struct{}

type SetUserRoleRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"required,oneof=USER MANAGER ADMIN"`
}

type SetUserRoleResponse struct{}

type RevokeUserSessionsRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type RevokeUserSessionsResponse struct {
	Revoked int64 `json:"revoked"`
}

type CleanupExpiredSessionsRequest struct{}

type CleanupExpiredSessionsResponse struct {
	Deleted int64 `json:"deleted"`
}

type ListAuditLogsRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	PageSize int32  `json:"page_size,omitempty" validate:"gte=0"`
	Offset   int32  `json:"offset,omitempty" validate:"gte=0"`
}

// AuditLog is one recorded security event.
type AuditLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListAuditLogsResponse struct {
	Logs []AuditLog `json:"logs"`
}
