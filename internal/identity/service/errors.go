package service

import (
	"pollogram/backend/internal/platform/errs"
	userdomain "pollogram/backend/internal/user/domain"
)

// Sentinel errors for the auth service; handlers map their kinds to gRPC codes.
var (
	ErrEmailTaken          = userdomain.ErrEmailTaken
	ErrUsernameTaken       = userdomain.ErrUsernameTaken
	ErrMissingFields       = errs.Validation("email, password and username are required")
	ErrInvalidCredentials  = errs.Unauthorized("invalid credentials")
	ErrInvalidRefreshToken = errs.Unauthorized("invalid refresh token")
	ErrRefreshTokenReuse   = errs.Unauthorized("reuse detected, all sessions revoked")
	ErrUserNotFound        = errs.Unauthorized("user not found")

	ErrTargetNotFound = errs.NotFound("user not found")
	ErrInvalidRole    = errs.Validation("unknown role")
	ErrForbidden      = errs.Forbidden("insufficient permissions")
)
