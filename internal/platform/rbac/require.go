// Package rbac guards handlers on the identity attached by the auth interceptor.
package rbac

import (
	"context"
	"slices"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pollogram/backend/internal/server/interceptors"
	userdomain "pollogram/backend/internal/user/domain"
)

// RequireUser ensures the caller is authenticated. Returns a gRPC Unauthenticated error otherwise.
func RequireUser(ctx context.Context) (interceptors.Identity, error) {
	id, ok := interceptors.IdentityFrom(ctx)
	if !ok || id.UserID == "" {
		return interceptors.Identity{}, status.Error(codes.Unauthenticated, "user context required")
	}
	return id, nil
}

// RequireRole ensures the caller is authenticated and holds one of roles.
// Returns Unauthenticated or PermissionDenied gRPC errors on failure.
func RequireRole(ctx context.Context, roles ...userdomain.Role) (interceptors.Identity, error) {
	id, err := RequireUser(ctx)
	if err != nil {
		return id, err
	}
	if !slices.Contains(roles, userdomain.Role(id.Role)) {
		return interceptors.Identity{}, status.Error(codes.PermissionDenied, "insufficient role")
	}
	return id, nil
}
