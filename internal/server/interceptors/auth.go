package interceptors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"pollogram/backend/internal/revocation"
	"pollogram/backend/internal/security"
)

const bearerPrefix = "bearer "

// RevocationChecker reports the instant before which a user's access tokens
// are no longer accepted.
type RevocationChecker interface {
	RevokedBefore(ctx context.Context, userID string) (time.Time, bool, error)
}

var errUnauthenticated = status.Error(codes.Unauthenticated, "missing or invalid authorization")

// AuthUnary returns a unary server interceptor that validates the Bearer access
// token from gRPC metadata and puts the caller Identity in the context.
// publicMethods is the set of full method names that do not require a token
// (SignUp, SignIn, Refresh, health). A token on a public method is still
// attached when valid. revocations may be nil; when the lookup fails the
// token is accepted and the failure logged.
func AuthUnary(tokens *security.TokenCodec, revocations RevocationChecker, publicMethods map[string]bool, logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		public := publicMethods[info.FullMethod]
		token := extractBearer(ctx)
		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, errUnauthenticated
		}

		claims, err := tokens.Verify(token, security.KindAccess)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, errUnauthenticated
		}
		id := Identity{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}
		if claims.IssuedAt != nil {
			id.IssuedAt = claims.IssuedAt.Time
		}

		if revocations != nil {
			watermark, ok, err := revocations.RevokedBefore(ctx, id.UserID)
			switch {
			case err != nil:
				logger.Warn("revocation lookup failed", "user_id", id.UserID, "error", err)
			case ok && revocation.IssuedBeforeWatermark(id.IssuedAt, watermark):
				if public {
					return handler(ctx, req)
				}
				return nil, status.Error(codes.Unauthenticated, "access token revoked")
			}
		}
		return handler(WithIdentity(ctx, id), req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
