package handler

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "pollogram/backend/api/v1"
	"pollogram/backend/internal/identity/service"
	"pollogram/backend/internal/platform/errs"
	"pollogram/backend/internal/platform/rbac"
	"pollogram/backend/internal/platform/validate"
)

// Server implements SessionService: a user listing and revoking their own sessions.
type Server struct {
	apiv1.UnimplementedSessionServiceServer
	auth   *service.AuthService
	logger *slog.Logger
}

// NewServer returns a new Session gRPC server. If auth is nil, all RPCs return Unimplemented.
func NewServer(auth *service.AuthService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{auth: auth, logger: logger.With("component", "session_handler")}
}

// ListSessions returns the caller's active sessions, newest first.
func (s *Server) ListSessions(ctx context.Context, _ *apiv1.ListSessionsRequest) (*apiv1.ListSessionsResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method ListSessions not implemented")
	}
	id, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.auth.ListSessions(ctx, id.UserID)
	if err != nil {
		s.logger.Error("list sessions failed", "user_id", id.UserID, "error", err)
		return nil, errs.ToStatus(err)
	}
	out := make([]apiv1.Session, len(list))
	for i, sum := range list {
		out[i] = apiv1.Session{
			ID:         sum.ID,
			CreatedAt:  sum.CreatedAt,
			ExpiresAt:  sum.ExpiresAt,
			LastUsedAt: sum.LastUsedAt,
			UserAgent:  sum.UserAgent,
			IPAddress:  sum.IPAddress,
			DeviceID:   sum.DeviceID,
		}
	}
	return &apiv1.ListSessionsResponse{Sessions: out}, nil
}

// RevokeSession revokes one of the caller's sessions. Unknown ids and other
// users' sessions succeed without effect.
func (s *Server) RevokeSession(ctx context.Context, req *apiv1.RevokeSessionRequest) (*apiv1.RevokeSessionResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeSession not implemented")
	}
	id, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.ToStatus(err)
	}
	if err := s.auth.RevokeSession(ctx, id.UserID, req.SessionID); err != nil {
		s.logger.Error("revoke session failed", "user_id", id.UserID, "session_id", req.SessionID, "error", err)
		return nil, errs.ToStatus(err)
	}
	return &apiv1.RevokeSessionResponse{}, nil
}
