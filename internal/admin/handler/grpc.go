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
	userdomain "pollogram/backend/internal/user/domain"
)

// Server implements AdminService for role management and forced revocation.
// Callers must be MANAGER or ADMIN; finer rules come from the admin policy.
type Server struct {
	apiv1.UnimplementedAdminServiceServer
	admin  *service.AdminService
	logger *slog.Logger
}

// NewServer returns a new Admin gRPC server. If admin is nil, all RPCs return Unimplemented.
func NewServer(admin *service.AdminService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{admin: admin, logger: logger.With("component", "admin_handler")}
}

func (s *Server) SetUserRole(ctx context.Context, req *apiv1.SetUserRoleRequest) (*apiv1.SetUserRoleResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method SetUserRole not implemented")
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.ToStatus(err)
	}
	if err := s.admin.SetUserRole(ctx, actor, req.UserID, userdomain.Role(req.Role)); err != nil {
		return nil, s.toStatus("SetUserRole", err)
	}
	return &apiv1.SetUserRoleResponse{}, nil
}

func (s *Server) RevokeUserSessions(ctx context.Context, req *apiv1.RevokeUserSessionsRequest) (*apiv1.RevokeUserSessionsResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeUserSessions not implemented")
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.ToStatus(err)
	}
	n, err := s.admin.RevokeUserSessions(ctx, actor, req.UserID)
	if err != nil {
		return nil, s.toStatus("RevokeUserSessions", err)
	}
	return &apiv1.RevokeUserSessionsResponse{Revoked: n}, nil
}

func (s *Server) CleanupExpiredSessions(ctx context.Context, _ *apiv1.CleanupExpiredSessionsRequest) (*apiv1.CleanupExpiredSessionsResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method CleanupExpiredSessions not implemented")
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.admin.CleanupExpiredSessions(ctx, actor)
	if err != nil {
		return nil, s.toStatus("CleanupExpiredSessions", err)
	}
	return &apiv1.CleanupExpiredSessionsResponse{Deleted: n}, nil
}

func (s *Server) ListAuditLogs(ctx context.Context, req *apiv1.ListAuditLogsRequest) (*apiv1.ListAuditLogsResponse, error) {
	if s.admin == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.ToStatus(err)
	}
	logs, err := s.admin.ListAuditLogs(ctx, actor, req.UserID, req.PageSize, req.Offset)
	if err != nil {
		return nil, s.toStatus("ListAuditLogs", err)
	}
	out := make([]apiv1.AuditLog, len(logs))
	for i, l := range logs {
		out[i] = apiv1.AuditLog{
			ID:        l.ID,
			UserID:    l.UserID,
			Action:    l.Action,
			Resource:  l.Resource,
			IP:        l.IP,
			Metadata:  l.Metadata,
			CreatedAt: l.CreatedAt,
		}
	}
	return &apiv1.ListAuditLogsResponse{Logs: out}, nil
}

func (s *Server) actor(ctx context.Context) (service.Actor, error) {
	id, err := rbac.RequireRole(ctx, userdomain.RoleAdmin, userdomain.RoleManager)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: id.UserID, Role: userdomain.Role(id.Role)}, nil
}

func (s *Server) toStatus(method string, err error) error {
	if errs.KindOf(err) == errs.KindInternal {
		s.logger.Error("admin request failed", "method", method, "error", err)
	}
	return errs.ToStatus(err)
}
