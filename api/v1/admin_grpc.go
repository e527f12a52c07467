package apiv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	AdminService_SetUserRole_FullMethodName            = "/pollogram.admin.v1.AdminService/SetUserRole"
	AdminService_RevokeUserSessions_FullMethodName     = "/pollogram.admin.v1.AdminService/RevokeUserSessions"
	AdminService_CleanupExpiredSessions_FullMethodName = "/pollogram.admin.v1.AdminService/CleanupExpiredSessions"
	AdminService_ListAuditLogs_FullMethodName          = "/pollogram.admin.v1.AdminService/ListAuditLogs"
)

// AdminServiceServer is the server API for AdminService.
type AdminServiceServer interface {
	SetUserRole(context.Context, *SetUserRoleRequest) (*SetUserRoleResponse, error)
	RevokeUserSessions(context.Context, *RevokeUserSessionsRequest) (*RevokeUserSessionsResponse, error)
	CleanupExpiredSessions(context.Context, *CleanupExpiredSessionsRequest) (*CleanupExpiredSessionsResponse, error)
	ListAuditLogs(context.Context, *ListAuditLogsRequest) (*ListAuditLogsResponse, error)
}

// UnimplementedAdminServiceServer returns Unimplemented for every method.
type UnimplementedAdminServiceServer struct{}

func (UnimplementedAdminServiceServer) SetUserRole(context.Context, *SetUserRoleRequest) (*SetUserRoleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetUserRole not implemented")
}
func (UnimplementedAdminServiceServer) RevokeUserSessions(context.Context, *RevokeUserSessionsRequest) (*RevokeUserSessionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RevokeUserSessions not implemented")
}
func (UnimplementedAdminServiceServer) CleanupExpiredSessions(context.Context, *CleanupExpiredSessionsRequest) (*CleanupExpiredSessionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CleanupExpiredSessions not implemented")
}
func (UnimplementedAdminServiceServer) ListAuditLogs(context.Context, *ListAuditLogsRequest) (*ListAuditLogsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
}

// AdminService_ServiceDesc is the grpc.ServiceDesc for AdminService.
var AdminService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "pollogram.admin.v1.AdminService",
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SetUserRole", Handler: unary(AdminService_SetUserRole_FullMethodName, AdminServiceServer.SetUserRole)},
		{MethodName: "RevokeUserSessions", Handler: unary(AdminService_RevokeUserSessions_FullMethodName, AdminServiceServer.RevokeUserSessions)},
		{MethodName: "CleanupExpiredSessions", Handler: unary(AdminService_CleanupExpiredSessions_FullMethodName, AdminServiceServer.CleanupExpiredSessions)},
		{MethodName: "ListAuditLogs", Handler: unary(AdminService_ListAuditLogs_FullMethodName, AdminServiceServer.ListAuditLogs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pollogram/admin/v1",
}

// RegisterAdminServiceServer registers srv with s.
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminService_ServiceDesc, srv)
}

// AdminServiceClient is the client API for AdminService.
type AdminServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminServiceClient(cc grpc.ClientConnInterface) *AdminServiceClient {
	return &AdminServiceClient{cc: cc}
}

func (c *AdminServiceClient) SetUserRole(ctx context.Context, in *SetUserRoleRequest, opts ...grpc.CallOption) (*SetUserRoleResponse, error) {
	out := new(SetUserRoleResponse)
	if err := invoke(ctx, c.cc, AdminService_SetUserRole_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminServiceClient) RevokeUserSessions(ctx context.Context, in *RevokeUserSessionsRequest, opts ...grpc.CallOption) (*RevokeUserSessionsResponse, error) {
	out := new(RevokeUserSessionsResponse)
	if err := invoke(ctx, c.cc, AdminService_RevokeUserSessions_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminServiceClient) CleanupExpiredSessions(ctx context.Context, in *CleanupExpiredSessionsRequest, opts ...grpc.CallOption) (*CleanupExpiredSessionsResponse, error) {
	out := new(CleanupExpiredSessionsResponse)
	if err := invoke(ctx, c.cc, AdminService_CleanupExpiredSessions_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminServiceClient) ListAuditLogs(ctx context.Context, in *ListAuditLogsRequest, opts ...grpc.CallOption) (*ListAuditLogsResponse, error) {
	out := new(ListAuditLogsResponse)
	if err := invoke(ctx, c.cc, AdminService_ListAuditLogs_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
