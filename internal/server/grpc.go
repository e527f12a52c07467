package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	apiv1 "pollogram/backend/api/v1"
	adminhandler "pollogram/backend/internal/admin/handler"
	healthhandler "pollogram/backend/internal/health/handler"
	identityhandler "pollogram/backend/internal/identity/handler"
	identityservice "pollogram/backend/internal/identity/service"
	"pollogram/backend/internal/security"
	"pollogram/backend/internal/server/interceptors"
	sessionhandler "pollogram/backend/internal/session/handler"
)

// Deps holds the services behind the gRPC handlers.
type Deps struct {
	// Auth serves AuthService and SessionService. If nil, those RPCs return Unimplemented.
	Auth *identityservice.AuthService
	// Admin serves AdminService. If nil, admin RPCs return Unimplemented.
	Admin *identityservice.AdminService
	// Tokens verifies access tokens in the auth interceptor and refresh tokens in Refresh.
	Tokens *security.TokenCodec
	// Revocations rejects access tokens older than a user's revocation watermark. Optional.
	Revocations interceptors.RevocationChecker
	// Metrics observes every RPC. Optional.
	Metrics interceptors.RPCObserver
	// Health serves grpc.health.v1. If nil, the health service is not registered.
	Health *healthhandler.Server
	Logger *slog.Logger
}

// ServiceNames lists the application services, for health reporting.
var ServiceNames = []string{
	apiv1.AuthService_ServiceDesc.ServiceName,
	apiv1.SessionService_ServiceDesc.ServiceName,
	apiv1.AdminService_ServiceDesc.ServiceName,
}

// PublicMethods are callable without an access token.
func PublicMethods() map[string]bool {
	return map[string]bool{
		apiv1.AuthService_SignUp_FullMethodName:  true,
		apiv1.AuthService_SignIn_FullMethodName:  true,
		apiv1.AuthService_Refresh_FullMethodName: true,
		healthpb.Health_Check_FullMethodName:     true,
		healthpb.Health_Watch_FullMethodName:     true,
	}
}

// NewServer returns a gRPC server with tracing, metrics and authentication
// installed and every service registered.
func NewServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	skip := map[string]bool{healthpb.Health_Check_FullMethodName: true}
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.MetricsUnary(deps.Metrics, skip),
			interceptors.AuthUnary(deps.Tokens, deps.Revocations, PublicMethods(), deps.Logger),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers all gRPC services with the given registrar.
//
// Service → handler mapping:
//   - AuthService    → internal/identity/handler
//   - SessionService → internal/session/handler
//   - AdminService   → internal/admin/handler
//   - grpc.health.v1 → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	apiv1.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth, deps.Tokens, deps.Logger))
	apiv1.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.Auth, deps.Logger))
	apiv1.RegisterAdminServiceServer(s, adminhandler.NewServer(deps.Admin, deps.Logger))
	if deps.Health != nil {
		deps.Health.Register(s)
	}
}
