package handler

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "pollogram/backend/api/v1"
	"pollogram/backend/internal/identity/service"
	"pollogram/backend/internal/platform/errs"
	"pollogram/backend/internal/platform/rbac"
	"pollogram/backend/internal/platform/validate"
	"pollogram/backend/internal/security"
	"pollogram/backend/internal/server/interceptors"
)

// AuthServer implements AuthService: sign-up, sign-in, refresh and logout.
// SignUp, SignIn and Refresh are public; Logout and LogoutAll need an access token.
type AuthServer struct {
	apiv1.UnimplementedAuthServiceServer
	auth   *service.AuthService
	tokens *security.TokenCodec
	logger *slog.Logger
}

// NewAuthServer returns a new Auth gRPC server. If auth is nil, all RPCs return Unimplemented.
func NewAuthServer(auth *service.AuthService, tokens *security.TokenCodec, logger *slog.Logger) *AuthServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthServer{auth: auth, tokens: tokens, logger: logger.With("component", "auth_handler")}
}

// SignUp creates an account and returns its first token pair.
func (s *AuthServer) SignUp(ctx context.Context, req *apiv1.SignUpRequest) (*apiv1.AuthResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
	}
	if err := validate.Struct(req); err != nil {
		return nil, s.toStatus("SignUp", err)
	}
	res, err := s.auth.SignUp(ctx, service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		ImageID:     req.ImageID,
		Description: req.Description,
	}, interceptors.SessionMetadata(ctx))
	if err != nil {
		return nil, s.toStatus("SignUp", err)
	}
	return authResponse(res), nil
}

// SignIn authenticates with email and password and opens a new session.
func (s *AuthServer) SignIn(ctx context.Context, req *apiv1.SignInRequest) (*apiv1.AuthResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
	}
	if err := validate.Struct(req); err != nil {
		return nil, s.toStatus("SignIn", service.ErrInvalidCredentials)
	}
	res, err := s.auth.SignIn(ctx, req.Email, req.Password, interceptors.SessionMetadata(ctx))
	if err != nil {
		return nil, s.toStatus("SignIn", err)
	}
	return authResponse(res), nil
}

// Refresh rotates the presented refresh token. The token's signature and
// expiry are checked before any session lookup.
func (s *AuthServer) Refresh(ctx context.Context, req *apiv1.RefreshRequest) (*apiv1.RefreshResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Refresh not implemented")
	}
	if req.RefreshToken == "" {
		return nil, status.Error(codes.Unauthenticated, service.ErrInvalidRefreshToken.Error())
	}
	claims, err := s.tokens.Verify(req.RefreshToken, security.KindRefresh)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, service.ErrInvalidRefreshToken.Error())
	}
	pair, err := s.auth.Refresh(ctx, claims.Subject, req.RefreshToken, interceptors.SessionMetadata(ctx))
	if err != nil {
		return nil, s.toStatus("Refresh", err)
	}
	return &apiv1.RefreshResponse{Tokens: tokens(pair)}, nil
}

// Logout ends the session holding the given refresh token, or every session
// when no token is sent.
func (s *AuthServer) Logout(ctx context.Context, req *apiv1.LogoutRequest) (*apiv1.LogoutResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
	}
	id, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, id.UserID, req.RefreshToken); err != nil {
		return nil, s.toStatus("Logout", err)
	}
	return &apiv1.LogoutResponse{}, nil
}

// LogoutAll ends every session of the caller.
func (s *AuthServer) LogoutAll(ctx context.Context, _ *apiv1.LogoutAllRequest) (*apiv1.LogoutAllResponse, error) {
	if s.auth == nil {
		return nil, status.Error(codes.Unimplemented, "method LogoutAll not implemented")
	}
	id, err := rbac.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, id.UserID, ""); err != nil {
		return nil, s.toStatus("LogoutAll", err)
	}
	return &apiv1.LogoutAllResponse{}, nil
}

func (s *AuthServer) toStatus(method string, err error) error {
	if errs.KindOf(err) == errs.KindInternal && !errors.Is(err, context.Canceled) {
		s.logger.Error("request failed", "method", method, "error", err)
	}
	return errs.ToStatus(err)
}

func authResponse(res *service.AuthResult) *apiv1.AuthResponse {
	return &apiv1.AuthResponse{
		User: apiv1.User{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Username:  res.User.Username,
			Role:      string(res.User.Role),
			CreatedAt: res.User.CreatedAt,
			UpdatedAt: res.User.UpdatedAt,
		},
		Tokens:    tokens(&res.Tokens),
		SessionID: res.SessionID,
	}
}

func tokens(p *service.TokenPair) apiv1.Tokens {
	return apiv1.Tokens{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
