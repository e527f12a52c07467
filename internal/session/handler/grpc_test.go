package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apiv1 "pollogram/backend/api/v1"
	"pollogram/backend/internal/identity/service"
	"pollogram/backend/internal/security"
	"pollogram/backend/internal/server/interceptors"
	sessiondomain "pollogram/backend/internal/session/domain"
	sessionrepo "pollogram/backend/internal/session/repository"
	userrepo "pollogram/backend/internal/user/repository"
)

func TestServer_ListAndRevoke(t *testing.T) {
	auth := service.NewAuthService(service.Deps{
		Users:    userrepo.NewMemoryRepository(),
		Sessions: sessionrepo.NewMemoryRepository(),
		Hasher:   security.NewHasher(4, 4),
		Tokens:   security.NewTestTokenCodec(),
	})
	ctx := context.Background()
	res, err := auth.SignUp(ctx, service.SignUpInput{
		Email: "ada@example.com", Password: "Passw0rd!", Username: "ada",
	}, sessiondomain.Metadata{UserAgent: "test-agent", IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	srv := NewServer(auth, nil)
	authed := interceptors.WithIdentity(ctx, interceptors.Identity{UserID: res.User.ID, Role: "USER"})

	list, err := srv.ListSessions(authed, &apiv1.ListSessionsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, res.SessionID, list.Sessions[0].ID)
	assert.Equal(t, "test-agent", list.Sessions[0].UserAgent)

	_, err = srv.RevokeSession(authed, &apiv1.RevokeSessionRequest{SessionID: res.SessionID})
	require.NoError(t, err)

	list, err = srv.ListSessions(authed, &apiv1.ListSessionsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)
}

func TestServer_RequiresIdentity(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.ListSessions(context.Background(), &apiv1.ListSessionsRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))

	srv = NewServer(service.NewAuthService(service.Deps{}), nil)
	_, err = srv.ListSessions(context.Background(), &apiv1.ListSessionsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = srv.RevokeSession(context.Background(), &apiv1.RevokeSessionRequest{SessionID: "s"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestServer_RevokeSessionValidates(t *testing.T) {
	srv := NewServer(service.NewAuthService(service.Deps{}), nil)
	authed := interceptors.WithIdentity(context.Background(), interceptors.Identity{UserID: "u1"})
	_, err := srv.RevokeSession(authed, &apiv1.RevokeSessionRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
