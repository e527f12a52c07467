package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditdomain "pollogram/backend/internal/audit/domain"
	"pollogram/backend/internal/events"
	"pollogram/backend/internal/policy/engine"
	"pollogram/backend/internal/security"
	userdomain "pollogram/backend/internal/user/domain"
)

type stubAuditRepo struct {
	limit, offset int32
}

func (s *stubAuditRepo) Create(context.Context, *auditdomain.AuditLog) error { return nil }

func (s *stubAuditRepo) ListByUser(_ context.Context, userID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	s.limit, s.offset = limit, offset
	return []*auditdomain.AuditLog{{ID: "1", UserID: userID, Action: "auth.sign_in"}}, nil
}

func newAdminEnv(t *testing.T) (*testEnv, *AdminService, *stubAuditRepo) {
	t.Helper()
	env := newTestEnv(t)
	authz, err := engine.NewOPAAuthorizer(context.Background())
	require.NoError(t, err)
	audit := &stubAuditRepo{}
	admin := NewAdminService(AdminDeps{
		Auth:       env.svc,
		Users:      env.users,
		Sessions:   env.sessions,
		Authorizer: authz,
		Audit:      audit,
		Recorder:   env.recorder,
		Revocation: env.revocations,
		Now:        env.clock.Now,
	})
	return env, admin, audit
}

func withRole(t *testing.T, env *testEnv, res *AuthResult, role userdomain.Role) Actor {
	t.Helper()
	ok, err := env.users.UpdateRole(context.Background(), res.User.ID, role)
	require.NoError(t, err)
	require.True(t, ok)
	return Actor{UserID: res.User.ID, Role: role}
}

func TestSetUserRole(t *testing.T) {
	env, admin, _ := newAdminEnv(t)
	ctx := context.Background()
	root := withRole(t, env, signUp(t, env, "root@x.com", "root"), userdomain.RoleAdmin)
	target := signUp(t, env, "a@x.com", "a")

	require.NoError(t, admin.SetUserRole(ctx, root, target.User.ID, userdomain.RoleManager))

	u, err := env.users.GetByID(ctx, target.User.ID)
	require.NoError(t, err)
	assert.Equal(t, userdomain.RoleManager, u.Role)
	_, marked := env.revocations.get(target.User.ID)
	assert.True(t, marked)
	assert.Contains(t, env.recorder.types(), events.TypeRoleChanged)

	// New tokens carry the new role.
	pair, err := env.svc.Refresh(ctx, target.User.ID, target.Tokens.RefreshToken, testMeta)
	require.NoError(t, err)
	claims, err := env.tokens.Verify(pair.AccessToken, security.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "MANAGER", claims.Role)
}

func TestSetUserRole_Denied(t *testing.T) {
	env, admin, _ := newAdminEnv(t)
	ctx := context.Background()
	root := withRole(t, env, signUp(t, env, "root@x.com", "root"), userdomain.RoleAdmin)
	manager := withRole(t, env, signUp(t, env, "m@x.com", "m"), userdomain.RoleManager)
	target := signUp(t, env, "a@x.com", "a")

	assert.ErrorIs(t, admin.SetUserRole(ctx, manager, target.User.ID, userdomain.RoleAdmin), ErrForbidden)
	assert.ErrorIs(t, admin.SetUserRole(ctx, root, root.UserID, userdomain.RoleUser), ErrForbidden)
	assert.ErrorIs(t, admin.SetUserRole(ctx, root, "missing", userdomain.RoleUser), ErrTargetNotFound)
	assert.ErrorIs(t, admin.SetUserRole(ctx, root, target.User.ID, "OWNER"), ErrInvalidRole)
}

func TestRevokeUserSessions(t *testing.T) {
	env, admin, _ := newAdminEnv(t)
	ctx := context.Background()
	manager := withRole(t, env, signUp(t, env, "m@x.com", "m"), userdomain.RoleManager)
	target := signUp(t, env, "a@x.com", "a")
	_, err := env.svc.SignIn(ctx, "a@x.com", "pw", testMeta)
	require.NoError(t, err)

	n, err := admin.RevokeUserSessions(ctx, manager, target.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	active, err := env.sessions.FindActiveByUser(ctx, target.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, active)

	// Managers cannot act on admins.
	root := withRole(t, env, signUp(t, env, "root@x.com", "root"), userdomain.RoleAdmin)
	_, err = admin.RevokeUserSessions(ctx, manager, root.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCleanupAndAudit_AdminOnly(t *testing.T) {
	env, admin, audit := newAdminEnv(t)
	ctx := context.Background()
	user := Actor{UserID: signUp(t, env, "a@x.com", "a").User.ID, Role: userdomain.RoleUser}
	root := withRole(t, env, signUp(t, env, "root@x.com", "root"), userdomain.RoleAdmin)

	_, err := admin.CleanupExpiredSessions(ctx, user)
	assert.ErrorIs(t, err, ErrForbidden)
	n, err := admin.CleanupExpiredSessions(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = admin.ListAuditLogs(ctx, user, user.UserID, 10, 0)
	assert.ErrorIs(t, err, ErrForbidden)
	logs, err := admin.ListAuditLogs(ctx, root, user.UserID, 0, -3)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int32(defaultAuditPageSize), audit.limit)
	assert.Zero(t, audit.offset)

	_, err = admin.ListAuditLogs(ctx, root, user.UserID, 10000, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(maxAuditPageSize), audit.limit)
	assert.Equal(t, int32(5), audit.offset)
}
