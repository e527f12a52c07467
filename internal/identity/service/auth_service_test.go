package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollogram/backend/internal/events"
	"pollogram/backend/internal/platform/errs"
	"pollogram/backend/internal/security"
	sessiondomain "pollogram/backend/internal/session/domain"
	userdomain "pollogram/backend/internal/user/domain"
)

var testMeta = sessiondomain.Metadata{UserAgent: "test-agent", IPAddress: "10.0.0.1", DeviceID: "dev-1"}

func signUp(t *testing.T, env *testEnv, email, username string) *AuthResult {
	t.Helper()
	res, err := env.svc.SignUp(context.Background(), SignUpInput{Email: email, Password: "pw", Username: username}, testMeta)
	require.NoError(t, err)
	return res
}

func TestSignUp_CreatesUserAndSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.SignUp(ctx, SignUpInput{Email: " A@X.com ", Password: "pw", Username: "a"}, testMeta)
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, "a", res.User.Username)
	assert.Equal(t, userdomain.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)

	access, err := env.tokens.Verify(res.Tokens.AccessToken, security.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, access.Subject)
	assert.Equal(t, "USER", access.Role)

	refresh, err := env.tokens.Verify(res.Tokens.RefreshToken, security.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, refresh.Subject)

	stored, err := env.users.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "pw", stored.PasswordHash)

	active, err := env.sessions.FindActiveByUser(ctx, res.User.ID, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, res.SessionID, active[0].ID)
	assert.NotEqual(t, res.Tokens.RefreshToken, active[0].TokenHash)
	assert.Equal(t, testMeta, active[0].Metadata)
	assert.Equal(t, res.Tokens.RefreshExpiresAt, active[0].ExpiresAt)

	assert.Equal(t, []events.Type{events.TypeSignUp}, env.recorder.types())
}

func TestSignUp_Conflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signUp(t, env, "a@x.com", "a")

	_, err := env.svc.SignUp(ctx, SignUpInput{Email: "A@x.com", Password: "pw", Username: "b"}, testMeta)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	_, err = env.svc.SignUp(ctx, SignUpInput{Email: "b@x.com", Password: "pw", Username: "a"}, testMeta)
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, "Username already exists", err.Error())
}

func TestSignUp_MissingFields(t *testing.T) {
	env := newTestEnv(t)
	for _, in := range []SignUpInput{
		{Password: "pw", Username: "a"},
		{Email: "a@x.com", Username: "a"},
		{Email: "a@x.com", Password: "pw", Username: "  "},
	} {
		_, err := env.svc.SignUp(context.Background(), in, testMeta)
		assert.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestSignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")

	res, err := env.svc.SignIn(ctx, "A@X.COM", "pw", testMeta)
	require.NoError(t, err)
	assert.Equal(t, up.User.ID, res.User.ID)
	assert.Equal(t, "a", res.User.Username)
	assert.NotEqual(t, up.SessionID, res.SessionID)

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestSignIn_FailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	signUp(t, env, "a@x.com", "a")

	_, wrongPassword := env.svc.SignIn(ctx, "a@x.com", "nope", testMeta)
	_, unknownEmail := env.svc.SignIn(ctx, "ghost@x.com", "pw", testMeta)
	_, empty := env.svc.SignIn(ctx, "", "", testMeta)

	for _, err := range []error{wrongPassword, unknownEmail, empty} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "invalid credentials", err.Error())
		assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	}
	assert.Equal(t, 1, env.sessions.Len())
}

func TestRefresh_RotatesSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	env.clock.Advance(time.Minute)

	meta := sessiondomain.Metadata{UserAgent: "other", IPAddress: "10.0.0.2"}
	pair, err := env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEqual(t, up.Tokens.RefreshToken, pair.RefreshToken)
	assert.NotEqual(t, up.Tokens.AccessToken, pair.AccessToken)

	old, ok := env.sessions.Get(up.SessionID)
	require.True(t, ok)
	require.NotNil(t, old.RevokedAt)
	assert.Equal(t, env.clock.Now(), *old.RevokedAt)

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, meta, active[0].Metadata)
	require.NotNil(t, active[0].LastUsedAt)
	assert.Equal(t, env.clock.Now(), *active[0].LastUsedAt)

	// The rotated token works; the one it replaced does not.
	env.clock.Advance(time.Minute)
	_, err = env.svc.Refresh(ctx, up.User.ID, pair.RefreshToken, meta)
	require.NoError(t, err)
	_, err = env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, meta)
	assert.ErrorIs(t, err, ErrRefreshTokenReuse)
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	_, err := env.svc.SignIn(ctx, "a@x.com", "pw", testMeta)
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, testMeta)
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrRefreshTokenReuse)
	assert.Equal(t, "reuse detected, all sessions revoked", err.Error())

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, active)

	at, ok := env.revocations.get(up.User.ID)
	assert.True(t, ok)
	assert.Equal(t, env.clock.Now(), at)
	assert.Contains(t, env.recorder.types(), events.TypeReuseDetected)
}

func TestRefresh_NoActiveSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	require.NoError(t, env.svc.Logout(ctx, up.User.ID, ""))

	_, err := env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.NotContains(t, env.recorder.types(), events.TypeReuseDetected)
}

func TestRefresh_ExpiredSessionIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	up := signUp(t, env, "a@x.com", "a")
	env.clock.Advance(7 * 24 * time.Hour)

	_, err := env.svc.Refresh(context.Background(), up.User.ID, up.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefresh_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	up := signUp(t, env, "a@x.com", "a")
	env.users.Delete(up.User.ID)

	_, err := env.svc.Refresh(context.Background(), up.User.ID, up.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
}

func TestRefresh_ConcurrentRetryOfSameToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = env.svc.Refresh(ctx, up.User.ID, up.Tokens.RefreshToken, testMeta)
		}()
	}
	wg.Wait()

	var ok, reuse int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrRefreshTokenReuse):
			reuse++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, reuse)

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLogout_SingleSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	in, err := env.svc.SignIn(ctx, "a@x.com", "pw", testMeta)
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, up.User.ID, up.Tokens.RefreshToken))

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, in.SessionID, active[0].ID)

	// Repeating the logout is a no-op.
	require.NoError(t, env.svc.Logout(ctx, up.User.ID, up.Tokens.RefreshToken))
	_, ok := env.revocations.get(up.User.ID)
	assert.False(t, ok)
}

func TestLogout_UnknownTokenIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")

	require.NoError(t, env.svc.Logout(ctx, up.User.ID, "not-a-token"))

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestLogout_AllSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	_, err := env.svc.SignIn(ctx, "a@x.com", "pw", testMeta)
	require.NoError(t, err)
	other := signUp(t, env, "b@x.com", "b")

	require.NoError(t, env.svc.Logout(ctx, up.User.ID, ""))

	active, err := env.sessions.FindActiveByUser(ctx, up.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Empty(t, active)
	_, ok := env.revocations.get(up.User.ID)
	assert.True(t, ok)

	active, err = env.sessions.FindActiveByUser(ctx, other.User.ID, env.clock.Now())
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestListSessions_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	up := signUp(t, env, "a@x.com", "a")
	env.clock.Advance(time.Minute)
	in, err := env.svc.SignIn(ctx, "a@x.com", "pw", sessiondomain.Metadata{UserAgent: "phone"})
	require.NoError(t, err)

	list, err := env.svc.ListSessions(ctx, up.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, in.SessionID, list[0].ID)
	assert.Equal(t, "phone", list[0].UserAgent)
	assert.Equal(t, up.SessionID, list[1].ID)

	none, err := env.svc.ListSessions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRevokeSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := signUp(t, env, "a@x.com", "a")
	b := signUp(t, env, "b@x.com", "b")

	// Another user's session is silently left alone.
	require.NoError(t, env.svc.RevokeSession(ctx, b.User.ID, a.SessionID))
	sess, _ := env.sessions.Get(a.SessionID)
	assert.Nil(t, sess.RevokedAt)

	require.NoError(t, env.svc.RevokeSession(ctx, a.User.ID, "missing"))

	require.NoError(t, env.svc.RevokeSession(ctx, a.User.ID, a.SessionID))
	sess, _ = env.sessions.Get(a.SessionID)
	require.NotNil(t, sess.RevokedAt)
	first := *sess.RevokedAt

	env.clock.Advance(time.Minute)
	require.NoError(t, env.svc.RevokeSession(ctx, a.User.ID, a.SessionID))
	sess, _ = env.sessions.Get(a.SessionID)
	assert.Equal(t, first, *sess.RevokedAt)

	var revoked int
	for _, typ := range env.recorder.types() {
		if typ == events.TypeSessionRevoked {
			revoked++
		}
	}
	assert.Equal(t, 1, revoked, "repeat revocation must not be recorded again")

	_, err := env.svc.Refresh(ctx, a.User.ID, a.Tokens.RefreshToken, testMeta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestCleanupExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := signUp(t, env, "a@x.com", "a")
	require.NoError(t, env.svc.Logout(ctx, a.User.ID, a.Tokens.RefreshToken))

	n, err := env.svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, env.sessions.Len())

	env.clock.Advance(24 * time.Hour)
	signUp(t, env, "b@x.com", "b")
	env.clock.Advance(6 * 24 * time.Hour)

	n, err = env.svc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, env.sessions.Len())
}
