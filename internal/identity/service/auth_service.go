package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"pollogram/backend/internal/events"
	"pollogram/backend/internal/metrics"
	"pollogram/backend/internal/security"
	sessiondomain "pollogram/backend/internal/session/domain"
	sessionrepo "pollogram/backend/internal/session/repository"
	userdomain "pollogram/backend/internal/user/domain"
	userrepo "pollogram/backend/internal/user/repository"
)

// UserRepo is the credential store needed by the auth service.
type UserRepo = userrepo.Repository

// SessionRepo is the session store needed by the auth service.
type SessionRepo = sessionrepo.Repository

// RevocationStore records when all of a user's access tokens stop being valid.
type RevocationStore interface {
	MarkRevoked(ctx context.Context, userID string, at time.Time) error
}

// Recorder receives security events.
type Recorder interface {
	Record(ctx context.Context, event events.Event)
}

// SignUpInput is the data needed to create an account.
type SignUpInput struct {
	Email       string
	Password    string
	Username    string
	ImageID     string
	Description string
}

// UserInfo is the public view of a user. It never carries the password hash.
type UserInfo struct {
	ID        string
	Email     string
	Role      userdomain.Role
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthResult is returned by SignUp and SignIn.
type AuthResult struct {
	User      UserInfo
	Tokens    TokenPair
	SessionID string
}

// Deps are the AuthService collaborators. Users, Sessions, Hasher and Tokens
// are required; the rest may be nil.
type Deps struct {
	Users       UserRepo
	Sessions    SessionRepo
	Hasher      *security.Hasher
	Tokens      *security.TokenCodec
	Revocations RevocationStore
	Recorder    Recorder
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthService owns the session lifecycle: sign-up, sign-in, refresh token
// rotation with reuse detection, logout, listing and revocation.
type AuthService struct {
	users       UserRepo
	sessions    SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenCodec
	revocations RevocationStore
	recorder    Recorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(d Deps) *AuthService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &AuthService{
		users:       d.Users,
		sessions:    d.Sessions,
		hasher:      d.Hasher,
		tokens:      d.Tokens,
		revocations: d.Revocations,
		recorder:    d.Recorder,
		metrics:     d.Metrics,
		logger:      d.Logger.With("component", "auth"),
		now:         d.Now,
	}
}

// SignUp creates a user with its profile and opens the first session.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, meta sessiondomain.Metadata) (*AuthResult, error) {
	email := userdomain.NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || in.Password == "" || username == "" {
		return nil, ErrMissingFields
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if existing != nil {
		s.metrics.SignUp(metrics.OutcomeFailure)
		return nil, ErrEmailTaken
	}
	taken, err := s.users.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if taken != nil {
		s.metrics.SignUp(metrics.OutcomeFailure)
		return nil, ErrUsernameTaken
	}

	hashed, err := s.hasher.Hash(ctx, []byte(in.Password))
	if err != nil {
		return nil, fmt.Errorf("sign up: hash password: %w", err)
	}
	now := s.now().UTC()
	user := &userdomain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashed,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	profile := &userdomain.Profile{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    username,
		ImageID:     strings.TrimSpace(in.ImageID),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			s.metrics.SignUp(metrics.OutcomeFailure)
			return nil, err
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	pair, sess, err := s.openSession(ctx, user, meta, now)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	s.metrics.SignUp(metrics.OutcomeSuccess)
	s.record(ctx, events.Event{Type: events.TypeSignUp, UserID: user.ID, SessionID: sess.ID, IP: meta.IPAddress})
	return &AuthResult{User: userInfo(user, profile), Tokens: *pair, SessionID: sess.ID}, nil
}

// SignIn checks credentials and opens a new session. Unknown email and wrong
// password fail identically.
func (s *AuthService) SignIn(ctx context.Context, email, password string, meta sessiondomain.Metadata) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		s.metrics.SignIn(metrics.OutcomeFailure)
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if user == nil {
		s.equalizeTiming(ctx, password)
		s.signInFailed(ctx, "", meta)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ctx, user.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, security.ErrMismatch) {
			s.signInFailed(ctx, user.ID, meta)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	profile, err := s.users.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	now := s.now().UTC()
	pair, sess, err := s.openSession(ctx, user, meta, now)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	s.metrics.SignIn(metrics.OutcomeSuccess)
	s.record(ctx, events.Event{Type: events.TypeSignIn, UserID: user.ID, SessionID: sess.ID, IP: meta.IPAddress})
	return &AuthResult{User: userInfo(user, profile), Tokens: *pair, SessionID: sess.ID}, nil
}

// Refresh exchanges a refresh token for a new pair. The session holding the
// presented token is revoked and replaced in one step. A token that matches
// none of the user's active sessions is treated as stolen: every session of
// the user is revoked.
func (s *AuthService) Refresh(ctx context.Context, userID, rawToken string, meta sessiondomain.Metadata) (*TokenPair, error) {
	if userID == "" || rawToken == "" {
		s.metrics.Refresh(metrics.OutcomeInvalid)
		return nil, ErrInvalidRefreshToken
	}
	now := s.now().UTC()
	active, err := s.sessions.FindActiveByUser(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if len(active) == 0 {
		s.metrics.Refresh(metrics.OutcomeInvalid)
		return nil, ErrInvalidRefreshToken
	}
	match, err := s.matchSession(ctx, rawToken, active)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if match == nil {
		return nil, s.reuseDetected(ctx, userID, meta, now)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if user == nil {
		s.metrics.Refresh(metrics.OutcomeInvalid)
		return nil, ErrUserNotFound
	}
	pair, next, err := s.openSession(ctx, user, meta, now)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	next.LastUsedAt = &now
	if err := s.sessions.Rotate(ctx, match.ID, next, now); err != nil {
		if errors.Is(err, sessionrepo.ErrSessionNotActive) {
			// Another request rotated the same session first.
			return nil, s.reuseDetected(ctx, userID, meta, now)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	s.metrics.Refresh(metrics.OutcomeRotated)
	s.record(ctx, events.Event{
		Type: events.TypeRefresh, UserID: userID, SessionID: next.ID, IP: meta.IPAddress,
		Attributes: map[string]string{"replaced_session_id": match.ID},
	})
	return pair, nil
}

// Logout revokes the session holding rawToken, or every session of the user
// when rawToken is empty. A token matching no active session is not an error.
func (s *AuthService) Logout(ctx context.Context, userID, rawToken string) error {
	now := s.now().UTC()
	if rawToken == "" {
		n, err := s.revokeAll(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		s.metrics.SessionsRevoked("logout_all", n)
		s.record(ctx, events.Event{Type: events.TypeLogoutAll, UserID: userID})
		return nil
	}
	active, err := s.sessions.FindActiveByUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	match, err := s.matchSession(ctx, rawToken, active)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if match == nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, match.ID, now); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.metrics.SessionsRevoked("logout", 1)
	s.record(ctx, events.Event{Type: events.TypeLogout, UserID: userID, SessionID: match.ID})
	return nil
}

// ListSessions returns the user's active sessions, newest first.
func (s *AuthService) ListSessions(ctx context.Context, userID string) ([]sessiondomain.Summary, error) {
	active, err := s.sessions.FindActiveByUser(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]sessiondomain.Summary, 0, len(active))
	for _, sess := range active {
		out = append(out, sess.Summarize())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RevokeSession revokes sessionID if it belongs to userID. Anything else is a
// silent no-op so callers cannot probe for other users' session ids.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID string) error {
	if userID == "" || sessionID == "" {
		return nil
	}
	ok, err := s.sessions.RevokeForUser(ctx, userID, sessionID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if ok {
		s.metrics.SessionsRevoked("user", 1)
		s.record(ctx, events.Event{Type: events.TypeSessionRevoked, UserID: userID, SessionID: sessionID})
	}
	return nil
}

// CleanupExpiredTokens deletes every session whose expiry has passed and
// returns how many were removed.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.sessions.PurgeExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired tokens: %w", err)
	}
	s.metrics.SessionsPurged(n)
	s.logger.Info("purged expired sessions", "deleted", n)
	return n, nil
}

// openSession mints a token pair for user and builds the session that will
// hold the refresh token. The caller persists it.
func (s *AuthService) openSession(ctx context.Context, user *userdomain.User, meta sessiondomain.Metadata, now time.Time) (*TokenPair, *sessiondomain.Session, error) {
	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	hash, err := s.hasher.HashRefreshToken(ctx, pair.RefreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("hash refresh token: %w", err)
	}
	return pair, &sessiondomain.Session{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: pair.RefreshExpiresAt,
		CreatedAt: now,
		Metadata:  meta,
	}, nil
}

func (s *AuthService) mintPair(ctx context.Context, user *userdomain.User) (*TokenPair, error) {
	var pair TokenPair
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		tok, exp, err := s.tokens.Mint(user.ID, user.Email, string(user.Role), security.KindAccess)
		pair.AccessToken, pair.AccessExpiresAt = tok, exp
		return err
	})
	g.Go(func() error {
		tok, exp, err := s.tokens.Mint(user.ID, user.Email, string(user.Role), security.KindRefresh)
		pair.RefreshToken, pair.RefreshExpiresAt = tok, exp
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mint tokens: %w", err)
	}
	return &pair, nil
}

var errMatched = errors.New("session matched")

// matchSession returns the active session whose stored hash matches rawToken,
// or nil. Comparisons run concurrently and stop at the first match.
func (s *AuthService) matchSession(ctx context.Context, rawToken string, active []*sessiondomain.Session) (*sessiondomain.Session, error) {
	if len(active) == 0 {
		return nil, nil
	}
	var (
		mu    sync.Mutex
		found *sessiondomain.Session
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, sess := range active {
		g.Go(func() error {
			ok, err := s.hasher.RefreshTokenMatches(gctx, rawToken, sess.TokenHash)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("unreadable session token hash", "session_id", sess.ID, "error", err)
				return nil
			}
			if !ok {
				return nil
			}
			mu.Lock()
			found = sess
			mu.Unlock()
			return errMatched
		})
	}
	err := g.Wait()
	if found != nil {
		return found, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *AuthService) reuseDetected(ctx context.Context, userID string, meta sessiondomain.Metadata, now time.Time) error {
	n, err := s.revokeAll(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("refresh: revoke after reuse: %w", err)
	}
	s.logger.Warn("refresh token reuse detected; revoked all sessions", "user_id", userID, "revoked", n, "ip", meta.IPAddress)
	s.metrics.Refresh(metrics.OutcomeReuse)
	s.metrics.SessionsRevoked("reuse", n)
	s.record(ctx, events.Event{
		Type: events.TypeReuseDetected, UserID: userID, IP: meta.IPAddress,
		Attributes: map[string]string{"revoked": fmt.Sprint(n), "user_agent": meta.UserAgent},
	})
	return ErrRefreshTokenReuse
}

// revokeAll revokes every session of userID and raises the access-token
// watermark. The watermark is best-effort.
func (s *AuthService) revokeAll(ctx context.Context, userID string, now time.Time) (int64, error) {
	n, err := s.sessions.RevokeAllForUser(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	if s.revocations != nil {
		if err := s.revocations.MarkRevoked(ctx, userID, now); err != nil {
			s.logger.Warn("failed to record access token watermark", "user_id", userID, "error", err)
		}
	}
	return n, nil
}

// equalizeTiming spends one bcrypt comparison when the email is unknown so
// response time does not reveal whether an account exists.
func (s *AuthService) equalizeTiming(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(context.Background(), []byte("pollogram-timing-equalizer"))
	})
	if s.dummyHash != "" {
		_ = s.hasher.Compare(ctx, s.dummyHash, []byte(password))
	}
}

func (s *AuthService) signInFailed(ctx context.Context, userID string, meta sessiondomain.Metadata) {
	s.metrics.SignIn(metrics.OutcomeFailure)
	s.record(ctx, events.Event{Type: events.TypeSignInFailed, UserID: userID, IP: meta.IPAddress})
}

func (s *AuthService) record(ctx context.Context, e events.Event) {
	if s.recorder != nil {
		s.recorder.Record(ctx, e)
	}
}

func userInfo(u *userdomain.User, p *userdomain.Profile) UserInfo {
	info := UserInfo{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
	if p != nil {
		info.Username = p.Username
	}
	return info
}
