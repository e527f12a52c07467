package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	auditdomain "pollogram/backend/internal/audit/domain"
	auditrepo "pollogram/backend/internal/audit/repository"
	"pollogram/backend/internal/events"
	"pollogram/backend/internal/metrics"
	"pollogram/backend/internal/policy/engine"
	userdomain "pollogram/backend/internal/user/domain"
)

// Actor is the authenticated caller of an administrative operation.
type Actor struct {
	UserID string
	Role   userdomain.Role
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AdminDeps are the AdminService collaborators. Audit and Recorder may be nil.
type AdminDeps struct {
	Auth       *AuthService
	Users      UserRepo
	Sessions   SessionRepo
	Authorizer engine.Authorizer
	Audit      auditrepo.Repository
	Recorder   Recorder
	Revocation RevocationStore
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// AdminService exposes role management and forced revocation. Every call is
// checked against the admin policy.
type AdminService struct {
	auth        *AuthService
	users       UserRepo
	sessions    SessionRepo
	authorizer  engine.Authorizer
	audit       auditrepo.Repository
	recorder    Recorder
	revocations RevocationStore
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewAdminService returns an AdminService.
func NewAdminService(d AdminDeps) *AdminService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &AdminService{
		auth:        d.Auth,
		users:       d.Users,
		sessions:    d.Sessions,
		authorizer:  d.Authorizer,
		audit:       d.Audit,
		recorder:    d.Recorder,
		revocations: d.Revocation,
		metrics:     d.Metrics,
		logger:      d.Logger.With("component", "admin"),
		now:         d.Now,
	}
}

// SetUserRole changes the target's role. The target's existing access tokens
// are invalidated so the new role takes effect on the next refresh.
func (s *AdminService) SetUserRole(ctx context.Context, actor Actor, targetID string, role userdomain.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	target, err := s.target(ctx, targetID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, engine.ActionSetRole, actor, target); err != nil {
		return err
	}
	if target.Role == role {
		return nil
	}
	ok, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if !ok {
		return ErrTargetNotFound
	}
	s.markRevoked(ctx, targetID)
	s.record(ctx, events.Event{
		Type: events.TypeRoleChanged, UserID: targetID,
		Attributes: map[string]string{"actor_id": actor.UserID, "from": string(target.Role), "to": string(role)},
	})
	return nil
}

// RevokeUserSessions revokes every session of the target and returns how
// many were active.
func (s *AdminService) RevokeUserSessions(ctx context.Context, actor Actor, targetID string) (int64, error) {
	target, err := s.target(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if err := s.authorize(ctx, engine.ActionRevokeSessions, actor, target); err != nil {
		return 0, err
	}
	n, err := s.sessions.RevokeAllForUser(ctx, targetID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	s.markRevoked(ctx, targetID)
	s.metrics.SessionsRevoked("admin", n)
	s.record(ctx, events.Event{
		Type: events.TypeSessionsRevoked, UserID: targetID,
		Attributes: map[string]string{"actor_id": actor.UserID, "revoked": fmt.Sprint(n)},
	})
	return n, nil
}

// CleanupExpiredSessions runs the expired-session purge on demand.
func (s *AdminService) CleanupExpiredSessions(ctx context.Context, actor Actor) (int64, error) {
	if err := s.authorize(ctx, engine.ActionCleanup, actor, nil); err != nil {
		return 0, err
	}
	n, err := s.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		return 0, err
	}
	s.record(ctx, events.Event{
		Type: events.TypeSessionsPurged, UserID: actor.UserID,
		Attributes: map[string]string{"deleted": fmt.Sprint(n)},
	})
	return n, nil
}

// ListAuditLogs returns a page of a user's audit entries, newest first.
func (s *AdminService) ListAuditLogs(ctx context.Context, actor Actor, targetID string, pageSize, offset int32) ([]*auditdomain.AuditLog, error) {
	if err := s.authorize(ctx, engine.ActionListAudit, actor, nil); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, nil
	}
	if pageSize <= 0 {
		pageSize = defaultAuditPageSize
	}
	if pageSize > maxAuditPageSize {
		pageSize = maxAuditPageSize
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.audit.ListByUser(ctx, targetID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func (s *AdminService) target(ctx context.Context, id string) (*userdomain.User, error) {
	if id == "" {
		return nil, ErrTargetNotFound
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load target user: %w", err)
	}
	if u == nil {
		return nil, ErrTargetNotFound
	}
	return u, nil
}

func (s *AdminService) authorize(ctx context.Context, action string, actor Actor, target *userdomain.User) error {
	req := engine.Request{
		Action: action,
		Actor:  engine.Subject{ID: actor.UserID, Role: string(actor.Role)},
	}
	if target != nil {
		req.Target = engine.Subject{ID: target.ID, Role: string(target.Role)}
	}
	ok, err := s.authorizer.Allow(ctx, req)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !ok {
		s.logger.Info("admin action denied", "action", action, "actor_id", actor.UserID, "target_id", req.Target.ID)
		return ErrForbidden
	}
	return nil
}

func (s *AdminService) markRevoked(ctx context.Context, userID string) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.MarkRevoked(ctx, userID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to record access token watermark", "user_id", userID, "error", err)
	}
}

func (s *AdminService) record(ctx context.Context, e events.Event) {
	if s.recorder != nil {
		s.recorder.Record(ctx, e)
	}
}
