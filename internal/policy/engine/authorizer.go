// Package engine decides whether an authenticated actor may perform an
// administrative action, using an embedded OPA Rego policy.
package engine

import "context"

// Actions understood by the admin policy.
const (
	ActionSetRole        = "user.set_role"
	ActionRevokeSessions = "user.revoke_sessions"
	ActionCleanup        = "sessions.cleanup"
	ActionListAudit      = "audit.list"
)

// Subject identifies a user in a policy decision.
type Subject struct {
	ID   string
	Role string
}

// Request is the input to one policy decision. Target is zero for actions
// without a target user.
type Request struct {
	Action string
	Actor  Subject
	Target Subject
}

// Authorizer evaluates admin policy.
type Authorizer interface {
	Allow(ctx context.Context, req Request) (bool, error)
}
