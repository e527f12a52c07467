package engine

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

//go:embed policies/admin.rego
var adminPolicy string

const allowQuery = "data.pollogram.admin.allow"

// OPAAuthorizer evaluates the embedded admin policy. The query is prepared
// once; Allow is safe for concurrent use.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

// NewOPAAuthorizer compiles the admin policy.
func NewOPAAuthorizer(ctx context.Context) (*OPAAuthorizer, error) {
	return newOPAAuthorizer(ctx, adminPolicy)
}

func newOPAAuthorizer(ctx context.Context, policy string) (*OPAAuthorizer, error) {
	q, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("admin.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile admin policy: %w", err)
	}
	return &OPAAuthorizer{query: q}, nil
}

// Allow returns the policy decision for req. Undefined results deny.
func (a *OPAAuthorizer) Allow(ctx context.Context, req Request) (bool, error) {
	rs, err := a.query.Eval(ctx, rego.EvalInput(toInput(req)))
	if err != nil {
		return false, fmt.Errorf("eval admin policy: %w", err)
	}
	return rs.Allowed(), nil
}

// HealthCheck evaluates a request the policy must deny. Used by the health
// service to confirm the engine is functional.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	allowed, err := a.Allow(ctx, Request{Action: "health.check", Actor: Subject{ID: "health", Role: "USER"}})
	if err != nil {
		return err
	}
	if allowed {
		return fmt.Errorf("admin policy allowed an unknown action")
	}
	return nil
}

func toInput(req Request) map[string]any {
	return map[string]any{
		"action": req.Action,
		"actor":  map[string]any{"id": req.Actor.ID, "role": req.Actor.Role},
		"target": map[string]any{"id": req.Target.ID, "role": req.Target.Role},
	}
}
