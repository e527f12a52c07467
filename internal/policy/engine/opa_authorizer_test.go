package engine

import (
	"context"
	"testing"
)

func TestOPAAuthorizer_HealthCheck(t *testing.T) {
	ctx := context.Background()
	a, err := NewOPAAuthorizer(ctx)
	if err != nil {
		t.Fatalf("NewOPAAuthorizer: %v", err)
	}
	if err := a.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAAuthorizer_Allow(t *testing.T) {
	ctx := context.Background()
	a, err := NewOPAAuthorizer(ctx)
	if err != nil {
		t.Fatalf("NewOPAAuthorizer: %v", err)
	}
	admin := Subject{ID: "a1", Role: "ADMIN"}
	manager := Subject{ID: "m1", Role: "MANAGER"}
	user := Subject{ID: "u1", Role: "USER"}

	tests := []struct {
		name string
		req  Request
		want bool
	}{
		{"admin sets role", Request{Action: ActionSetRole, Actor: admin, Target: user}, true},
		{"admin cannot set own role", Request{Action: ActionSetRole, Actor: admin, Target: admin}, false},
		{"manager cannot set role", Request{Action: ActionSetRole, Actor: manager, Target: user}, false},
		{"user cannot set role", Request{Action: ActionSetRole, Actor: user, Target: manager}, false},
		{"admin revokes admin sessions", Request{Action: ActionRevokeSessions, Actor: admin, Target: Subject{ID: "a2", Role: "ADMIN"}}, true},
		{"manager revokes user sessions", Request{Action: ActionRevokeSessions, Actor: manager, Target: user}, true},
		{"manager cannot revoke admin sessions", Request{Action: ActionRevokeSessions, Actor: manager, Target: admin}, false},
		{"manager cannot revoke manager sessions", Request{Action: ActionRevokeSessions, Actor: manager, Target: Subject{ID: "m2", Role: "MANAGER"}}, false},
		{"user cannot revoke sessions", Request{Action: ActionRevokeSessions, Actor: user, Target: user}, false},
		{"admin cleanup", Request{Action: ActionCleanup, Actor: admin}, true},
		{"manager cleanup", Request{Action: ActionCleanup, Actor: manager}, false},
		{"admin audit list", Request{Action: ActionListAudit, Actor: admin, Target: user}, true},
		{"unknown action", Request{Action: "user.delete", Actor: admin, Target: user}, false},
	}
	for _, tt := range tests {
		got, err := a.Allow(ctx, tt.req)
		if err != nil {
			t.Fatalf("%s: Allow: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: Allow = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewOPAAuthorizer_BadPolicy(t *testing.T) {
	if _, err := newOPAAuthorizer(context.Background(), "package broken\nallow if {"); err == nil {
		t.Error("expected compile error for malformed policy")
	}
}
