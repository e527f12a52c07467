package handler

import (
	"context"
	"errors"
	"testing"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type policyFunc func(ctx context.Context) error

func (f policyFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func ok(context.Context) error { return nil }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		policy PolicyChecker
		want   healthpb.HealthCheckResponse_ServingStatus
	}{
		{"no checkers", nil, nil, healthpb.HealthCheckResponse_SERVING},
		{"all healthy", pingerFunc(ok), policyFunc(ok), healthpb.HealthCheckResponse_SERVING},
		{"db down", pingerFunc(func(context.Context) error { return errors.New("conn refused") }), policyFunc(ok), healthpb.HealthCheckResponse_NOT_SERVING},
		{"policy broken", pingerFunc(ok), policyFunc(func(context.Context) error { return errors.New("bad policy") }), healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(tt.pinger, tt.policy, []string{"pollogram.auth.v1.AuthService"}, nil)
			if got := s.Check(context.Background()); got != tt.want {
				t.Fatalf("Check() = %v, want %v", got, tt.want)
			}
			for _, svc := range []string{"", "pollogram.auth.v1.AuthService"} {
				resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
				if err != nil {
					t.Fatalf("health.Check(%q): %v", svc, err)
				}
				if resp.GetStatus() != tt.want {
					t.Errorf("status(%q) = %v, want %v", svc, resp.GetStatus(), tt.want)
				}
			}
		})
	}
}
