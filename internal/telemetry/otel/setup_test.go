package otel

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestNewProviders_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, Config{Endpoint: endpoint, ServiceName: "pollogram-auth"})
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Fatalf("providers should be non-nil: %+v", providers)
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be a no-op, got %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"http://", "http://[invalid"} {
		if _, err := NewProviders(context.Background(), Config{Endpoint: endpoint}); err == nil {
			t.Errorf("NewProviders(%q) should fail", endpoint)
		}
	}
}

func TestDialTarget(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantTarget   string
		wantInsecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317/v1/traces", "collector:4317", true},
		{"https://collector:4317", "collector:4317", false},
	}
	for _, tt := range tests {
		target, insecure, err := dialTarget(tt.endpoint)
		if err != nil {
			t.Fatalf("dialTarget(%q): %v", tt.endpoint, err)
		}
		if target != tt.wantTarget || insecure != tt.wantInsecure {
			t.Errorf("dialTarget(%q) = (%q, %v), want (%q, %v)", tt.endpoint, target, insecure, tt.wantTarget, tt.wantInsecure)
		}
	}
}

func TestSetGlobal(t *testing.T) {
	providers, err := NewProviders(context.Background(), Config{})
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	old := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(old) })

	providers.SetGlobal()
	if otel.GetTracerProvider() != providers.TracerProvider {
		t.Error("global TracerProvider was not replaced")
	}
}

func TestShutdownStack_ReverseOrderAndJoinedErrors(t *testing.T) {
	var order []int
	errA := errors.New("a failed")
	stack := shutdownStack{
		func(context.Context) error { order = append(order, 1); return errA },
		func(context.Context) error { order = append(order, 2); return nil },
		func(context.Context) error { order = append(order, 3); return nil },
	}
	err := stack.run(context.Background(), nil)
	if !errors.Is(err, errA) {
		t.Fatalf("run err = %v, want %v", err, errA)
	}
	if len(order) != 3 || order[0] != 3 || order[2] != 1 {
		t.Errorf("shutdown order = %v, want [3 2 1]", order)
	}
}
