package handler

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Pinger checks database reachability (e.g. *pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker confirms the policy engine can evaluate (e.g. *engine.OPAAuthorizer).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves grpc.health.v1. The overall status and every registered
// service flip to NOT_SERVING while the database or the policy engine is
// unhealthy. Either checker may be nil.
type Server struct {
	health   *health.Server
	pinger   Pinger
	policy   PolicyChecker
	services []string
	logger   *slog.Logger
}

// NewServer returns a health server reporting for the overall server ("")
// and for each named service.
func NewServer(pinger Pinger, policy PolicyChecker, services []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		health:   health.NewServer(),
		pinger:   pinger,
		policy:   policy,
		services: append([]string{""}, services...),
		logger:   logger.With("component", "health"),
	}
}

// Register adds the health service to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(r, s.health)
}

// Check runs the dependency checks once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	st := healthpb.HealthCheckResponse_SERVING
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("database ping failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	if s.policy != nil {
		if err := s.policy.HealthCheck(ctx); err != nil {
			s.logger.Warn("policy engine check failed", "error", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	for _, name := range s.services {
		s.health.SetServingStatus(name, st)
	}
	return st
}

// Run checks every interval until ctx is done.
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING so load balancers drain the server.
func (s *Server) Shutdown() {
	s.health.Shutdown()
}
