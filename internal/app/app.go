// Package app wires configuration into the running object graph shared by
// the server, the worker and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	auditpkg "pollogram/backend/internal/audit"
	auditrepo "pollogram/backend/internal/audit/repository"
	"pollogram/backend/internal/config"
	"pollogram/backend/internal/db"
	"pollogram/backend/internal/events"
	"pollogram/backend/internal/identity/service"
	"pollogram/backend/internal/metrics"
	"pollogram/backend/internal/policy/engine"
	"pollogram/backend/internal/revocation"
	"pollogram/backend/internal/security"
	"pollogram/backend/internal/server/interceptors"
	sessionrepo "pollogram/backend/internal/session/repository"
	"pollogram/backend/internal/telemetry/otel"
	userrepo "pollogram/backend/internal/user/repository"
)

const serviceName = "pollogram-auth"

// App is the wired application. Optional components are nil when not configured.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool        *pgxpool.Pool
	Users       userrepo.Repository
	Sessions    sessionrepo.Repository
	Revocations *revocation.RedisStore
	Authorizer  *engine.OPAAuthorizer
	Tokens      *security.TokenCodec
	Metrics     *metrics.Metrics
	Telemetry   *otel.Providers

	Auth  *service.AuthService
	Admin *service.AdminService

	producer events.Producer
	closers  []func(context.Context) error
}

// Build connects to every configured backing service and wires the services.
// Without DATABASE_URL the stores are in-memory, which Config.Validate only
// permits outside production.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Telemetry, err = otel.NewProviders(ctx, otel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: serviceName,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.Telemetry.SetGlobal()
	a.closers = append(a.closers, a.Telemetry.Shutdown)

	a.Tokens, err = security.NewTokenCodec(security.TokenCodecConfig{
		Issuer:        cfg.JWTIssuer,
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	var audits auditrepo.Repository
	if cfg.DatabaseURL != "" {
		a.Pool, err = db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { a.Pool.Close(); return nil })
		a.Users = userrepo.NewPostgresRepository(a.Pool)
		a.Sessions = sessionrepo.NewPostgresRepository(a.Pool)
		audits = auditrepo.NewPostgresRepository(a.Pool)
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory stores")
		a.Users = userrepo.NewMemoryRepository()
		a.Sessions = sessionrepo.NewMemoryRepository()
		audits = auditrepo.NewMemoryRepository()
	}

	var revocations service.RevocationStore
	if cfg.RedisURL != "" {
		a.Revocations, err = revocation.NewRedisStore(ctx, cfg.RedisURL, a.Tokens.TTL(security.KindAccess))
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return a.Revocations.Close() })
		revocations = a.Revocations
	}

	a.Authorizer, err = engine.NewOPAAuthorizer(ctx)
	if err != nil {
		return nil, err
	}

	a.producer = events.NewAsyncProducer(events.NewFanout(
		events.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.AuthEventsTopic),
		otel.NewEventProducer(a.Telemetry.LoggerProvider),
	), logger)
	recorder := auditpkg.NewLogger(audits, a.producer, interceptors.ClientIP, logger)

	a.Auth = service.NewAuthService(service.Deps{
		Users:       a.Users,
		Sessions:    a.Sessions,
		Hasher:      security.NewHasher(cfg.BcryptCost, cfg.HashConcurrency),
		Tokens:      a.Tokens,
		Revocations: revocations,
		Recorder:    recorder,
		Metrics:     a.Metrics,
		Logger:      logger,
	})
	a.Admin = service.NewAdminService(service.AdminDeps{
		Auth:       a.Auth,
		Users:      a.Users,
		Sessions:   a.Sessions,
		Authorizer: a.Authorizer,
		Audit:      audits,
		Recorder:   recorder,
		Revocation: revocations,
		Metrics:    a.Metrics,
		Logger:     logger,
	})
	return a, nil
}

// RevocationChecker returns the watermark reader for the auth interceptor, or
// nil when Redis is not configured.
func (a *App) RevocationChecker() interceptors.RevocationChecker {
	if a.Revocations == nil {
		return nil
	}
	return a.Revocations
}

// Close flushes pending events and releases connections in reverse order of
// acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
		a.producer = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
