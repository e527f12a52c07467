// server runs the pollogram auth gRPC API and the Prometheus metrics listener.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pollogram/backend/internal/app"
	"pollogram/backend/internal/config"
	healthhandler "pollogram/backend/internal/health/handler"
	"pollogram/backend/internal/logger"
	"pollogram/backend/internal/server"
)

const (
	healthInterval  = 15 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Component(nil, "server")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn("close", "error", err)
		}
	}()

	var pinger healthhandler.Pinger
	if a.Pool != nil {
		pinger = a.Pool
	}
	health := healthhandler.NewServer(pinger, a.Authorizer, server.ServiceNames, log)
	srv := server.NewServer(server.Deps{
		Auth:        a.Auth,
		Admin:       a.Admin,
		Tokens:      a.Tokens,
		Revocations: a.RevocationChecker(),
		Metrics:     a.Metrics,
		Health:      health,
		Logger:      log,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		return srv.Serve(lis)
	})
	g.Go(func() error {
		health.Run(gctx, healthInterval)
		return nil
	})

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.Metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gRPC server...")
		health.Shutdown()
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		srv.GracefulStop()
		log.Info("gRPC server stopped")
		return nil
	})

	return g.Wait()
}
