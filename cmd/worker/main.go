// worker runs scheduled maintenance: purging expired sessions every
// SESSION_CLEANUP_INTERVAL.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pollogram/backend/internal/app"
	"pollogram/backend/internal/config"
	"pollogram/backend/internal/logger"
	"pollogram/backend/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Options{}).Error("config", "error", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log = logger.Component(log, "worker")

	if err := run(cfg, log); err != nil {
		log.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	s, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if err := s.RegisterSessionCleanup(a.Auth, cfg.SessionCleanupInterval); err != nil {
		return err
	}
	s.Start()
	log.Info("worker started", "cleanup_interval", cfg.SessionCleanupInterval)

	<-ctx.Done()
	log.Info("worker: shutting down...")
	if err := s.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", "error", err)
	}
	log.Info("worker: stopped")
	return nil
}
