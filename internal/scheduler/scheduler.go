// Package scheduler runs periodic maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SessionCleaner deletes expired sessions and reports how many were removed.
type SessionCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// Scheduler owns the gocron scheduler for the maintenance worker.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger
}

// New returns a scheduler using UTC for job timing.
func New(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{cron: s, logger: logger.With("component", "scheduler")}, nil
}

// RegisterSessionCleanup runs cleaner every interval, starting immediately.
// A run still in progress when the next one is due causes that run to be
// skipped and rescheduled.
func (s *Scheduler) RegisterSessionCleanup(cleaner SessionCleaner, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("session cleanup interval must be positive, got %s", interval)
	}
	timeout := min(interval, 10*time.Minute)
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			s.cleanup(ctx, cleaner)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("session", "cleanup"),
		gocron.WithName("session-cleanup"),
	)
	if err != nil {
		return fmt.Errorf("register session cleanup: %w", err)
	}
	s.logger.Info("registered session cleanup", "interval", interval)
	return nil
}

func (s *Scheduler) cleanup(ctx context.Context, cleaner SessionCleaner) {
	start := time.Now()
	n, err := cleaner.CleanupExpiredTokens(ctx)
	if err != nil {
		s.logger.Error("session cleanup failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("session cleanup finished", "deleted", n, "duration", time.Since(start))
}

// Start begins running registered jobs. It does not block.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}
