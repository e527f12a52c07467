package app

import (
	"context"
	"log/slog"
	"sync"

	"pollogram/backend/internal/config"
)

// Cached builds the App on first use and returns the same instance afterwards.
// A failed build is not cached; the next call tries again. Safe for
// concurrent use.
type Cached struct {
	load   func() (*config.Config, error)
	logger *slog.Logger

	mu  sync.Mutex
	app *App
}

// NewCached returns a Cached that loads configuration with load on first use.
func NewCached(load func() (*config.Config, error), logger *slog.Logger) *Cached {
	return &Cached{load: load, logger: logger}
}

// Get returns the App, building it if needed.
func (c *Cached) Get(ctx context.Context) (*App, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	a, err := Build(ctx, cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

// Close closes the App if it was built.
func (c *Cached) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app == nil {
		return nil
	}
	err := c.app.Close(ctx)
	c.app = nil
	return err
}
