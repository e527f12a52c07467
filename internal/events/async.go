package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// emitTimeout bounds a single asynchronous emit.
const emitTimeout = 5 * time.Second

// AsyncProducer wraps a Producer so Emit never blocks the caller. Close waits
// for in-flight emits before closing the underlying producer.
type AsyncProducer struct {
	next   Producer
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewAsyncProducer returns an asynchronous wrapper around next. next may be nil.
func NewAsyncProducer(next Producer, logger *slog.Logger) *AsyncProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncProducer{next: next, logger: logger}
}

// Emit publishes event in the background. Request cancellation does not abort it.
func (a *AsyncProducer) Emit(_ context.Context, event *Event) error {
	if a == nil || a.next == nil || event == nil {
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.next.Emit(ctx, event); err != nil {
			a.logger.Warn("event emit failed", "type", event.Type, "error", err)
		}
	}()
	return nil
}

// Close drains in-flight emits and closes the underlying producer.
func (a *AsyncProducer) Close() error {
	if a == nil || a.next == nil {
		return nil
	}
	a.wg.Wait()
	return a.next.Close()
}
