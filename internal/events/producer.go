package events

import (
	"context"
	"errors"
)

// Producer emits events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly.
	Emit(ctx context.Context, event *Event) error
	// Close releases resources. Safe to call if already closed.
	Close() error
}

// Fanout sends every event to each non-nil producer. Errors are joined.
type Fanout []Producer

// NewFanout drops nil producers and returns the rest as a Fanout. Typed nils
// such as a disabled *KafkaProducer are kept; their methods are no-ops.
func NewFanout(ps ...Producer) Fanout {
	out := make(Fanout, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f Fanout) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
