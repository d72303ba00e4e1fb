package telemetry

import (
	"context"
	"errors"
)

// Sink receives observations. Implementations may fail; callers never let
// that failure reach the command outcome.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// Flusher is implemented by sinks that buffer until process end
type Flusher interface {
	Flush(ctx context.Context) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ctx context.Context, e Event) error

// Emit calls f
func (f SinkFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Noop drops every observation
type Noop struct{}

// Emit does nothing
func (Noop) Emit(context.Context, Event) error { return nil }

type multi []Sink

// Multi fans an observation out to every sink, in order
func Multi(sinks ...Sink) Sink {
	switch len(sinks) {
	case 0:
		return Noop{}
	case 1:
		return sinks[0]
	default:
		return multi(sinks)
	}
}

func (m multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Flush(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
