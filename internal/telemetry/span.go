package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/psantana5/capctl/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanSink turns each invocation into one span, opened on attempted and
// closed on succeeded or failed
type SpanSink struct {
	provider *tracing.Provider

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewSpanSink creates a sink on top of provider
func NewSpanSink(provider *tracing.Provider) *SpanSink {
	return &SpanSink{
		provider: provider,
		spans:    make(map[string]trace.Span),
	}
}

func eventAttributes(e Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("capctl.command", e.Command),
		attribute.String("capctl.session", e.Session),
		attribute.String("capctl.invocation", e.ID),
		attribute.String("capctl.version", e.CLIVersion),
		attribute.String("capctl.machine", e.Machine),
		attribute.String("host.os", e.Env.OS),
		attribute.String("host.arch", e.Env.Arch),
	}
}

// Emit implements Sink
func (s *SpanSink) Emit(ctx context.Context, e Event) error {
	switch e.Phase {
	case PhaseAttempted:
		_, span := s.provider.Tracer().Start(ctx, "capctl "+e.Command,
			trace.WithTimestamp(e.Time),
			trace.WithAttributes(eventAttributes(e)...))
		s.mu.Lock()
		s.spans[e.ID] = span
		s.mu.Unlock()
		return nil

	case PhaseSucceeded, PhaseFailed:
		s.mu.Lock()
		span, ok := s.spans[e.ID]
		delete(s.spans, e.ID)
		s.mu.Unlock()
		if !ok {
			return errors.New("no open span for invocation " + e.ID)
		}
		if e.Phase == PhaseFailed {
			tracing.SetError(span, errors.New(e.Error))
			span.SetAttributes(attribute.Int("capctl.exit_code", e.ExitCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End(trace.WithTimestamp(e.Time))
		return nil

	default:
		_, span := s.provider.StartSpan(ctx, "capctl "+string(e.Phase)+" "+e.Command, eventAttributes(e)...)
		span.End()
		return nil
	}
}

// Flush ends spans left open and shuts the provider down, exporting
// everything recorded
func (s *SpanSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	for id, span := range s.spans {
		span.End()
		delete(s.spans, id)
	}
	s.mu.Unlock()
	return s.provider.Shutdown(ctx)
}
