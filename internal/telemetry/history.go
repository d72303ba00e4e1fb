package telemetry

import (
	"context"

	"github.com/psantana5/capctl/internal/history"
)

// HistorySink records finished invocations in a history store
type HistorySink struct {
	store history.Store
}

// NewHistorySink creates a sink writing to store
func NewHistorySink(store history.Store) *HistorySink {
	return &HistorySink{store: store}
}

// Emit implements Sink; only terminal phases are recorded
func (s *HistorySink) Emit(ctx context.Context, e Event) error {
	if !e.Phase.Terminal() {
		return nil
	}
	return s.store.Record(ctx, history.Entry{
		ID:         e.ID,
		Session:    e.Session,
		Command:    e.Command,
		Outcome:    string(e.Phase),
		Error:      e.Error,
		CLIVersion: e.CLIVersion,
		StartedAt:  e.Time.Add(-e.Duration),
		Duration:   e.Duration,
	})
}
