// Package telemetry instruments command handlers with best-effort usage and
// outcome observations. Nothing in this package can change a command's result.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/psantana5/capctl/internal/action"
	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/pkg/logging"
)

// Recorder stamps observations with session and host facts and delivers them
// to a sink, swallowing every sink failure
type Recorder struct {
	sink    Sink
	logger  *logging.Logger
	session string
	machine string
	env     Environment
	now     func() time.Time
	newID   func() string
}

// Option customizes a Recorder
type Option func(*Recorder)

// WithEnvironment sets the host facts attached to every event
func WithEnvironment(env Environment) Option {
	return func(r *Recorder) { r.env = env }
}

// WithMachineID sets the anonymous machine identifier
func WithMachineID(id string) Option {
	return func(r *Recorder) { r.machine = id }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a recorder delivering to sink
func NewRecorder(sink Sink, logger *logging.Logger, opts ...Option) *Recorder {
	if sink == nil {
		sink = Noop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	r := &Recorder{
		sink:    sink,
		logger:  logger,
		session: uuid.NewString(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sink returns the recorder's sink
func (r *Recorder) Sink() Sink {
	return r.sink
}

// Emit delivers e. Failures and panics of the sink are logged at DEBUG.
func (r *Recorder) Emit(ctx context.Context, e Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Debug(fmt.Sprintf("telemetry sink panicked: %v", p))
		}
	}()
	if e.Session == "" {
		e.Session = r.session
	}
	if e.Machine == "" {
		e.Machine = r.machine
	}
	if e.Env == (Environment{}) {
		e.Env = r.env
	}
	if e.Time.IsZero() {
		e.Time = r.now()
	}
	if err := r.sink.Emit(ctx, e); err != nil {
		r.logger.Debug("telemetry emit failed", map[string]interface{}{
			"phase":   string(e.Phase),
			"command": e.Command,
			"error":   err.Error(),
		})
	}
}

// Forward relays an observation that arrived from a controlling process
func (r *Recorder) Forward(ctx context.Context, command string, data map[string]any) {
	r.Emit(ctx, Event{
		ID:      r.newID(),
		Command: command,
		Phase:   PhaseForwarded,
		Data:    data,
	})
}

// Action wraps h so that an attempted observation precedes it and a
// succeeded or failed observation follows it. h's error is returned as is,
// and a panic in h is re-raised after the failed observation.
func (r *Recorder) Action(cfg *config.Config, name string, h action.Handler) action.Handler {
	return func(ctx context.Context, args []string) error {
		base := Event{
			ID:         r.newID(),
			Command:    name,
			CLIVersion: cfg.CLI.Version,
			AppID:      cfg.App.AppID,
		}
		start := r.now()

		attempted := base
		attempted.Phase = PhaseAttempted
		attempted.Time = start
		r.Emit(ctx, attempted)

		defer func() {
			if p := recover(); p != nil {
				r.finish(ctx, base, start, clierr.FromPanic(p))
				panic(p)
			}
		}()

		err := h(ctx, args)
		r.finish(ctx, base, start, err)
		return err
	}
}

func (r *Recorder) finish(ctx context.Context, base Event, start time.Time, err error) {
	e := base
	e.Time = r.now()
	e.Duration = e.Time.Sub(start)
	e.Phase = PhaseSucceeded
	if err != nil {
		e.Phase = PhaseFailed
		e.Error = clierr.Describe(err)
		e.ExitCode = clierr.ExitCode(err)
	}
	r.Emit(ctx, e)
}
