// Package runstate holds the single-owner state of one capctl process run: its
// lifecycle state and the exit code cell.
package runstate

import (
	"fmt"
	"sync"

	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/pkg/logging"
)

// State is the lifecycle state of a run
type State int

const (
	Loading State = iota
	Running
	Terminated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Run is created by the entrypoint and handed to every failure boundary.
// The exit code is decided at most once; the first failure wins.
type Run struct {
	mu      sync.Mutex
	state   State
	code    int
	decided bool
	logger  *logging.Logger
	onState func(State)
}

// New creates a run in the Loading state
func New(logger *logging.Logger) *Run {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Run{logger: logger}
}

// OnStateChange registers a hook called after every transition
func (r *Run) OnStateChange(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onState = fn
}

// Logger returns the run's logger
func (r *Run) Logger() *logging.Logger {
	return r.logger
}

// State returns the current lifecycle state
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Transition moves the run to next. Terminated is final.
func (r *Run) Transition(next State) {
	r.mu.Lock()
	if r.state == Terminated || r.state == next {
		r.mu.Unlock()
		return
	}
	r.state = next
	hook := r.onState
	r.mu.Unlock()

	r.logger.Debug(fmt.Sprintf("run %s", next))
	if hook != nil {
		hook(next)
	}
}

// Fail classifies err, records its exit code and logs its message at ERROR.
// It reports false, and logs nothing above DEBUG, when the exit code was
// already decided by an earlier failure.
func (r *Run) Fail(err error) bool {
	if err == nil {
		return false
	}

	code := clierr.ExitCode(err)

	r.mu.Lock()
	if r.decided {
		prev := r.code
		r.mu.Unlock()
		r.logger.Debug("suppressed secondary failure", map[string]interface{}{
			"error":     clierr.Describe(err),
			"exit_code": prev,
		})
		return false
	}
	r.decided = true
	r.code = code
	r.mu.Unlock()

	r.logger.Error(clierr.Describe(err))
	r.logger.Debug("failure detail", map[string]interface{}{
		"error_type": fmt.Sprintf("%T", err),
		"detail":     fmt.Sprintf("%+v", err),
		"exit_code":  code,
		"fatal":      clierr.IsFatal(err),
	})
	return true
}

// Failed reports whether a failure has already decided the exit code
func (r *Run) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decided
}

// ExitCode returns the decided exit code, or 0 when nothing failed
func (r *Run) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.decided {
		return clierr.ExitOK
	}
	return r.code
}
