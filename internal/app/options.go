package app

import (
	"context"
	"io"
	"os"

	"github.com/psantana5/capctl/internal/cli"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/internal/runstate"
	"github.com/psantana5/capctl/pkg/logging"
)

// Loader resolves the configuration
type Loader func(ctx context.Context, opts config.LoadOptions) (*config.Config, error)

type options struct {
	stdout     io.Writer
	stderr     io.Writer
	lookupEnv  func(string) (string, bool)
	load       Loader
	loadOpts   config.LoadOptions
	onState    func(runstate.State)
	newBuilder func(*config.Config, *logging.Logger) cli.BuildTask
	ipc        io.Reader
}

// Option customizes Run
type Option func(*options)

// WithOutput sets where command output and log lines go
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithEnv replaces os.LookupEnv for the variables Run reads itself
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.lookupEnv = lookup }
}

// WithLoader replaces config.Load
func WithLoader(load Loader) Option {
	return func(o *options) { o.load = load }
}

// WithLoadOptions sets the project directory and home directory used when
// loading configuration. --config still takes precedence.
func WithLoadOptions(lo config.LoadOptions) Option {
	return func(o *options) { o.loadOpts = lo }
}

// WithStateHook is called after every lifecycle transition
func WithStateHook(fn func(runstate.State)) Option {
	return func(o *options) { o.onState = fn }
}

// WithBuilder replaces the build task factory
func WithBuilder(fn func(*config.Config, *logging.Logger) cli.BuildTask) Option {
	return func(o *options) { o.newBuilder = fn }
}

// WithIPC listens on r instead of the channel named by CAPCTL_IPC_FD
func WithIPC(r io.Reader) Option {
	return func(o *options) { o.ipc = r }
}

func defaultOptions() *options {
	return &options{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		load:      config.Load,
	}
}
