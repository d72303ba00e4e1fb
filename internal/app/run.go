// Package app is the capctl process entrypoint. Run owns everything that
// lives for one process run and turns its outcome into an exit code.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/psantana5/capctl/internal/cli"
	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/internal/ipc"
	"github.com/psantana5/capctl/internal/runstate"
	"github.com/psantana5/capctl/internal/telemetry"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/psantana5/capctl/pkg/shutdown"
)

const (
	shutdownTimeout = 5 * time.Second

	// Relayed telemetry from a parent process
	ipcRate  = 20
	ipcBurst = 50
)

// The inherited IPC descriptor belongs to the process, so it is opened by
// the first Run only.
var ipcEnvOnce sync.Once

// Run executes one capctl invocation for argv (without the program name) and
// returns the process exit code.
func Run(ctx context.Context, argv []string, opts ...Option) (code int) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	early := scanEarlyFlags(argv)
	logger := newLogger(o, early)
	run := runstate.New(logger)
	if o.onState != nil {
		run.OnStateChange(o.onState)
	}
	sd := shutdown.New(shutdownTimeout, logger)

	// Backstop for failures outside any command. A failure a command already
	// reported is not logged again because run keeps the first one only.
	defer func() {
		if p := recover(); p != nil {
			run.Fail(clierr.FromPanic(p))
		}
		run.Transition(runstate.Terminated)
		sd.Shutdown()
		code = run.ExitCode()
	}()

	receiver := ipc.NewReceiver(logger, ipcRate, ipcBurst)
	bindIPC(ctx, o, receiver, logger, sd)

	loadOpts := o.loadOpts
	if early.config != "" {
		loadOpts.UserConfigPath = early.config
	}
	cfg, err := o.load(ctx, loadOpts)
	if err != nil {
		run.Fail(err)
		return
	}
	applyLogConfig(logger, cfg, early)
	run.Transition(runstate.Running)

	rec := telemetry.Setup(ctx, cfg, logger, sd)
	receiver.Attach(rec)

	root := cli.NewRootCmd(cli.Deps{
		Run:        run,
		Config:     cfg,
		Recorder:   rec,
		Out:        o.stdout,
		NewBuilder: o.newBuilder,
	})
	root.SetErr(o.stderr)
	cli.Execute(ctx, root, run, argv)
	return
}

func newLogger(o *options, early earlyFlags) *logging.Logger {
	level := early.logLevel
	if level == "" {
		level, _ = o.lookupEnv(config.EnvPrefix + "_LOG_LEVEL")
	}
	format := early.logFormat
	if format == "" {
		format, _ = o.lookupEnv(config.EnvPrefix + "_LOG_FORMAT")
	}

	logger := logging.NewLogger(logging.ParseLevel(level), logging.ParseFormat(format))
	logger.SetOutput(o.stderr)
	return logger
}

// applyLogConfig lets the user config set the log level and format unless a
// flag already did.
func applyLogConfig(logger *logging.Logger, cfg *config.Config, early earlyFlags) {
	if early.logLevel == "" && cfg.Log.Level != "" {
		logger.SetLevel(logging.ParseLevel(cfg.Log.Level))
	}
	if early.logFormat == "" && cfg.Log.Format != "" {
		logger.SetFormat(logging.ParseFormat(cfg.Log.Format))
	}
}

// bindIPC starts delivering messages from the controlling process to
// receiver. The channel is closed at shutdown, which ends the listener.
func bindIPC(ctx context.Context, o *options, receiver *ipc.Receiver, logger *logging.Logger, sd *shutdown.Manager) {
	src := o.ipc
	if src == nil {
		ipcEnvOnce.Do(func() {
			f, ok, err := ipc.OpenFromEnv(o.lookupEnv)
			if err != nil {
				logger.Debug(fmt.Sprintf("ipc disabled: %v", err))
				return
			}
			if ok {
				src = f
			}
		})
	}
	if src == nil {
		return
	}

	if c, ok := src.(io.Closer); ok {
		sd.Register("ipc", shutdown.CloseResource(c, "ipc channel"))
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Warn(fmt.Sprintf("ipc listener panicked: %v", p))
			}
		}()
		if err := receiver.Listen(ctx, src); err != nil {
			logger.Debug(fmt.Sprintf("ipc listener stopped: %v", err))
		}
	}()
}
