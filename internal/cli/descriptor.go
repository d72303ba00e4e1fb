// Package cli declares the capctl command tree. Every command body runs
// behind the same failure boundary, and commands that do real work are also
// instrumented with telemetry.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/psantana5/capctl/internal/action"
	"github.com/psantana5/capctl/internal/config"
	"github.com/psantana5/capctl/internal/history"
	"github.com/psantana5/capctl/internal/runstate"
	"github.com/psantana5/capctl/internal/tasks/build"
	"github.com/psantana5/capctl/internal/telemetry"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/spf13/cobra"
)

// OptionSpec declares one string option of a command
type OptionSpec struct {
	Flag        string
	Shorthand   string
	Description string
	// Choices, when set, is the only set of values the option accepts.
	Choices []string
	Default string
	Target  *string
}

// Descriptor declares a command: its usage, its ordered options and the
// action bound to it.
type Descriptor struct {
	Use       string
	Short     string
	Long      string
	Example   string
	Args      cobra.PositionalArgs
	ValidArgs []string
	Options   []OptionSpec
	// Instrument reports the command's outcome to telemetry.
	Instrument bool
	Action     action.Handler
}

// Name is the first word of Use
func (d Descriptor) Name() string {
	fields := strings.Fields(d.Use)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Validate reports declaration mistakes: a missing name or action, a
// duplicated flag, or a default outside an option's choices.
func (d Descriptor) Validate() error {
	if d.Name() == "" {
		return fmt.Errorf("command has no name")
	}
	if d.Action == nil {
		return fmt.Errorf("command %s has no action", d.Name())
	}
	seen := make(map[string]bool, len(d.Options))
	for _, o := range d.Options {
		if o.Flag == "" || o.Target == nil {
			return fmt.Errorf("command %s: option %q needs a flag and a target", d.Name(), o.Flag)
		}
		if seen[o.Flag] {
			return fmt.Errorf("command %s: duplicate option --%s", d.Name(), o.Flag)
		}
		seen[o.Flag] = true
		if len(o.Choices) > 0 && o.Default != "" && !slices.Contains(o.Choices, o.Default) {
			return fmt.Errorf("command %s: default %q of --%s is not one of %s",
				d.Name(), o.Default, o.Flag, strings.Join(o.Choices, ", "))
		}
	}
	return nil
}

// BuildTask is the task logic behind `capctl build`
type BuildTask interface {
	Build(ctx context.Context, platform string, opts build.Options) error
}

// Deps are the collaborators shared by the command tree
type Deps struct {
	Run      *runstate.Run
	Config   *config.Config
	Recorder *telemetry.Recorder
	Out      io.Writer

	// NewBuilder is called only when `build` is dispatched.
	NewBuilder func(cfg *config.Config, logger *logging.Logger) BuildTask
	// OpenHistory is called only when `history` is dispatched.
	OpenHistory func(ctx context.Context, dsn string) (history.Store, error)
}

func (d *Deps) setDefaults() {
	if d.Run == nil {
		d.Run = runstate.New(nil)
	}
	if d.Config == nil {
		d.Config = &config.Config{}
	}
	if d.Recorder == nil {
		d.Recorder = telemetry.NewRecorder(nil, d.Run.Logger())
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.NewBuilder == nil {
		d.NewBuilder = func(cfg *config.Config, logger *logging.Logger) BuildTask {
			return build.New(cfg, nil, logger)
		}
	}
	if d.OpenHistory == nil {
		d.OpenHistory = history.Open
	}
}

// command turns desc into a cobra command whose Run is the wrapped action.
// Declaration mistakes are programming errors and panic.
func (d *Deps) command(desc Descriptor) *cobra.Command {
	if err := desc.Validate(); err != nil {
		panic(err)
	}

	h := desc.Action
	if desc.Instrument {
		h = d.Recorder.Action(d.Config, desc.Name(), h)
	}

	cmd := &cobra.Command{
		Use:       desc.Use,
		Short:     desc.Short,
		Long:      desc.Long,
		Example:   desc.Example,
		Args:      desc.Args,
		ValidArgs: desc.ValidArgs,
		Run:       action.Wrap(d.Run, h),
	}
	cmd.Flags().SortFlags = false

	for _, o := range desc.Options {
		if len(o.Choices) > 0 {
			usage := fmt.Sprintf("%s (choices: %s)", o.Description, strings.Join(o.Choices, ", "))
			cmd.Flags().VarP(newChoiceValue(o.Target, o.Default, o.Choices), o.Flag, o.Shorthand, usage)
			continue
		}
		cmd.Flags().StringVarP(o.Target, o.Flag, o.Shorthand, o.Default, o.Description)
	}
	return cmd
}
