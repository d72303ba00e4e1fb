package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/psantana5/capctl/internal/action"
	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/runstate"
	"github.com/psantana5/capctl/pkg/logging"
	"github.com/spf13/cobra"
)

// Flags read by the entrypoint before the command tree exists. They are
// declared on the root so that cobra accepts them on every command.
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// NewRootCmd builds the command tree. Nothing runs until it is executed.
func NewRootCmd(d Deps) *cobra.Command {
	d.setDefaults()

	var (
		cfgFile   string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "capctl",
		Short: "Build signed release artifacts for mobile apps",
		Long: `capctl builds the release versions of an app's native platforms: a signed
AAB or APK for Android, and an exported archive for iOS.`,
		Version: d.Config.CLI.Version,
		// Unknown commands reach Run, which rejects them.
		Args:              cobra.ArbitraryArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.Run = action.Wrap(d.Run, func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return clierr.Fatal("Unknown command: " + args[0])
		}
		printBanner(root.OutOrStdout(), d.Config.CLI.Version)
		return root.Help()
	})
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger := d.Run.Logger()
		if cmd.Flags().Changed(FlagLogLevel) {
			logger.SetLevel(logging.ParseLevel(logLevel))
		}
		if cmd.Flags().Changed(FlagLogFormat) {
			logger.SetFormat(logging.ParseFormat(logFormat))
		}
	}

	root.SetOut(d.Out)
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&cfgFile, FlagConfig, "", "user config file (default is $HOME/.capctl/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, FlagLogLevel, "info", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&logFormat, FlagLogFormat, "console", "log format: console, text or json")

	root.AddCommand(
		newBuildCmd(&d),
		newTelemetryCmd(&d),
		newConfigCmd(&d),
		newHistoryCmd(&d),
	)
	return root
}

// Execute parses argv and dispatches it. Errors cobra returns on its own,
// such as an unknown flag or a value outside an option's choices, are
// reported through run like any handler failure.
func Execute(ctx context.Context, root *cobra.Command, run *runstate.Run, argv []string) {
	if argv == nil {
		// cobra falls back to os.Args for a nil slice
		argv = []string{}
	}
	root.SetArgs(argv)
	if err := root.ExecuteContext(ctx); err != nil {
		run.Fail(err)
	}
}

func printBanner(w io.Writer, version string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   ___ __ _ _ __   ___| |_| |")
	fmt.Fprintln(w, "  / __/ _` | '_ \\ / __| __| |")
	fmt.Fprintln(w, " | (_| (_| | |_) | (__| |_| |")
	fmt.Fprintln(w, "  \\___\\__,_| .__/ \\___|\\__|_|")
	fmt.Fprintf(w, "           |_|   %s\n\n", version)
}
