package cli

import (
	"context"
	"fmt"

	"github.com/psantana5/capctl/internal/config"
	"github.com/spf13/cobra"
)

func newTelemetryCmd(d *Deps) *cobra.Command {
	return d.command(Descriptor{
		Use:   "telemetry [on|off]",
		Short: "Enable or disable usage telemetry",
		Long: `Show whether anonymous usage telemetry is enabled, or turn it on or off.

The choice is stored in the user config file.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		Action: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				if d.Config.Telemetry.Enabled {
					fmt.Fprintln(d.Out, "Telemetry is on.")
				} else {
					fmt.Fprintln(d.Out, "Telemetry is off. Run `capctl telemetry on` to help improve capctl.")
				}
				return nil
			}

			enabled := args[0] == "on"
			if err := config.SaveUserPreference(d.Config.CLI.UserConfigPath, "telemetry.enabled", enabled); err != nil {
				return err
			}
			if enabled {
				fmt.Fprintln(d.Out, "Telemetry is now on. Thank you for helping improve capctl.")
			} else {
				fmt.Fprintln(d.Out, "Telemetry is now off.")
			}
			return nil
		},
	})
}
