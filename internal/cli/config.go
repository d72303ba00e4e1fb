package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/capctl/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormats = []string{"table", "json", "yaml"}

func newConfigCmd(d *Deps) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}

	var output string
	configCmd.AddCommand(d.command(Descriptor{
		Use:   "show",
		Short: "Print the configuration capctl runs with",
		Long: `Print the configuration resolved from capctl.config.json, the user config
file and CAPCTL_* environment variables. Passwords are never printed.`,
		Args: cobra.NoArgs,
		Options: []OptionSpec{
			{Flag: "output", Shorthand: "o", Description: "output format", Choices: outputFormats, Default: "table", Target: &output},
		},
		Action: func(ctx context.Context, args []string) error {
			return printConfig(d, output)
		},
	}))
	return configCmd
}

func printConfig(d *Deps, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(d.Config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(d.Out, string(data))
	case "yaml":
		data, err := yaml.Marshal(d.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Fprint(d.Out, string(data))
	default:
		table := tablewriter.NewWriter(d.Out)
		table.Header("Key", "Value")
		for _, row := range configRows(d.Config) {
			table.Append(row[0], row[1])
		}
		table.Render()
	}
	return nil
}

func configRows(c *config.Config) [][2]string {
	return [][2]string{
		{"cli.version", c.CLI.Version},
		{"cli.user_config_path", c.CLI.UserConfigPath},
		{"app.root_dir", c.App.RootDir},
		{"app.config_path", c.App.ConfigPath},
		{"app.app_id", c.App.AppID},
		{"app.app_name", c.App.AppName},
		{"app.web_dir", c.App.WebDir},
		{"android.path", c.Android.Path},
		{"android.flavor", c.Android.Flavor},
		{"android.release_type", c.Android.ReleaseType},
		{"android.signing_type", c.Android.SigningType},
		{"android.keystore_path", c.Android.KeystorePath},
		{"android.keystore_password", mask(c.Android.KeystorePassword)},
		{"android.keystore_alias", c.Android.KeystoreAlias},
		{"android.keystore_alias_password", mask(c.Android.KeystoreAliasPassword)},
		{"ios.path", c.IOS.Path},
		{"ios.scheme", c.IOS.Scheme},
		{"ios.configuration", c.IOS.Configuration},
		{"telemetry.enabled", strconv.FormatBool(c.Telemetry.Enabled)},
		{"telemetry.endpoint", c.Telemetry.Endpoint},
		{"telemetry.otlp_endpoint", c.Telemetry.OTLPEndpoint},
		{"telemetry.textfile", c.Telemetry.Textfile},
		{"telemetry.pushgateway", c.Telemetry.Pushgateway},
		{"history.dsn", c.History.DSN},
		{"log.level", c.Log.Level},
		{"log.format", c.Log.Format},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
