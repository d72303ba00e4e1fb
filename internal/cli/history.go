package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/capctl/internal/clierr"
	"github.com/psantana5/capctl/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(d *Deps) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := d.command(Descriptor{
		Use:   "history",
		Short: "List recent command outcomes",
		Long: `List the most recent capctl invocations recorded in the local history
database. Recording is enabled by setting history.dsn in the user config or
CAPCTL_HISTORY_DSN to a SQLite path or a postgres:// URL.`,
		Args: cobra.NoArgs,
		Options: []OptionSpec{
			{Flag: "output", Shorthand: "o", Description: "output format", Choices: []string{"table", "json"}, Default: "table", Target: &output},
		},
		Action: func(ctx context.Context, args []string) error {
			dsn := d.Config.History.DSN
			if dsn == "" {
				return clierr.Fatal("history is not enabled; set history.dsn in your user config or CAPCTL_HISTORY_DSN")
			}
			if limit <= 0 {
				return clierr.Fatal(fmt.Sprintf("--limit must be positive, got %d", limit), clierr.ExitUsage)
			}

			store, err := d.OpenHistory(ctx, dsn)
			if err != nil {
				return fmt.Errorf("failed to open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			return printHistory(d, entries, output)
		},
	})
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of invocations to show")
	return cmd
}

func printHistory(d *Deps, entries []history.Entry, format string) error {
	if format == "json" {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(d.Out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(d.Out, "No invocations recorded")
		return nil
	}

	table := tablewriter.NewWriter(d.Out)
	table.Header("Started", "Command", "Outcome", "Duration", "Version", "Error")
	for _, e := range entries {
		table.Append(
			e.StartedAt.Local().Format(time.DateTime),
			e.Command,
			e.Outcome,
			e.Duration.Round(time.Millisecond).String(),
			e.CLIVersion,
			e.Error,
		)
	}
	table.Render()
	fmt.Fprintf(d.Out, "\nShowing %d invocation(s)\n", len(entries))
	return nil
}
