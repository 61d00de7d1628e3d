package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Delete bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List saved runs or show one run",
		Long: `Show analysis runs saved with "analyze --save".

Without arguments the most recent runs are listed. With a run id the full
result of that run is printed, or deleted with --delete.`,
		Example: `  # List the last 20 runs
  leaplineage history

  # Show one run as JSON
  leaplineage history 5f0c... -o json

  # Delete a run
  leaplineage history 5f0c... --delete`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := getConfig()

			store, err := openStore(cfg, config.GetLogger(ctx))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			format := resolveFormat(cfg.OutputFormat, out)

			if len(args) == 0 {
				if opts.Delete {
					return fmt.Errorf("--delete requires a run id")
				}
				runs, err := store.ListRuns(ctx, opts.Limit)
				if err != nil {
					return err
				}
				return renderRuns(out, format, runs)
			}

			if opts.Delete {
				if err := store.DeleteRun(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "Deleted run %s\n", args[0])
				return nil
			}

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			return renderResults(out, format, []fileResult{{Source: run.Source, Result: run.Result}})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolVar(&opts.Delete, "delete", false, "Delete the given run")

	return cmd
}
