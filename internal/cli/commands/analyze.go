package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Save bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file|->...",
		Short: "Extract column lineage from T-SQL scripts",
		Long: `Analyze one or more T-SQL scripts and print the column lineage graph.

Each script yields its column nodes, the edges between them and any parse
errors. Parse errors are reported as part of the result and do not fail
the command. Use "-" to read a script from stdin.

Views and procedures referenced by a script are inlined from
--definitions-dir or a SQL Server given by --mssql-dsn.`,
		Example: `  # Analyze a script
  leaplineage analyze etl/load_orders.sql

  # Analyze several scripts with view definitions from a project
  leaplineage analyze --definitions-dir ./Database etl/*.sql

  # Read from stdin and save the run
  cat script.sql | leaplineage analyze - --save`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save each result to the state database")

	return cmd
}

func runAnalyze(cmd *cobra.Command, paths []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()
	logger := config.GetLogger(ctx)

	sess, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	results, err := analyzeAll(ctx, sess, cmd, paths, cfg.Concurrency)
	if err != nil {
		return err
	}

	if opts.Save {
		if err := saveResults(ctx, cmd, cfg, results); err != nil {
			return err
		}
	}

	return renderResults(cmd.OutOrStdout(), resolveFormat(cfg.OutputFormat, cmd.OutOrStdout()), results)
}

// analyzeAll analyzes paths concurrently. Results keep the order of paths.
func analyzeAll(ctx context.Context, sess *session, cmd *cobra.Command, paths []string, concurrency int) ([]fileResult, error) {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	// stdin can only be read once, so read scripts up front for "-".
	scripts := make([]string, len(paths))
	for i, p := range paths {
		if p != "-" {
			continue
		}
		text, err := readScript(cmd.InOrStdin(), p)
		if err != nil {
			return nil, err
		}
		scripts[i] = text
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			text := scripts[i]
			if p != "-" {
				var err error
				if text, err = readScript(nil, p); err != nil {
					return err
				}
			}

			result, err := sess.analyzer.Analyze(text)
			if err != nil {
				return fmt.Errorf("failed to analyze %s: %w", p, err)
			}
			sess.logger.Debug("analyzed script",
				slog.String("source", p),
				slog.Int("nodes", len(result.Nodes)),
				slog.Int("edges", len(result.Edges)),
				slog.Int("errors", len(result.Errors)))
			results[i] = fileResult{Source: p, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func saveResults(ctx context.Context, cmd *cobra.Command, cfg *config.Config, results []fileResult) error {
	store, err := openStore(cfg, config.GetLogger(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for _, fr := range results {
		run, err := store.SaveRun(ctx, fr.Source, fr.Result)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s for %s\n", run.ID, fr.Source)
	}
	return nil
}
