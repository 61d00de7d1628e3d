package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/state"
)

// TraceOptions holds options for the trace command.
type TraceOptions struct {
	Upstream   bool
	Downstream bool
	RunID      string
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	opts := &TraceOptions{}

	cmd := &cobra.Command{
		Use:   "trace [file|-] <column-id>",
		Short: "Show upstream and downstream columns of a column",
		Long: `Trace one column through the lineage graph of a script.

Upstream columns feed the traced column, downstream columns are fed by it.
Column ids are "Source.Name" as printed by analyze, or just "Name" for
columns of a final result set. With --run the graph of a saved run is
traced instead of analyzing a script.`,
		Example: `  # Everything that feeds a column of the final result
  leaplineage trace report.sql total

  # Where a base table column ends up
  leaplineage trace report.sql dbo.Orders.amount --upstream=false

  # Trace a saved run
  leaplineage trace --run 5f0c... total`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.RunID != "" {
				if len(args) != 1 {
					return fmt.Errorf("trace --run takes exactly one column id, got %d arguments", len(args))
				}
				return runTraceSaved(cmd, args[0], opts)
			}
			if len(args) != 2 {
				return fmt.Errorf("trace takes a script and a column id")
			}
			return runTrace(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream columns")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream columns")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "Trace a saved run instead of a script")

	return cmd
}

func runTrace(cmd *cobra.Command, path, column string, opts *TraceOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()

	sess, err := openSession(ctx, cfg, config.GetLogger(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	text, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	result, err := sess.analyzer.Analyze(text)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", path, err)
	}

	out, err := traceGraph(result.Graph(), column, opts)
	if err != nil {
		return err
	}
	return renderTrace(cmd.OutOrStdout(), resolveFormat(cfg.OutputFormat, cmd.OutOrStdout()), out)
}

func runTraceSaved(cmd *cobra.Command, column string, opts *TraceOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()

	store, err := openStore(cfg, config.GetLogger(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(ctx, opts.RunID)
	if err != nil {
		return err
	}
	if _, ok := run.Result.Graph().Node(column); !ok {
		return fmt.Errorf("column %s in run %s: %w", column, run.ID, lineage.ErrNodeNotFound)
	}

	out := traceOutput{Column: column}
	if opts.Upstream {
		if out.Upstream, err = store.TraceUpstream(ctx, run.ID, column); err != nil {
			return err
		}
	}
	if opts.Downstream {
		if out.Downstream, err = store.TraceDownstream(ctx, run.ID, column); err != nil {
			return err
		}
	}
	return renderTrace(cmd.OutOrStdout(), resolveFormat(cfg.OutputFormat, cmd.OutOrStdout()), out)
}

// traceGraph walks g from column in the requested directions.
func traceGraph(g *lineage.Graph, column string, opts *TraceOptions) (traceOutput, error) {
	if _, ok := g.Node(column); !ok {
		return traceOutput{}, fmt.Errorf("column %s: %w", column, lineage.ErrNodeNotFound)
	}

	out := traceOutput{Column: column}
	if opts.Upstream {
		out.Upstream = walk(column, g.Sources)
	}
	if opts.Downstream {
		out.Downstream = walk(column, g.Targets)
	}
	return out, nil
}

// walk visits nodes breadth first and returns each reachable node with its
// shortest distance from start, ordered by depth then id.
func walk(start string, next func(id string) []string) []state.TraceResult {
	depth := map[string]int{start: 0}
	queue := []string{start}
	var out []state.TraceResult

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next(id) {
			if _, seen := depth[n]; seen {
				continue
			}
			depth[n] = depth[id] + 1
			out = append(out, state.TraceResult{NodeID: n, Depth: depth[n]})
			queue = append(queue, n)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].NodeID < out[j].NodeID
	})
	return out
}
