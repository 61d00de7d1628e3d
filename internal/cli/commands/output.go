package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/state"
)

// resolveFormat turns "auto" into table on a terminal and JSON otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != config.OutputAuto && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return config.OutputTable
	}
	return config.OutputJSON
}

// fileResult pairs a result with the script it came from.
type fileResult struct {
	Source string          `json:"Source"`
	Result *lineage.Result `json:"Result"`
}

// renderResults writes analysis results. A single JSON result is written
// bare so its shape matches the result document.
func renderResults(w io.Writer, format string, results []fileResult) error {
	if format == config.OutputJSON {
		if len(results) == 1 {
			return results[0].Result.WriteJSON(w)
		}
		return writeJSON(w, results)
	}

	for i, fr := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		renderResultTable(w, fr.Source, fr.Result)
	}
	return nil
}

func renderResultTable(w io.Writer, source string, r *lineage.Result) {
	_, _ = fmt.Fprintf(w, "%s: %d columns, %d edges, %d errors\n", source, len(r.Nodes), len(r.Edges), len(r.Errors))

	if len(r.Nodes) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Column", "Name", "Source"})
		for _, n := range r.Nodes {
			t.AppendRow(table.Row{n.ID, n.Name, n.SourceName})
		}
		t.Render()
	}

	if len(r.Edges) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"From", "To"})
		for _, e := range r.Edges {
			t.AppendRow(table.Row{e.SourceNodeID, e.TargetNodeID})
		}
		t.Render()
	}

	if len(r.Errors) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Line", "Column", "Error"})
		for _, e := range r.Errors {
			t.AppendRow(table.Row{e.Line, e.Column, e.Message})
		}
		t.Render()
	}

	if d := r.Diagnostics; d != nil && !d.Empty() {
		if u := d.Unsupported(); len(u) > 0 {
			_, _ = fmt.Fprintf(w, "Unsupported: %s\n", strings.Join(u, ", "))
		}
		for _, note := range d.Notes() {
			_, _ = fmt.Fprintf(w, "Note: %s\n", note)
		}
	}
}

// traceOutput is the JSON document written by trace.
type traceOutput struct {
	Column     string              `json:"Column"`
	Upstream   []state.TraceResult `json:"Upstream,omitempty"`
	Downstream []state.TraceResult `json:"Downstream,omitempty"`
}

func renderTrace(w io.Writer, format string, out traceOutput) error {
	if format == config.OutputJSON {
		return writeJSON(w, out)
	}

	_, _ = fmt.Fprintf(w, "Lineage for: %s\n", out.Column)
	t := newTable(w)
	t.AppendHeader(table.Row{"Direction", "Column", "Depth"})
	for _, r := range out.Upstream {
		t.AppendRow(table.Row{"upstream", r.NodeID, r.Depth})
	}
	for _, r := range out.Downstream {
		t.AppendRow(table.Row{"downstream", r.NodeID, r.Depth})
	}
	t.Render()
	return nil
}

// runOutput is a saved run as rendered by history.
type runOutput struct {
	ID         string `json:"Id"`
	Source     string `json:"Source"`
	CreatedAt  string `json:"CreatedAt"`
	NodeCount  int    `json:"NodeCount"`
	EdgeCount  int    `json:"EdgeCount"`
	ErrorCount int    `json:"ErrorCount"`
}

func renderRuns(w io.Writer, format string, runs []*state.Run) error {
	out := make([]runOutput, len(runs))
	for i, r := range runs {
		out[i] = runOutput{
			ID:         r.ID,
			Source:     r.Source,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
			NodeCount:  r.NodeCount,
			EdgeCount:  r.EdgeCount,
			ErrorCount: r.ErrorCount,
		}
	}

	if format == config.OutputJSON {
		return writeJSON(w, out)
	}
	if len(out) == 0 {
		_, _ = fmt.Fprintln(w, "No saved runs.")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Source", "Created", "Columns", "Edges", "Errors"})
	for _, r := range out {
		t.AppendRow(table.Row{r.ID, r.Source, r.CreatedAt, r.NodeCount, r.EdgeCount, r.ErrorCount})
	}
	t.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
