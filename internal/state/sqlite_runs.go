package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
)

type runRow struct {
	ID         string `db:"id"`
	Source     string `db:"source"`
	CreatedAt  int64  `db:"created_at"`
	NodeCount  int    `db:"node_count"`
	EdgeCount  int    `db:"edge_count"`
	ErrorCount int    `db:"error_count"`
}

type nodeRow struct {
	NodeID     string `db:"node_id"`
	Name       string `db:"name"`
	SourceName string `db:"source_name"`
}

type edgeRow struct {
	SourceNodeID string `db:"source_node_id"`
	TargetNodeID string `db:"target_node_id"`
}

type errorRow struct {
	Line    int    `db:"line"`
	Column  int    `db:"col"`
	Message string `db:"message"`
}

const runColumns = `id, source, created_at, node_count, edge_count, error_count`

// SaveRun stores the result of analyzing source and returns the new run.
func (s *SQLiteStore) SaveRun(ctx context.Context, source string, result *lineage.Result) (*Run, error) {
	if s.db == nil {
		return nil, ErrStoreNotOpen
	}

	run := &Run{
		ID:         generateID(),
		Source:     source,
		CreatedAt:  time.Now().UTC(),
		NodeCount:  len(result.Nodes),
		EdgeCount:  len(result.Edges),
		ErrorCount: len(result.Errors),
	}

	s.logger.Debug("saving run",
		slog.String("id", run.ID),
		slog.String("source", source),
		slog.Int("nodes", run.NodeCount),
		slog.Int("edges", run.EdgeCount))

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.CreatedAt.UnixNano(), run.NodeCount, run.EdgeCount, run.ErrorCount,
	); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	if err := insertEach(ctx, tx,
		`INSERT INTO run_nodes (run_id, position, node_id, name, source_name) VALUES (?, ?, ?, ?, ?)`,
		len(result.Nodes), func(i int) []any {
			n := result.Nodes[i]
			return []any{run.ID, i, n.ID, n.Name, n.SourceName}
		}); err != nil {
		return nil, fmt.Errorf("failed to insert nodes: %w", err)
	}

	if err := insertEach(ctx, tx,
		`INSERT INTO run_edges (run_id, position, source_node_id, target_node_id) VALUES (?, ?, ?, ?)`,
		len(result.Edges), func(i int) []any {
			e := result.Edges[i]
			return []any{run.ID, i, e.SourceNodeID, e.TargetNodeID}
		}); err != nil {
		return nil, fmt.Errorf("failed to insert edges: %w", err)
	}

	if err := insertEach(ctx, tx,
		`INSERT INTO run_errors (run_id, position, line, col, message) VALUES (?, ?, ?, ?, ?)`,
		len(result.Errors), func(i int) []any {
			e := result.Errors[i]
			return []any{run.ID, i, e.Line, e.Column, e.Message}
		}); err != nil {
		return nil, fmt.Errorf("failed to insert errors: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// insertEach executes query once per row through a prepared statement.
func insertEach(ctx context.Context, tx *sqlx.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i := range n {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by ID with its full result.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrStoreNotOpen
	}

	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var nodes []nodeRow
	if err := s.db.SelectContext(ctx, &nodes,
		`SELECT node_id, name, source_name FROM run_nodes WHERE run_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to get nodes: %w", err)
	}
	var edges []edgeRow
	if err := s.db.SelectContext(ctx, &edges,
		`SELECT source_node_id, target_node_id FROM run_edges WHERE run_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to get edges: %w", err)
	}
	var errs []errorRow
	if err := s.db.SelectContext(ctx, &errs,
		`SELECT line, col, message FROM run_errors WHERE run_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to get errors: %w", err)
	}

	result, err := lineage.NewResult(convertNodes(nodes), convertEdges(edges), convertErrors(errs))
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild run %s: %w", id, err)
	}

	run := convertRun(row)
	run.Result = result
	return run, nil
}

// ListRuns retrieves the most recent runs, newest first. A limit of zero
// or less returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrStoreNotOpen
	}
	if limit <= 0 {
		limit = -1
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]*Run, len(rows))
	for i, row := range rows {
		runs[i] = convertRun(row)
	}
	return runs, nil
}

// DeleteRun removes a run and its graph.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	if s.db == nil {
		return ErrStoreNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func convertRun(row runRow) *Run {
	return &Run{
		ID:         row.ID,
		Source:     row.Source,
		CreatedAt:  time.Unix(0, row.CreatedAt).UTC(),
		NodeCount:  row.NodeCount,
		EdgeCount:  row.EdgeCount,
		ErrorCount: row.ErrorCount,
	}
}

func convertNodes(rows []nodeRow) []lineage.ResultNode {
	out := make([]lineage.ResultNode, len(rows))
	for i, r := range rows {
		out[i] = lineage.ResultNode{ID: r.NodeID, Name: r.Name, SourceName: r.SourceName}
	}
	return out
}

func convertEdges(rows []edgeRow) []lineage.ResultEdge {
	out := make([]lineage.ResultEdge, len(rows))
	for i, r := range rows {
		out[i] = lineage.ResultEdge{SourceNodeID: r.SourceNodeID, TargetNodeID: r.TargetNodeID}
	}
	return out
}

func convertErrors(rows []errorRow) []lineage.ResultError {
	out := make([]lineage.ResultError, len(rows))
	for i, r := range rows {
		out[i] = lineage.ResultError{Line: r.Line, Column: r.Column, Message: r.Message}
	}
	return out
}
