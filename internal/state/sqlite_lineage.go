package state

import (
	"context"
	"fmt"
)

// maxTraceDepth stops traces through cyclic graphs.
const maxTraceDepth = 256

const traceUpstreamQuery = `
WITH RECURSIVE upstream(node_id, depth) AS (
	SELECT source_node_id, 1 FROM run_edges WHERE run_id = ? AND target_node_id = ?
	UNION
	SELECT e.source_node_id, u.depth + 1
	FROM run_edges e
	JOIN upstream u ON e.target_node_id = u.node_id
	WHERE e.run_id = ? AND u.depth < ?
)
SELECT node_id, MIN(depth) AS depth FROM upstream GROUP BY node_id ORDER BY depth, node_id`

const traceDownstreamQuery = `
WITH RECURSIVE downstream(node_id, depth) AS (
	SELECT target_node_id, 1 FROM run_edges WHERE run_id = ? AND source_node_id = ?
	UNION
	SELECT e.target_node_id, d.depth + 1
	FROM run_edges e
	JOIN downstream d ON e.source_node_id = d.node_id
	WHERE e.run_id = ? AND d.depth < ?
)
SELECT node_id, MIN(depth) AS depth FROM downstream GROUP BY node_id ORDER BY depth, node_id`

type traceRow struct {
	NodeID string `db:"node_id"`
	Depth  int    `db:"depth"`
}

// TraceUpstream returns every column of a saved run that feeds nodeID,
// nearest first. nodeID itself is never listed, even on a cycle.
func (s *SQLiteStore) TraceUpstream(ctx context.Context, runID, nodeID string) ([]TraceResult, error) {
	return s.trace(ctx, traceUpstreamQuery, runID, nodeID)
}

// TraceDownstream returns every column of a saved run that nodeID feeds,
// nearest first.
func (s *SQLiteStore) TraceDownstream(ctx context.Context, runID, nodeID string) ([]TraceResult, error) {
	return s.trace(ctx, traceDownstreamQuery, runID, nodeID)
}

func (s *SQLiteStore) trace(ctx context.Context, query, runID, nodeID string) ([]TraceResult, error) {
	if s.db == nil {
		return nil, ErrStoreNotOpen
	}

	var rows []traceRow
	if err := s.db.SelectContext(ctx, &rows, query, runID, nodeID, runID, maxTraceDepth); err != nil {
		return nil, fmt.Errorf("failed to trace column %s: %w", nodeID, err)
	}

	results := make([]TraceResult, 0, len(rows))
	for _, row := range rows {
		if row.NodeID == nodeID {
			continue
		}
		results = append(results, TraceResult{NodeID: row.NodeID, Depth: row.Depth})
	}
	return results, nil
}
