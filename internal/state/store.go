// Package state stores the history of lineage analysis runs in SQLite.
// Each saved run keeps its full graph so columns can be traced later
// without re-analyzing the script.
package state

import (
	"errors"
	"time"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
)

var (
	// ErrStoreNotOpen is returned by operations on a store that is not open.
	ErrStoreNotOpen = errors.New("database not opened")

	// ErrRunNotFound is returned when a run id does not exist.
	ErrRunNotFound = errors.New("run not found")
)

// Run is one saved analysis.
type Run struct {
	ID         string
	Source     string // file path or "-" for stdin
	CreatedAt  time.Time
	NodeCount  int
	EdgeCount  int
	ErrorCount int

	// Result is only loaded by GetRun.
	Result *lineage.Result
}

// TraceResult is one column reached while tracing a saved graph.
type TraceResult struct {
	NodeID string `json:"NodeId"`
	Depth  int    `json:"Depth"` // edges from the traced column
}
