package lineage

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// ResultNode is a column node as rendered in a result.
type ResultNode struct {
	ID         string `json:"Id"`
	Name       string `json:"Name"`
	SourceName string `json:"SourceName"`
}

// ResultEdge is an edge as rendered in a result.
type ResultEdge struct {
	SourceNodeID string `json:"SourceNodeId"`
	TargetNodeID string `json:"TargetNodeId"`
}

// ResultError is a parse error as rendered in a result.
type ResultError struct {
	Line    int    `json:"Line"`
	Column  int    `json:"Column"`
	Message string `json:"Message"`
}

// Result is the outcome of one analysis run.
type Result struct {
	Nodes  []ResultNode  `json:"Nodes"`
	Edges  []ResultEdge  `json:"Edges"`
	Errors []ResultError `json:"Errors"`

	// Diagnostics lists unsupported constructs and limits hit during the run.
	Diagnostics *Diagnostics `json:"-"`

	graph *Graph
}

func newResult(g *Graph, parseErrors []*parser.ParseError, diag *Diagnostics) *Result {
	r := &Result{
		Nodes:       make([]ResultNode, 0, g.NodeCount()),
		Edges:       make([]ResultEdge, 0, g.EdgeCount()),
		Errors:      make([]ResultError, 0, len(parseErrors)),
		Diagnostics: diag,
		graph:       g,
	}
	for _, n := range g.Nodes() {
		r.Nodes = append(r.Nodes, ResultNode{ID: n.ID(), Name: n.Name, SourceName: n.SourceName})
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, ResultEdge{SourceNodeID: e.SourceNodeID, TargetNodeID: e.TargetNodeID})
	}
	for _, e := range parseErrors {
		r.Errors = append(r.Errors, ResultError{Line: e.Line, Column: e.Column, Message: e.Message})
	}
	return r
}

// NewResult rebuilds a result from its rendered parts, for example when it
// is loaded from storage. Edges whose endpoints are missing are an error.
func NewResult(nodes []ResultNode, edges []ResultEdge, errs []ResultError) (*Result, error) {
	g := NewGraph()
	for _, n := range nodes {
		g.AddNode(NewColumnNode(n.SourceName, n.Name))
	}
	for _, e := range edges {
		src, ok := g.Node(e.SourceNodeID)
		if !ok {
			return nil, fmt.Errorf("edge source %q: %w", e.SourceNodeID, ErrNodeNotFound)
		}
		tgt, ok := g.Node(e.TargetNodeID)
		if !ok {
			return nil, fmt.Errorf("edge target %q: %w", e.TargetNodeID, ErrNodeNotFound)
		}
		if _, err := g.AddEdge(src, tgt); err != nil {
			return nil, err
		}
	}

	parseErrors := make([]*parser.ParseError, len(errs))
	for i, e := range errs {
		parseErrors[i] = &parser.ParseError{Line: e.Line, Column: e.Column, Message: e.Message}
	}
	return newResult(g, parseErrors, NewDiagnostics()), nil
}

// Graph returns the lineage graph behind the result.
func (r *Result) Graph() *Graph {
	return r.graph
}

// WriteJSON writes the result as indented JSON.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
