package lineage

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrNodeNotFound is returned by Graph.AddEdge when an endpoint was never added.
var ErrNodeNotFound = errors.New("node not found")

// ColumnNode identifies a column in the lineage graph.
type ColumnNode struct {
	// Name is the simple column name.
	Name string
	// SourceName is the owning table, alias, CTE, view or procedure.
	// Empty for columns of a statement's final result set.
	SourceName string
}

// NewColumnNode creates a node for name owned by source.
func NewColumnNode(source, name string) *ColumnNode {
	return &ColumnNode{Name: name, SourceName: source}
}

// ID returns the node identity: "source.name", or "name" without a source.
func (n *ColumnNode) ID() string {
	if n.SourceName == "" {
		return n.Name
	}
	return n.SourceName + "." + n.Name
}

func (n *ColumnNode) String() string {
	return n.ID()
}

// LineageEdge is a directed data-flow relation between two node identities.
type LineageEdge struct {
	SourceNodeID string
	TargetNodeID string
}

// Graph holds the nodes and edges of one analysis run.
// Nodes and edges keep insertion order; the graph only grows.
type Graph struct {
	nodes    map[string]*ColumnNode
	order    []string
	edges    map[LineageEdge]struct{}
	edgeList []LineageEdge
	children map[string][]string // source -> targets
	parents  map[string][]string // target -> sources
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*ColumnNode),
		edges:    make(map[LineageEdge]struct{}),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds node to the graph. If a node with the same ID exists, the
// existing instance is returned and node is discarded.
func (g *Graph) AddNode(node *ColumnNode) *ColumnNode {
	id := node.ID()
	if existing, ok := g.nodes[id]; ok {
		return existing
	}
	g.nodes[id] = node
	g.order = append(g.order, id)
	return node
}

// AddEdge records a data-flow edge from src to tgt. Both nodes must have been
// added first. Adding an existing edge is a no-op. An edge from a node to
// itself is kept, as in UPDATE T SET a = a + 1.
func (g *Graph) AddEdge(src, tgt *ColumnNode) (LineageEdge, error) {
	edge := LineageEdge{SourceNodeID: src.ID(), TargetNodeID: tgt.ID()}

	if _, ok := g.nodes[edge.SourceNodeID]; !ok {
		return edge, fmt.Errorf("source %q: %w", edge.SourceNodeID, ErrNodeNotFound)
	}
	if _, ok := g.nodes[edge.TargetNodeID]; !ok {
		return edge, fmt.Errorf("target %q: %w", edge.TargetNodeID, ErrNodeNotFound)
	}

	if _, ok := g.edges[edge]; ok {
		return edge, nil
	}

	g.edges[edge] = struct{}{}
	g.edgeList = append(g.edgeList, edge)
	g.children[edge.SourceNodeID] = append(g.children[edge.SourceNodeID], edge.TargetNodeID)
	g.parents[edge.TargetNodeID] = append(g.parents[edge.TargetNodeID], edge.SourceNodeID)
	return edge, nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*ColumnNode, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*ColumnNode {
	out := make([]*ColumnNode, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []LineageEdge {
	out := make([]LineageEdge, len(g.edgeList))
	copy(out, g.edgeList)
	return out
}

// Sources returns the direct sources of a node.
func (g *Graph) Sources(id string) []string {
	return append([]string(nil), g.parents[id]...)
}

// Targets returns the nodes fed directly by a node.
func (g *Graph) Targets(id string) []string {
	return append([]string(nil), g.children[id]...)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edgeList)
}

// Upstream returns every node that transitively feeds id, sorted.
func (g *Graph) Upstream(id string) []string {
	return g.reach(id, g.parents)
}

// Downstream returns every node transitively fed by id, sorted.
func (g *Graph) Downstream(id string) []string {
	return g.reach(id, g.children)
}

func (g *Graph) reach(id string, adjacency map[string][]string) []string {
	seen := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, next := range adjacency[nodeID] {
			if !seen[next] {
				seen[next] = true
				mark(next)
			}
		}
	}
	mark(id)
	delete(seen, id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Roots returns the IDs of nodes fed by no other node, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if !slices.ContainsFunc(g.parents[id], func(p string) bool { return p != id }) {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}
