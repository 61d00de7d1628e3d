package lineage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnNode_ID(t *testing.T) {
	if got := NewColumnNode("dbo.T", "a").ID(); got != "dbo.T.a" {
		t.Errorf("expected dbo.T.a, got %s", got)
	}
	if got := NewColumnNode("", "a").ID(); got != "a" {
		t.Errorf("expected a, got %s", got)
	}
}

func TestGraph_AddNodeIsIdempotent(t *testing.T) {
	g := NewGraph()

	first := g.AddNode(NewColumnNode("T", "a"))
	second := g.AddNode(NewColumnNode("T", "a"))

	if first != second {
		t.Error("expected the existing node instance to be returned")
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(NewColumnNode("T", "a"))
	b := g.AddNode(NewColumnNode("", "a"))

	edge, err := g.AddEdge(a, b)
	require.NoError(t, err)
	assert.Equal(t, LineageEdge{SourceNodeID: "T.a", TargetNodeID: "a"}, edge)

	_, err = g.AddEdge(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_AddEdge_MissingNode(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(NewColumnNode("T", "a"))
	missing := NewColumnNode("T", "missing")

	_, err := g.AddEdge(a, missing)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}

	_, err = g.AddEdge(missing, a)
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("expected ErrNodeNotFound, got %v", err)
	}
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_AddEdge_SelfEdge(t *testing.T) {
	g := NewGraph()
	a := g.AddNode(NewColumnNode("T", "a"))

	_, err := g.AddEdge(a, a)
	require.NoError(t, err)
	_, err = g.AddEdge(a, a)
	require.NoError(t, err)

	assert.Equal(t, []LineageEdge{{SourceNodeID: "T.a", TargetNodeID: "T.a"}}, g.Edges())
	assert.Equal(t, []string{"T.a"}, g.Sources("T.a"))
	assert.Empty(t, g.Upstream("T.a"))
	assert.Equal(t, []string{"T.a"}, g.Roots())
}

func TestGraph_InsertionOrder(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"z", "a", "m"} {
		g.AddNode(NewColumnNode("", id))
	}

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID())
	}
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}

func TestGraph_UpstreamDownstream(t *testing.T) {
	// T.a -> V.a -> a, T.b -> V.a, S.x (unrelated)
	g := NewGraph()
	ta := g.AddNode(NewColumnNode("T", "a"))
	tb := g.AddNode(NewColumnNode("T", "b"))
	va := g.AddNode(NewColumnNode("V", "a"))
	a := g.AddNode(NewColumnNode("", "a"))
	g.AddNode(NewColumnNode("S", "x"))

	for _, e := range [][2]*ColumnNode{{ta, va}, {tb, va}, {va, a}} {
		_, err := g.AddEdge(e[0], e[1])
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"T.a", "T.b", "V.a"}, g.Upstream("a"))
	assert.Equal(t, []string{"V.a", "a"}, g.Downstream("T.a"))
	assert.Empty(t, g.Upstream("T.a"))
	assert.Empty(t, g.Downstream("S.x"))
	assert.Equal(t, []string{"T.a", "T.b"}, g.Sources("V.a"))
	assert.Equal(t, []string{"a"}, g.Targets("V.a"))
	assert.Equal(t, []string{"S.x", "T.a", "T.b"}, g.Roots())
}
