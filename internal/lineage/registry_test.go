package lineage

import (
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(r *Registry) *Context {
	return newContext(&runState{
		registry:    r,
		known:       newKnownColumns(),
		diagnostics: NewDiagnostics(),
		logger:      slog.New(slog.DiscardHandler),
		maxDepth:    DefaultMaxDepth,
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	called := 0
	r.Register(&parser.ReturnStatement{}, ProcessorFunc(func(*Context, parser.Node) ([]*OutputColumn, error) {
		called++
		return []*OutputColumn{{Name: "x"}}, nil
	}))
	assert.Equal(t, 1, r.Len())

	_, ok := r.GetProcessor(&parser.ReturnStatement{})
	assert.True(t, ok)
	_, ok = r.GetProcessor(&parser.DeclareStatement{})
	assert.False(t, ok)

	outs, err := r.Dispatch(testContext(r), &parser.ReturnStatement{})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "x", outs[0].Name)
	assert.Equal(t, 1, called)
}

func TestRegistry_DispatchUnsupported(t *testing.T) {
	r := NewRegistry()
	ctx := testContext(r)

	for range 3 {
		outs, err := r.Dispatch(ctx, &parser.DeclareStatement{})
		require.NoError(t, err)
		assert.Nil(t, outs)
	}
	_, err := r.Dispatch(ctx, &parser.OtherStatement{Keyword: "TRUNCATE"})
	require.NoError(t, err)

	assert.Equal(t, []string{"DeclareStatement", "OtherStatement:TRUNCATE"}, ctx.Diagnostics().Unsupported())
}

func TestRegistry_DispatchNil(t *testing.T) {
	r := NewRegistry()
	ctx := testContext(r)

	var stmt *parser.SelectStatement
	outs, err := r.Dispatch(ctx, stmt)
	require.NoError(t, err)
	assert.Nil(t, outs)

	outs, err = r.Dispatch(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, outs)
	assert.True(t, ctx.Diagnostics().Empty())
}

func TestRegistry_DepthLimit(t *testing.T) {
	r := NewRegistry()
	ctx := testContext(r)
	ctx.run.maxDepth = 2

	depth := 0
	var recurse ProcessorFunc = func(c *Context, n parser.Node) ([]*OutputColumn, error) {
		depth++
		return r.Dispatch(c, n)
	}
	r.Register(&parser.ReturnStatement{}, recurse)

	_, err := r.Dispatch(ctx, &parser.ReturnStatement{})
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
	assert.Equal(t, []string{"depth limit 2 exceeded"}, ctx.Diagnostics().Notes())
	assert.Equal(t, 0, ctx.run.depth)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(parser.Parse)

	for _, n := range []parser.Node{
		&parser.SelectStatement{},
		&parser.QuerySpecification{},
		&parser.NamedTableReference{},
		&parser.InsertStatement{},
		&parser.ExecuteStatement{},
	} {
		_, ok := r.GetProcessor(n)
		assert.True(t, ok, "%T", n)
	}
	for _, n := range []parser.Node{
		&parser.OtherStatement{},
		&parser.InlineDerivedTable{},
		&parser.TableFunctionReference{},
	} {
		_, ok := r.GetProcessor(n)
		assert.False(t, ok, "%T", n)
	}
}

func TestDiagnostics(t *testing.T) {
	d := NewDiagnostics()
	assert.True(t, d.Empty())

	assert.True(t, d.AddUnsupported("B"))
	assert.False(t, d.AddUnsupported("B"))
	assert.True(t, d.AddUnsupported("A"))
	assert.True(t, d.AddNote("second"))
	assert.True(t, d.AddNote("first"))
	assert.False(t, d.AddNote("second"))

	assert.Equal(t, []string{"A", "B"}, d.Unsupported())
	assert.Equal(t, []string{"second", "first"}, d.Notes())
	assert.False(t, d.Empty())
}
