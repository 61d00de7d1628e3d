package lineage

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// dispatch processes node through the run's registry.
func (c *Context) dispatch(node parser.Node) ([]*OutputColumn, error) {
	return c.run.registry.Dispatch(c, node)
}

// collect processes a nested query without creating terminal nodes and
// returns its output columns.
func (c *Context) collect(stmt *parser.SelectStatement) ([]*OutputColumn, error) {
	saved := c.saveFlags()
	defer c.restoreFlags(saved)

	c.IsSubquery = true
	c.IsProcessingCteDefinition = false
	c.CteToPopulate = nil
	c.IntoClauseTarget = nil
	return c.dispatch(stmt)
}

// resolveColumn returns the nodes a column reference reads from.
//
// A qualified reference resolves against the innermost source map that
// declares its qualifier. An unqualified reference resolves against the
// innermost source map with any candidate: the sources known to provide the
// column plus every open base table of that level. Outer maps are only
// tried for correlated references when a level has no candidate at all.
func (c *Context) resolveColumn(ref *parser.ColumnReference) []*ColumnNode {
	column := ref.Column()
	if column == "" {
		return nil
	}

	if len(ref.Parts) > 1 {
		qualifier := ref.Parts[:len(ref.Parts)-1]
		for i := len(c.sourceMaps) - 1; i >= 0; i-- {
			src := c.sourceMaps[i].Lookup(qualifier)
			if src == nil {
				continue
			}
			if node := src.Column(c.Graph, column); node != nil {
				return []*ColumnNode{node}
			}
			return nil
		}
		return nil
	}

	for i := len(c.sourceMaps) - 1; i >= 0; i-- {
		if candidates := c.sourceMaps[i].levelCandidates(column); len(candidates) > 0 {
			return c.columnsFrom(candidates, column)
		}
	}
	return nil
}

func (c *Context) columnsFrom(sources []*SourceInfo, column string) []*ColumnNode {
	var out []*ColumnNode
	for _, src := range sources {
		if node := src.Column(c.Graph, column); node != nil {
			out = append(out, node)
		}
	}
	return out
}

// expressionSources returns the distinct nodes feeding expr in order of
// first reference. Scalar subqueries contribute their output lineage;
// EXISTS and IN subqueries only filter rows and contribute nothing.
func (c *Context) expressionSources(expr parser.Expr) ([]*ColumnNode, error) {
	var (
		out  []*ColumnNode
		seen = make(map[string]bool)
		err  error
	)
	add := func(nodes []*ColumnNode) {
		for _, n := range nodes {
			if !seen[n.ID()] {
				seen[n.ID()] = true
				out = append(out, n)
			}
		}
	}

	parser.Inspect(expr, func(n parser.Node) bool {
		if err != nil {
			return false
		}
		switch v := n.(type) {
		case *parser.ColumnReference:
			add(c.resolveColumn(v))
		case *parser.ScalarSubquery:
			outs, subErr := c.collect(v.Query)
			if subErr != nil {
				err = subErr
				return false
			}
			for _, o := range outs {
				add(o.lineage())
			}
			return false
		case *parser.SelectStatement:
			return false
		}
		return true
	})
	return out, err
}

// expressionName names an unaliased select item: a bare column keeps its
// name, as does an expression over a single column. It returns "" when no
// name can be derived.
func expressionName(expr parser.Expr) string {
	if ref, ok := expr.(*parser.ColumnReference); ok {
		return ref.Column()
	}
	var name string
	for _, ref := range parser.ColumnReferences(expr, true) {
		switch {
		case name == "":
			name = ref.Column()
		case !strings.EqualFold(name, ref.Column()):
			return ""
		}
	}
	return name
}

// columnName is the name given to the unnamed output column at 1-based
// position pos.
func columnName(pos int) string {
	return fmt.Sprintf("Column%d", pos)
}

// feed draws an edge from every source into target.
func (c *Context) feed(target *ColumnNode, sources []*ColumnNode) error {
	for _, src := range sources {
		if _, err := c.Graph.AddEdge(src, target); err != nil {
			return fmt.Errorf("failed to link %s to %s: %w", src.ID(), target.ID(), err)
		}
	}
	return nil
}

// materialize creates a node source.name for each output column and feeds
// it from the column's lineage. A non-empty name in names renames the
// column at the same position.
func (c *Context) materialize(source string, outs []*OutputColumn, names []string) ([]*ColumnNode, error) {
	nodes := make([]*ColumnNode, 0, len(outs))
	for i, o := range outs {
		name := o.Name
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		node := c.Graph.AddNode(NewColumnNode(source, name))
		if err := c.feed(node, o.lineage()); err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// asOutputs wraps materialized nodes as output columns.
func asOutputs(nodes []*ColumnNode) []*OutputColumn {
	outs := make([]*OutputColumn, len(nodes))
	for i, n := range nodes {
		outs[i] = &OutputColumn{Name: n.Name, Node: n}
	}
	return outs
}
