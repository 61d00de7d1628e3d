package lineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// processSelectScalar yields one output column fed by every column the
// expression references. Unnamed expressions are named by position later.
func processSelectScalar(ctx *Context, e *parser.SelectScalarExpression) ([]*OutputColumn, error) {
	sources, err := ctx.expressionSources(e.Expr)
	if err != nil {
		return nil, err
	}
	name := e.Alias
	if name == "" {
		name = expressionName(e.Expr)
	}
	return []*OutputColumn{{Name: name, Sources: sources}}, nil
}

// processSelectStar expands * or alias.* into one pass-through column per
// known source column. A base table without known columns yields a single
// table.* column.
func processSelectStar(ctx *Context, e *parser.SelectStarExpression) ([]*OutputColumn, error) {
	m := ctx.CurrentSourceMap()
	if m == nil {
		return nil, nil
	}

	sources := m.Sources()
	if len(e.Qualifier) > 0 {
		src := m.Lookup(e.Qualifier)
		if src == nil {
			return nil, nil
		}
		sources = []*SourceInfo{src}
	}

	var outs []*OutputColumn
	for _, src := range sources {
		cols := src.Columns(ctx.Graph)
		if len(cols) == 0 && src.Kind == SourceTable {
			star := ctx.Graph.AddNode(NewColumnNode(src.ObjectName, "*"))
			outs = append(outs, &OutputColumn{Name: "*", Sources: []*ColumnNode{star}})
			continue
		}
		for _, col := range cols {
			outs = append(outs, &OutputColumn{Name: col.Name, Sources: []*ColumnNode{col}})
		}
	}
	return outs, nil
}

// processSelectSetVariable handles SELECT @v = expr. Variables are not
// tracked, so the element yields no output column.
func processSelectSetVariable(*Context, *parser.SelectSetVariable) ([]*OutputColumn, error) {
	return nil, nil
}
