package lineage

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// handle adapts a typed processor function to Processor.
func handle[T parser.Node](fn func(*Context, T) ([]*OutputColumn, error)) Processor {
	return ProcessorFunc(func(ctx *Context, node parser.Node) ([]*OutputColumn, error) {
		n, ok := node.(T)
		if !ok {
			return nil, fmt.Errorf("processor for %T received %T", *new(T), node)
		}
		return fn(ctx, n)
	})
}

// namedTableProcessor resolves a table name to a CTE, a view or a base table.
type namedTableProcessor struct {
	parse ParseFunc
}

func (p *namedTableProcessor) Process(ctx *Context, node parser.Node) ([]*OutputColumn, error) {
	t, ok := node.(*parser.NamedTableReference)
	if !ok {
		return nil, fmt.Errorf("named table processor received %T", node)
	}
	m := ctx.CurrentSourceMap()
	if m == nil || t.Name == nil {
		return nil, nil
	}

	src, err := p.resolve(ctx, t)
	if err != nil {
		return nil, err
	}
	m.Add(src, t.Alias != "")
	return nil, nil
}

func (p *namedTableProcessor) resolve(ctx *Context, t *parser.NamedTableReference) (*SourceInfo, error) {
	exposed := t.ExposedName()

	if len(t.Name.Parts) == 1 {
		if cte := ctx.LookupCte(t.Name.Name()); cte != nil {
			return newOutputSource(SourceCTE, exposed, cte.Columns), nil
		}
	}

	cols, isView, err := inlineView(ctx, p.parse, t.Name)
	if err != nil {
		return nil, err
	}
	if isView {
		return newOutputSource(SourceView, exposed, cols), nil
	}

	return ctx.tableSource(t.Name, t.Alias), nil
}

func processVariableTable(ctx *Context, t *parser.VariableTableReference) ([]*OutputColumn, error) {
	m := ctx.CurrentSourceMap()
	if m == nil {
		return nil, nil
	}
	m.Add(ctx.tableSource(&parser.ObjectName{Parts: []string{t.Variable}}, t.Alias), t.Alias != "")
	return nil, nil
}

// processJoin adds both sides of a join to the current source map. The join
// condition does not produce output columns and is not traversed.
func processJoin(ctx *Context, j *parser.JoinTableReference) ([]*OutputColumn, error) {
	if _, err := ctx.dispatch(j.Left); err != nil {
		return nil, err
	}
	if _, err := ctx.dispatch(j.Right); err != nil {
		return nil, err
	}
	return nil, nil
}

// processDerivedTable exposes the output of a FROM subquery as alias.col.
func processDerivedTable(ctx *Context, d *parser.QueryDerivedTable) ([]*OutputColumn, error) {
	m := ctx.CurrentSourceMap()
	if m == nil {
		return nil, nil
	}

	outs, err := ctx.collect(d.Query)
	if err != nil {
		return nil, err
	}

	alias := d.Alias
	if alias == "" {
		alias = "derived"
	}
	nodes, err := ctx.materialize(alias, outs, d.Columns)
	if err != nil {
		return nil, err
	}
	m.Add(newOutputSource(SourceDerived, alias, nodes), true)
	return nil, nil
}
