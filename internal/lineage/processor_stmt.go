package lineage

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// withScope processes an optional WITH clause in a new CTE scope and
// returns the function that closes it.
func withScope(ctx *Context, with *parser.WithClause) (func(), error) {
	if with == nil {
		return func() {}, nil
	}
	ctx.PushCteScope()
	if _, err := ctx.dispatch(with); err != nil {
		ctx.PopCteScope()
		return nil, err
	}
	return ctx.PopCteScope, nil
}

// processInsert maps the source columns of an INSERT onto target columns
// by position.
func processInsert(ctx *Context, s *parser.InsertStatement) ([]*OutputColumn, error) {
	if s.Target.IsEmpty() {
		return nil, nil
	}
	done, err := withScope(ctx, s.With)
	if err != nil {
		return nil, err
	}
	defer done()

	var outs []*OutputColumn
	switch src := s.Source.(type) {
	case *parser.SelectStatement:
		outs, err = ctx.collect(src)
	case *parser.ExecuteStatement:
		outs, err = ctx.dispatch(src)
	case *parser.ValuesSource:
		outs, err = valuesColumns(ctx, src)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	target := s.Target.String()
	names := insertColumns(ctx, s, outs)
	for i, o := range outs {
		if i >= len(names) {
			break
		}
		node := ctx.Graph.AddNode(NewColumnNode(target, names[i]))
		if err := ctx.feed(node, o.lineage()); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// insertColumns returns the target column names of an INSERT: the explicit
// column list, the catalog columns of the target, or the source names.
func insertColumns(ctx *Context, s *parser.InsertStatement, outs []*OutputColumn) []string {
	if len(s.Columns) > 0 {
		return s.Columns
	}
	if cols, ok := ctx.run.catalog.Lookup(s.Target); ok {
		return cols
	}
	names := make([]string, len(outs))
	for i, o := range outs {
		names[i] = o.Name
	}
	return names
}

// valuesColumns returns one output column per VALUES position, fed by any
// scalar subqueries in the rows.
func valuesColumns(ctx *Context, v *parser.ValuesSource) ([]*OutputColumn, error) {
	var outs []*OutputColumn
	for _, row := range v.Rows {
		for i, expr := range row {
			if i == len(outs) {
				outs = append(outs, &OutputColumn{Name: columnName(i + 1)})
			}
			sources, err := ctx.expressionSources(expr)
			if err != nil {
				return nil, err
			}
			outs[i].Sources = append(outs[i].Sources, sources...)
		}
	}
	return outs, nil
}

// processUpdate feeds each SET column from its expression. The target is
// resolved through FROM when it names an alias declared there.
func processUpdate(ctx *Context, s *parser.UpdateStatement) ([]*OutputColumn, error) {
	if s.Target.IsEmpty() {
		return nil, nil
	}
	done, err := withScope(ctx, s.With)
	if err != nil {
		return nil, err
	}
	defer done()

	m := ctx.PushSourceMap()
	defer ctx.PopSourceMap()

	for _, ref := range s.From {
		if _, err := ctx.dispatch(ref); err != nil {
			return nil, err
		}
	}
	target := m.Lookup(s.Target.Parts)
	if target == nil {
		target = ctx.tableSource(s.Target, "")
		m.Add(target, false)
	}
	ctx.RebuildColumnAvailability()

	for _, set := range s.Sets {
		if set.Column == nil {
			continue
		}
		sources, err := ctx.expressionSources(set.Value)
		if err != nil {
			return nil, err
		}
		node := target.Column(ctx.Graph, set.Column.Column())
		if node == nil {
			node = ctx.Graph.AddNode(NewColumnNode(target.ObjectName, set.Column.Column()))
		}
		if err := ctx.feed(node, sources); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// executeProcessor resolves EXEC proc and yields the procedure's output
// columns for an enclosing INSERT ... EXEC.
type executeProcessor struct {
	parse ParseFunc
}

func (p *executeProcessor) Process(ctx *Context, node parser.Node) ([]*OutputColumn, error) {
	s, ok := node.(*parser.ExecuteStatement)
	if !ok {
		return nil, fmt.Errorf("execute processor received %T", node)
	}
	if s.Procedure.IsEmpty() {
		if s.Dynamic != nil {
			ctx.Diagnostics().AddNote("dynamic SQL is not analyzed")
		}
		return nil, nil
	}

	outs, found, err := inlineProcedure(ctx, p.parse, s.Procedure)
	if err != nil {
		return nil, err
	}
	if !found {
		ctx.Logger().Debug("procedure definition not found", "procedure", s.Procedure.String())
	}
	return outs, nil
}

// processCreateView analyzes a view defined in the script, unless an
// earlier reference already inlined it.
func processCreateView(ctx *Context, s *parser.CreateViewStatement) ([]*OutputColumn, error) {
	if s.Name.IsEmpty() || s.Query == nil {
		return nil, nil
	}
	if entry := ctx.cached(s.Name); entry != nil && entry.Kind == objectView && !s.Alter {
		return nil, nil
	}

	entry := &objectAnalysis{Name: s.Name.String(), Kind: objectView, InProgress: true}
	ctx.cache(s.Name, entry)
	return nil, analyzeView(ctx, s, entry)
}

// processCreateProcedure analyzes a procedure defined in the script and
// registers its output columns.
func processCreateProcedure(ctx *Context, s *parser.CreateProcedureStatement) ([]*OutputColumn, error) {
	if s.Name.IsEmpty() {
		return nil, nil
	}
	if _, ok := ctx.procedureOutputsFor(s.Name); ok && !s.Alter {
		return nil, nil
	}

	entry := &objectAnalysis{Name: s.Name.String(), Kind: objectProcedure, InProgress: true}
	ctx.cache(s.Name, entry)
	_, err := analyzeProcedure(ctx, s, entry)
	return nil, err
}

func processBlock(ctx *Context, b *parser.BeginEndBlock) ([]*OutputColumn, error) {
	for _, stmt := range b.Statements {
		if _, err := ctx.dispatch(stmt); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// processIf processes both branches; the condition yields no columns.
func processIf(ctx *Context, s *parser.IfStatement) ([]*OutputColumn, error) {
	if _, err := ctx.dispatch(s.Then); err != nil {
		return nil, err
	}
	if _, err := ctx.dispatch(s.Else); err != nil {
		return nil, err
	}
	return nil, nil
}

func processWhile(ctx *Context, s *parser.WhileStatement) ([]*OutputColumn, error) {
	_, err := ctx.dispatch(s.Body)
	return nil, err
}

// noop handles statements without column lineage.
func noop[T parser.Node](*Context, T) ([]*OutputColumn, error) {
	return nil, nil
}
