package lineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// processSelectStatement resolves a SELECT and decides where its columns
// land: returned to the caller inside a subquery, recorded into the CTE
// being defined, or materialized as terminal nodes of an INTO target, of the
// enclosing procedure, or of the script's result set.
func processSelectStatement(ctx *Context, s *parser.SelectStatement) ([]*OutputColumn, error) {
	if s.With != nil {
		ctx.PushCteScope()
		defer ctx.PopCteScope()
		if _, err := ctx.dispatch(s.With); err != nil {
			return nil, err
		}
	}

	outs, err := ctx.dispatch(s.Query)
	if err != nil {
		return nil, err
	}
	for i, o := range outs {
		if o.Name == "" {
			o.Name = columnName(i + 1)
		}
	}

	switch {
	case ctx.IsSubquery:
		return outs, nil

	case ctx.IsProcessingCteDefinition && ctx.CteToPopulate != nil:
		cte := ctx.CteToPopulate
		nodes, err := ctx.materialize(cte.Name, outs, cte.aliases)
		if err != nil {
			return nil, err
		}
		cte.Columns = nodes
		return asOutputs(nodes), nil

	case ctx.IntoClauseTarget != nil:
		target := ctx.IntoClauseTarget
		ctx.IntoClauseTarget = nil
		nodes, err := ctx.materialize(target.String(), outs, nil)
		if err != nil {
			return nil, err
		}
		return asOutputs(nodes), nil

	case ctx.procedure != nil:
		nodes, err := ctx.procedure.merge(ctx, outs)
		if err != nil {
			return nil, err
		}
		return asOutputs(nodes), nil

	default:
		nodes, err := ctx.materialize("", outs, nil)
		if err != nil {
			return nil, err
		}
		return asOutputs(nodes), nil
	}
}

// processQuerySpecification resolves FROM into a fresh source map, then
// each select element against it.
func processQuerySpecification(ctx *Context, q *parser.QuerySpecification) ([]*OutputColumn, error) {
	ctx.PushSourceMap()
	defer ctx.PopSourceMap()

	for _, ref := range q.From {
		if _, err := ctx.dispatch(ref); err != nil {
			return nil, err
		}
	}
	ctx.RebuildColumnAvailability()

	var outs []*OutputColumn
	for _, elem := range q.Elements {
		cols, err := ctx.dispatch(elem)
		if err != nil {
			return nil, err
		}
		outs = append(outs, cols...)
	}

	if q.Into != nil {
		ctx.IntoClauseTarget = q.Into
	}
	return outs, nil
}

// processBinaryQuery merges the sides of UNION, INTERSECT and EXCEPT by
// position. Names come from the left side.
func processBinaryQuery(ctx *Context, b *parser.BinaryQueryExpression) ([]*OutputColumn, error) {
	saved := ctx.saveFlags()
	ctx.IsSubquery = true

	left, err := ctx.dispatch(b.Left)
	if err != nil {
		ctx.restoreFlags(saved)
		return nil, err
	}
	// SELECT ... INTO is only valid in the first query of a set operation.
	into := ctx.IntoClauseTarget
	right, err := ctx.dispatch(b.Right)
	ctx.restoreFlags(saved)
	if err != nil {
		return nil, err
	}
	if into != nil {
		ctx.IntoClauseTarget = into
	}

	n := max(len(left), len(right))
	merged := make([]*OutputColumn, n)
	for i := range n {
		out := &OutputColumn{}
		seen := make(map[string]bool)
		for _, side := range [][]*OutputColumn{left, right} {
			if i >= len(side) {
				continue
			}
			if out.Name == "" {
				out.Name = side[i].Name
			}
			for _, src := range side[i].lineage() {
				if !seen[src.ID()] {
					seen[src.ID()] = true
					out.Sources = append(out.Sources, src)
				}
			}
		}
		merged[i] = out
	}
	return merged, nil
}

func processQueryParenthesis(ctx *Context, q *parser.QueryParenthesisExpression) ([]*OutputColumn, error) {
	return ctx.dispatch(q.Query)
}
