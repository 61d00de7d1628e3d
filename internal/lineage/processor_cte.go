package lineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// processWithClause resolves the members of a WITH clause in textual order
// into the innermost CTE scope, which the owning statement opened and will
// close. Each member is registered before its body is processed, so a
// recursive reference resolves to the member with no columns yet.
func processWithClause(ctx *Context, w *parser.WithClause) ([]*OutputColumn, error) {
	for _, cte := range w.CTEs {
		info := &CteInfo{Name: cte.Name, aliases: cte.Columns}
		ctx.DefineCte(info)

		saved := ctx.saveFlags()
		ctx.IsSubquery = false
		ctx.IsProcessingCteDefinition = true
		ctx.CteToPopulate = info
		ctx.IntoClauseTarget = nil

		_, err := ctx.dispatch(cte.Query)
		ctx.restoreFlags(saved)
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}
