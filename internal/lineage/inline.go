package lineage

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// DefinitionProvider looks up the SQL text of views and procedures.
type DefinitionProvider interface {
	TryGetDefinition(name string) (string, bool)
}

// procedureResult collects the result sets of a procedure body. Result sets
// merge by position onto one node per column.
type procedureResult struct {
	name  string
	nodes []*ColumnNode
}

func (p *procedureResult) merge(ctx *Context, outs []*OutputColumn) ([]*ColumnNode, error) {
	for i, o := range outs {
		if i == len(p.nodes) {
			p.nodes = append(p.nodes, ctx.Graph.AddNode(NewColumnNode(p.name, o.Name)))
		}
		if err := ctx.feed(p.nodes[i], o.lineage()); err != nil {
			return nil, err
		}
	}
	return p.nodes[:len(outs)], nil
}

// definition returns the parsed definition of name from the provider, or
// nil when the provider has none. Failed lookups are cached so the provider
// is asked once per name.
func definition(ctx *Context, parse ParseFunc, name *parser.ObjectName) *parser.Script {
	if ctx.run.provider == nil || parse == nil {
		return nil
	}
	text, ok := ctx.run.provider.TryGetDefinition(name.String())
	if !ok || strings.TrimSpace(text) == "" {
		ctx.cache(name, &objectAnalysis{Name: name.String(), Kind: objectTable})
		return nil
	}

	script, errs := parse(text)
	if len(errs) > 0 {
		ctx.Diagnostics().AddNote(fmt.Sprintf("definition of %s has %d parse error(s)", name, len(errs)))
	}
	if script != nil {
		prescan(ctx.run.known, script)
	}
	return script
}

// findView returns the view defined by script. A bare SELECT is taken as
// the body of a view called name.
func findView(script *parser.Script, name *parser.ObjectName) *parser.CreateViewStatement {
	if script == nil {
		return nil
	}
	for _, stmt := range script.Statements {
		switch s := stmt.(type) {
		case *parser.CreateViewStatement:
			return s
		case *parser.SelectStatement:
			return &parser.CreateViewStatement{Name: name, Query: s}
		}
	}
	return nil
}

func findProcedure(script *parser.Script) *parser.CreateProcedureStatement {
	if script == nil {
		return nil
	}
	for _, stmt := range script.Statements {
		if s, ok := stmt.(*parser.CreateProcedureStatement); ok {
			return s
		}
	}
	return nil
}

// inlineView returns the output columns of view name, analyzing its
// definition the first time it is referenced. ok is false when name is not
// a view. A view that is still being analyzed resolves to no columns.
func inlineView(ctx *Context, parse ParseFunc, name *parser.ObjectName) (cols []*ColumnNode, ok bool, err error) {
	if entry := ctx.cached(name); entry != nil {
		if entry.Kind != objectView {
			return nil, false, nil
		}
		return entry.Columns, true, nil
	}

	view := findView(definition(ctx, parse, name), name)
	if view == nil || view.Query == nil {
		return nil, false, nil
	}

	entry := &objectAnalysis{Name: name.String(), Kind: objectView, InProgress: true}
	ctx.cache(name, entry)
	if view.Name != nil {
		ctx.cache(view.Name, entry)
	}
	if err := analyzeView(ctx, view, entry); err != nil {
		return nil, true, err
	}
	return entry.Columns, true, nil
}

// analyzeView computes the output nodes of a view in a nested context that
// shares the graph and caches of ctx. entry must already be cached.
func analyzeView(ctx *Context, view *parser.CreateViewStatement, entry *objectAnalysis) error {
	name := entry.Name
	if view.Name != nil {
		name = view.Name.String()
	}

	nested := ctx.nested()
	nested.IsSubquery = true
	outs, err := nested.dispatch(view.Query)
	if err != nil {
		return fmt.Errorf("failed to analyze view %s: %w", name, err)
	}

	nodes, err := nested.materialize(name, outs, view.Columns)
	if err != nil {
		return fmt.Errorf("failed to analyze view %s: %w", name, err)
	}
	entry.Columns = nodes
	entry.InProgress = false

	ctx.Logger().Debug("inlined view", "view", name, "columns", len(nodes))
	return nil
}

func (c *Context) procedureOutputsFor(name *parser.ObjectName) ([]*OutputColumn, bool) {
	for _, key := range cacheKeys(name) {
		if outs, ok := c.procedureOutputs[key]; ok {
			return outs, true
		}
	}
	return nil, false
}

func (c *Context) registerProcedure(name *parser.ObjectName, outs []*OutputColumn) {
	keys := cacheKeys(name)
	c.procedureOutputs[keys[0]] = outs
	for _, key := range keys[1:] {
		if _, ok := c.procedureOutputs[key]; !ok {
			c.procedureOutputs[key] = outs
		}
	}
}

// inlineProcedure returns the output columns of procedure name, analyzing
// its definition the first time it is executed. A procedure that is still
// being analyzed resolves to no columns.
func inlineProcedure(ctx *Context, parse ParseFunc, name *parser.ObjectName) ([]*OutputColumn, bool, error) {
	if outs, ok := ctx.procedureOutputsFor(name); ok {
		return outs, true, nil
	}
	if entry := ctx.cached(name); entry != nil {
		return nil, entry.Kind == objectProcedure, nil
	}

	proc := findProcedure(definition(ctx, parse, name))
	if proc == nil {
		return nil, false, nil
	}

	entry := &objectAnalysis{Name: name.String(), Kind: objectProcedure, InProgress: true}
	ctx.cache(name, entry)
	if proc.Name != nil {
		ctx.cache(proc.Name, entry)
	}
	outs, err := analyzeProcedure(ctx, proc, entry)
	if err != nil {
		return nil, true, err
	}
	ctx.registerProcedure(name, outs)
	return outs, true, nil
}

// analyzeProcedure runs a procedure body in a nested context. Terminal
// SELECTs of the body become the procedure's output columns.
func analyzeProcedure(ctx *Context, proc *parser.CreateProcedureStatement, entry *objectAnalysis) ([]*OutputColumn, error) {
	name := entry.Name
	if proc.Name != nil {
		name = proc.Name.String()
	}

	nested := ctx.nested()
	nested.procedure = &procedureResult{name: name}
	for _, stmt := range proc.Body {
		if _, err := nested.dispatch(stmt); err != nil {
			return nil, fmt.Errorf("failed to analyze procedure %s: %w", name, err)
		}
	}

	entry.Columns = nested.procedure.nodes
	entry.InProgress = false
	outs := asOutputs(entry.Columns)
	if proc.Name != nil {
		ctx.registerProcedure(proc.Name, outs)
	}

	ctx.Logger().Debug("inlined procedure", "procedure", name, "columns", len(outs))
	return outs, nil
}
