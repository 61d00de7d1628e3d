package lineage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// DefaultMaxDepth bounds the nesting of processed fragments.
const DefaultMaxDepth = 256

// ErrEmptyScript is returned when there is nothing to analyze.
var ErrEmptyScript = errors.New("empty script")

// Analyzer computes column lineage for T-SQL scripts. It holds only
// immutable collaborators and can be used from several goroutines.
type Analyzer struct {
	registry *Registry
	provider DefinitionProvider
	catalog  *Catalog
	maxDepth int
	logger   *slog.Logger
	parse    ParseFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDefinitionProvider sets the source of view and procedure definitions.
func WithDefinitionProvider(p DefinitionProvider) Option {
	return func(a *Analyzer) { a.provider = p }
}

// WithCatalog sets the base-table column catalog.
func WithCatalog(c *Catalog) Option {
	return func(a *Analyzer) { a.catalog = c }
}

// WithMaxDepth sets the fragment nesting limit. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(a *Analyzer) {
		if depth > 0 {
			a.maxDepth = depth
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithParser replaces the parser used for scripts and object definitions.
func WithParser(parse ParseFunc) Option {
	return func(a *Analyzer) {
		if parse != nil {
			a.parse = parse
		}
	}
}

// NewAnalyzer creates an analyzer with the default processor set.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
		parse:    parser.Parse,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.registry = DefaultRegistry(a.parse)
	return a
}

// DefaultRegistry returns a registry with a processor for every supported
// tree variant. Variants left out, such as OtherStatement, VALUES derived
// tables and table-valued functions, are reported as unsupported.
func DefaultRegistry(parse ParseFunc) *Registry {
	r := NewRegistry()

	// Table references
	r.Register(&parser.NamedTableReference{}, &namedTableProcessor{parse: parse})
	r.Register(&parser.VariableTableReference{}, handle(processVariableTable))
	r.Register(&parser.JoinTableReference{}, handle(processJoin))
	r.Register(&parser.QueryDerivedTable{}, handle(processDerivedTable))

	// Queries
	r.Register(&parser.SelectStatement{}, handle(processSelectStatement))
	r.Register(&parser.WithClause{}, handle(processWithClause))
	r.Register(&parser.QuerySpecification{}, handle(processQuerySpecification))
	r.Register(&parser.BinaryQueryExpression{}, handle(processBinaryQuery))
	r.Register(&parser.QueryParenthesisExpression{}, handle(processQueryParenthesis))

	// Select elements
	r.Register(&parser.SelectScalarExpression{}, handle(processSelectScalar))
	r.Register(&parser.SelectStarExpression{}, handle(processSelectStar))
	r.Register(&parser.SelectSetVariable{}, handle(processSelectSetVariable))

	// Statements
	r.Register(&parser.InsertStatement{}, handle(processInsert))
	r.Register(&parser.UpdateStatement{}, handle(processUpdate))
	r.Register(&parser.DeleteStatement{}, handle(noop[*parser.DeleteStatement]))
	r.Register(&parser.ExecuteStatement{}, &executeProcessor{parse: parse})
	r.Register(&parser.CreateViewStatement{}, handle(processCreateView))
	r.Register(&parser.CreateProcedureStatement{}, handle(processCreateProcedure))
	r.Register(&parser.BeginEndBlock{}, handle(processBlock))
	r.Register(&parser.IfStatement{}, handle(processIf))
	r.Register(&parser.WhileStatement{}, handle(processWhile))
	r.Register(&parser.DeclareStatement{}, handle(noop[*parser.DeclareStatement]))
	r.Register(&parser.SetVariableStatement{}, handle(noop[*parser.SetVariableStatement]))
	r.Register(&parser.SetOptionStatement{}, handle(noop[*parser.SetOptionStatement]))
	r.Register(&parser.ReturnStatement{}, handle(noop[*parser.ReturnStatement]))

	return r
}

// Analyze parses script and computes its lineage. Parse errors are returned
// in the result, not as an error.
func (a *Analyzer) Analyze(script string) (*Result, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	tree, errs := a.parse(script)
	return a.AnalyzeScript(tree, errs)
}

// AnalyzeScript computes the lineage of an already parsed script. Each call
// uses a fresh context. The returned error reports an internal failure;
// the result then holds what was computed before it.
func (a *Analyzer) AnalyzeScript(script *parser.Script, parseErrors []*parser.ParseError) (*Result, error) {
	if script == nil {
		return nil, ErrEmptyScript
	}

	run := &runState{
		registry:    a.registry,
		provider:    a.provider,
		catalog:     a.catalog,
		known:       newKnownColumns(),
		diagnostics: NewDiagnostics(),
		logger:      a.logger,
		maxDepth:    a.maxDepth,
	}
	prescan(run.known, script)
	ctx := newContext(run)

	a.logger.Debug("analyzing script", "statements", len(script.Statements), "parse_errors", len(parseErrors))

	var failure error
	for i, stmt := range script.Statements {
		if _, err := ctx.dispatch(stmt); err != nil {
			failure = fmt.Errorf("failed to analyze statement %d: %w", i+1, err)
			break
		}
	}

	result := newResult(ctx.Graph, parseErrors, run.diagnostics)
	a.logger.Debug("analysis complete",
		"nodes", ctx.Graph.NodeCount(),
		"edges", ctx.Graph.EdgeCount(),
		"unsupported", len(result.Diagnostics.Unsupported()))
	return result, failure
}
