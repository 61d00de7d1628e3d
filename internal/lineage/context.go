package lineage

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// SourceKind identifies what a FROM item resolved to.
type SourceKind int

// Source kinds.
const (
	SourceTable SourceKind = iota
	SourceCTE
	SourceDerived
	SourceView
)

func (k SourceKind) String() string {
	switch k {
	case SourceTable:
		return "table"
	case SourceCTE:
		return "cte"
	case SourceDerived:
		return "derived"
	case SourceView:
		return "view"
	default:
		return "unknown"
	}
}

// SourceInfo is one item available in a query's FROM clause.
//
// Base tables materialize column nodes lazily, the first time a column is
// used as a source. CTEs, derived tables and views expose the nodes already
// computed for their output columns.
type SourceInfo struct {
	// Name is the alias or exposed name of the item.
	Name string
	// ObjectName owns base-table column nodes, e.g. "dbo.Orders".
	ObjectName string
	Kind       SourceKind

	columns []*ColumnNode
	byName  map[string]*ColumnNode

	known  []string
	canon  map[string]string
	closed bool
}

func newTableSource(name, object string, known []string, closed bool) *SourceInfo {
	s := &SourceInfo{
		Name:       name,
		ObjectName: object,
		Kind:       SourceTable,
		canon:      make(map[string]string, len(known)),
		closed:     closed,
	}
	for _, col := range known {
		key := strings.ToLower(col)
		if _, ok := s.canon[key]; ok {
			continue
		}
		s.canon[key] = col
		s.known = append(s.known, col)
	}
	return s
}

func newOutputSource(kind SourceKind, name string, columns []*ColumnNode) *SourceInfo {
	s := &SourceInfo{
		Name:       name,
		ObjectName: name,
		Kind:       kind,
		columns:    columns,
		byName:     make(map[string]*ColumnNode, len(columns)),
	}
	for _, col := range columns {
		key := strings.ToLower(col.Name)
		if _, ok := s.byName[key]; !ok {
			s.byName[key] = col
		}
	}
	return s
}

// Provides reports whether the source is known to expose column.
func (s *SourceInfo) Provides(column string) bool {
	key := strings.ToLower(column)
	if s.Kind == SourceTable {
		_, ok := s.canon[key]
		return ok
	}
	_, ok := s.byName[key]
	return ok
}

// Column returns the node for column, adding base-table nodes to g on first
// use. It returns nil when the source cannot provide the column.
func (s *SourceInfo) Column(g *Graph, column string) *ColumnNode {
	key := strings.ToLower(column)
	if s.Kind != SourceTable {
		return s.byName[key]
	}
	if canonical, ok := s.canon[key]; ok {
		column = canonical
	} else if s.closed {
		return nil
	}
	return g.AddNode(NewColumnNode(s.ObjectName, column))
}

// Columns returns the ordered columns the source exposes. For base tables
// without any known column it returns nil.
func (s *SourceInfo) Columns(g *Graph) []*ColumnNode {
	if s.Kind != SourceTable {
		return s.columns
	}
	out := make([]*ColumnNode, 0, len(s.known))
	for _, col := range s.known {
		out = append(out, g.AddNode(NewColumnNode(s.ObjectName, col)))
	}
	return out
}

// columnNames returns the names of the columns the source is known to
// expose without materializing any node.
func (s *SourceInfo) columnNames() []string {
	if s.Kind == SourceTable {
		return s.known
	}
	names := make([]string, len(s.columns))
	for i, col := range s.columns {
		names[i] = col.Name
	}
	return names
}

// open reports whether unknown columns may still be attributed to the source.
func (s *SourceInfo) open() bool {
	return s.Kind == SourceTable && !s.closed
}

// SourceMap indexes the FROM items of one query level.
type SourceMap struct {
	sources      []*SourceInfo
	byName       map[string]*SourceInfo
	availability map[string][]*SourceInfo
}

func newSourceMap() *SourceMap {
	return &SourceMap{
		byName:       make(map[string]*SourceInfo),
		availability: make(map[string][]*SourceInfo),
	}
}

// Add registers s under its exposed name; unaliased base tables are also
// reachable through their full object name.
func (m *SourceMap) Add(s *SourceInfo, aliased bool) {
	m.sources = append(m.sources, s)
	m.byName[strings.ToLower(s.Name)] = s
	if s.Kind == SourceTable && !aliased {
		m.byName[strings.ToLower(s.ObjectName)] = s
	}
	m.index(s)
}

func (m *SourceMap) index(s *SourceInfo) {
	for _, name := range s.columnNames() {
		key := strings.ToLower(name)
		m.availability[key] = append(m.availability[key], s)
	}
}

// Lookup finds the source a column qualifier refers to.
func (m *SourceMap) Lookup(qualifier []string) *SourceInfo {
	if len(qualifier) == 0 {
		return nil
	}
	if s, ok := m.byName[strings.ToLower(strings.Join(qualifier, "."))]; ok {
		return s
	}
	return m.byName[strings.ToLower(qualifier[len(qualifier)-1])]
}

// Sources returns the FROM items in declaration order.
func (m *SourceMap) Sources() []*SourceInfo {
	return m.sources
}

// Candidates returns the sources known to provide column.
func (m *SourceMap) Candidates(column string) []*SourceInfo {
	return m.availability[strings.ToLower(column)]
}

// rebuildAvailability recomputes the column -> sources index.
func (m *SourceMap) rebuildAvailability() {
	m.availability = make(map[string][]*SourceInfo)
	for _, s := range m.sources {
		m.index(s)
	}
}

// levelCandidates returns the sources of this level that may provide column:
// those known to provide it, then open base tables not already listed.
func (m *SourceMap) levelCandidates(column string) []*SourceInfo {
	known := m.Candidates(column)
	out := make([]*SourceInfo, 0, len(known)+len(m.sources))
	out = append(out, known...)
	for _, s := range m.openSources() {
		if !slices.Contains(known, s) {
			out = append(out, s)
		}
	}
	return out
}

// openSources returns base tables whose column set is not authoritative.
func (m *SourceMap) openSources() []*SourceInfo {
	var out []*SourceInfo
	for _, s := range m.sources {
		if s.open() {
			out = append(out, s)
		}
	}
	return out
}

// CteInfo is one WITH clause member.
type CteInfo struct {
	Name    string
	Columns []*ColumnNode

	aliases []string // explicit column list, if any
}

// OutputColumn is a result column of a query, statement or procedure.
// Node is set once the column has been materialized in the graph;
// otherwise Sources carries the nodes that feed it.
type OutputColumn struct {
	Name    string
	Node    *ColumnNode
	Sources []*ColumnNode
}

// lineage returns the nodes that feed a consumer of the column.
func (o *OutputColumn) lineage() []*ColumnNode {
	if o.Node != nil {
		return []*ColumnNode{o.Node}
	}
	return o.Sources
}

type objectKind int

const (
	objectTable objectKind = iota // no definition found
	objectView
	objectProcedure
)

// objectAnalysis is the cached result of inlining a view or procedure.
type objectAnalysis struct {
	Name       string
	Kind       objectKind
	InProgress bool
	Columns    []*ColumnNode
}

// runState is shared by a Context and every nested Context created to
// inline a view or procedure during the same run.
type runState struct {
	registry    *Registry
	provider    DefinitionProvider
	catalog     *Catalog
	known       *knownColumns
	diagnostics *Diagnostics
	logger      *slog.Logger
	maxDepth    int
	depth       int
}

// Context is the mutable state of one analysis run. It is passed through
// every processor and never shared between runs.
type Context struct {
	// Graph receives every node and edge of the run.
	Graph *Graph

	// IsSubquery suppresses terminal output nodes while a derived table or
	// one side of a set operation is processed.
	IsSubquery bool
	// IsProcessingCteDefinition is set while a WITH member body is resolved;
	// CteToPopulate receives its output columns.
	IsProcessingCteDefinition bool
	CteToPopulate             *CteInfo
	// IntoClauseTarget redirects terminal nodes of SELECT ... INTO.
	IntoClauseTarget *parser.ObjectName

	cteScopes  []map[string]*CteInfo
	sourceMaps []*SourceMap

	analysisCache    map[string]*objectAnalysis
	procedureOutputs map[string][]*OutputColumn

	// procedure collects terminal result sets while a procedure body runs.
	procedure *procedureResult

	run *runState
}

func newContext(run *runState) *Context {
	return &Context{
		Graph:            NewGraph(),
		analysisCache:    make(map[string]*objectAnalysis),
		procedureOutputs: make(map[string][]*OutputColumn),
		run:              run,
	}
}

// nested returns a context for inlining an object definition. It shares the
// graph, caches and run state, and starts with empty scopes and flags.
func (c *Context) nested() *Context {
	return &Context{
		Graph:            c.Graph,
		analysisCache:    c.analysisCache,
		procedureOutputs: c.procedureOutputs,
		run:              c.run,
	}
}

// Logger returns the run logger.
func (c *Context) Logger() *slog.Logger {
	return c.run.logger
}

// Diagnostics returns the run diagnostics collector.
func (c *Context) Diagnostics() *Diagnostics {
	return c.run.diagnostics
}

// PushCteScope opens a new innermost CTE scope.
func (c *Context) PushCteScope() {
	c.cteScopes = append(c.cteScopes, make(map[string]*CteInfo))
}

// PopCteScope closes the innermost CTE scope.
func (c *Context) PopCteScope() {
	if len(c.cteScopes) > 0 {
		c.cteScopes = c.cteScopes[:len(c.cteScopes)-1]
	}
}

// DefineCte registers info in the innermost scope.
func (c *Context) DefineCte(info *CteInfo) {
	if len(c.cteScopes) == 0 {
		c.PushCteScope()
	}
	c.cteScopes[len(c.cteScopes)-1][strings.ToLower(info.Name)] = info
}

// LookupCte searches the CTE scopes from innermost to outermost.
func (c *Context) LookupCte(name string) *CteInfo {
	key := strings.ToLower(name)
	for i := len(c.cteScopes) - 1; i >= 0; i-- {
		if info, ok := c.cteScopes[i][key]; ok {
			return info
		}
	}
	return nil
}

// PushSourceMap makes a fresh source map current.
func (c *Context) PushSourceMap() *SourceMap {
	m := newSourceMap()
	c.sourceMaps = append(c.sourceMaps, m)
	return m
}

// PopSourceMap restores the enclosing query's source map.
func (c *Context) PopSourceMap() {
	if len(c.sourceMaps) > 0 {
		c.sourceMaps = c.sourceMaps[:len(c.sourceMaps)-1]
	}
}

// CurrentSourceMap returns the source map of the query being processed,
// or nil outside any query.
func (c *Context) CurrentSourceMap() *SourceMap {
	if len(c.sourceMaps) == 0 {
		return nil
	}
	return c.sourceMaps[len(c.sourceMaps)-1]
}

// RebuildColumnAvailability recomputes the availability map of the current
// source map.
func (c *Context) RebuildColumnAvailability() {
	if m := c.CurrentSourceMap(); m != nil {
		m.rebuildAvailability()
	}
}

// flagState is a saved copy of the context flags.
type flagState struct {
	isSubquery    bool
	isCteDef      bool
	cteToPopulate *CteInfo
	into          *parser.ObjectName
}

func (c *Context) saveFlags() flagState {
	return flagState{
		isSubquery:    c.IsSubquery,
		isCteDef:      c.IsProcessingCteDefinition,
		cteToPopulate: c.CteToPopulate,
		into:          c.IntoClauseTarget,
	}
}

func (c *Context) restoreFlags(s flagState) {
	c.IsSubquery = s.isSubquery
	c.IsProcessingCteDefinition = s.isCteDef
	c.CteToPopulate = s.cteToPopulate
	c.IntoClauseTarget = s.into
}

// tableSource builds the SourceInfo of a base table referenced as name.
func (c *Context) tableSource(name *parser.ObjectName, alias string) *SourceInfo {
	exposed := alias
	if exposed == "" {
		exposed = name.Name()
	}
	object := name.String()
	if cols, ok := c.run.catalog.Lookup(name); ok {
		return newTableSource(exposed, object, cols, true)
	}
	return newTableSource(exposed, object, c.run.known.columns(object), false)
}

// cacheKeys returns the keys an object is cached under: the full name and,
// for qualified names, the last part.
func cacheKeys(name *parser.ObjectName) []string {
	full := strings.ToLower(name.String())
	last := strings.ToLower(name.Name())
	if full == last {
		return []string{full}
	}
	return []string{full, last}
}

func (c *Context) cached(name *parser.ObjectName) *objectAnalysis {
	for _, key := range cacheKeys(name) {
		if entry, ok := c.analysisCache[key]; ok {
			return entry
		}
	}
	return nil
}

func (c *Context) cache(name *parser.ObjectName, entry *objectAnalysis) {
	keys := cacheKeys(name)
	c.analysisCache[keys[0]] = entry
	for _, key := range keys[1:] {
		if existing, ok := c.analysisCache[key]; !ok || existing.Kind == objectTable {
			c.analysisCache[key] = entry
		}
	}
}
