package lineage

import (
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// Catalog maps base tables to their ordered column lists. A table present
// in the catalog exposes exactly those columns.
type Catalog struct {
	tables map[string][]string
	byLast map[string][]string
}

// NewCatalog builds a catalog from table name -> columns. Names may be
// schema qualified; lookups are case-insensitive and fall back to the
// unqualified table name.
func NewCatalog(tables map[string][]string) *Catalog {
	c := &Catalog{
		tables: make(map[string][]string, len(tables)),
		byLast: make(map[string][]string, len(tables)),
	}
	for name, cols := range tables {
		key := strings.ToLower(stripBrackets(name))
		c.tables[key] = cols
		last := key
		if i := strings.LastIndex(key, "."); i >= 0 {
			last = key[i+1:]
		}
		if _, ok := c.byLast[last]; !ok {
			c.byLast[last] = cols
		}
	}
	return c
}

// Lookup returns the columns of a table.
func (c *Catalog) Lookup(name *parser.ObjectName) ([]string, bool) {
	if c == nil || name == nil {
		return nil, false
	}
	if cols, ok := c.tables[strings.ToLower(name.String())]; ok {
		return cols, true
	}
	cols, ok := c.byLast[strings.ToLower(name.Name())]
	return cols, ok
}

// Len returns the number of tables in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tables)
}

func stripBrackets(name string) string {
	return strings.NewReplacer("[", "", "]", "").Replace(name)
}

// knownColumns records, per base table, the columns a script references.
// Star expansion over a table without a catalog entry uses this set.
type knownColumns struct {
	tables map[string][]string
	seen   map[string]map[string]bool
}

func newKnownColumns() *knownColumns {
	return &knownColumns{
		tables: make(map[string][]string),
		seen:   make(map[string]map[string]bool),
	}
}

func (k *knownColumns) add(table, column string) {
	if column == "" || column == "*" {
		return
	}
	key := strings.ToLower(table)
	col := strings.ToLower(column)
	if k.seen[key] == nil {
		k.seen[key] = make(map[string]bool)
	}
	if k.seen[key][col] {
		return
	}
	k.seen[key][col] = true
	k.tables[key] = append(k.tables[key], column)
}

func (k *knownColumns) columns(table string) []string {
	return k.tables[strings.ToLower(table)]
}

// prescanScope maps the names a query level exposes to table keys.
type prescanScope struct {
	names  map[string]string
	tables []string
}

// prescanner attributes column references to base tables before analysis.
// Qualified references are attributed through aliases; an unqualified
// reference only when its query has a single named table.
type prescanner struct {
	known  *knownColumns
	scopes []*prescanScope
}

// prescan collects the referenced columns of every table in node.
func prescan(known *knownColumns, node parser.Node) {
	s := &prescanner{known: known}
	s.visit(node)
}

func (s *prescanner) visit(node parser.Node) {
	parser.Inspect(node, func(n parser.Node) bool {
		switch v := n.(type) {
		case *parser.QuerySpecification:
			s.query(v)
			return false
		case *parser.UpdateStatement:
			s.update(v)
			return false
		case *parser.DeleteStatement:
			s.withScope(v.From, v.Target, func() {
				s.visit(v.Where)
			})
			return false
		case *parser.InsertStatement:
			if !v.Target.IsEmpty() {
				for _, col := range v.Columns {
					s.known.add(v.Target.String(), col)
				}
			}
		case *parser.ColumnReference:
			s.column(v)
		}
		return true
	})
}

func (s *prescanner) query(q *parser.QuerySpecification) {
	s.withScope(q.From, nil, func() {
		for _, elem := range q.Elements {
			s.visit(elem)
		}
		for _, ref := range q.From {
			s.visit(ref)
		}
		s.visit(q.Where)
		for _, expr := range q.GroupBy {
			s.visit(expr)
		}
		s.visit(q.Having)
	})
}

func (s *prescanner) update(u *parser.UpdateStatement) {
	s.withScope(u.From, u.Target, func() {
		target := ""
		if !u.Target.IsEmpty() {
			target = s.resolve(u.Target.Parts)
			if target == "" {
				target = u.Target.String()
			}
		}
		for _, set := range u.Sets {
			if set.Column != nil && target != "" {
				s.known.add(target, set.Column.Column())
			}
			s.visit(set.Value)
		}
		for _, ref := range u.From {
			s.visit(ref)
		}
		s.visit(u.Where)
	})
}

// withScope runs fn with a scope built from from. When target is set and
// not already declared in from, it is added as an implicit table.
func (s *prescanner) withScope(from []parser.TableReference, target *parser.ObjectName, fn func()) {
	scope := &prescanScope{names: make(map[string]string)}
	for _, ref := range from {
		collectTables(scope, ref)
	}
	if !target.IsEmpty() {
		if _, ok := scope.names[strings.ToLower(target.String())]; !ok {
			if _, ok := scope.names[strings.ToLower(target.Name())]; !ok {
				declareTable(scope, target.String(), "", target)
			}
		}
	}
	s.scopes = append(s.scopes, scope)
	fn()
	s.scopes = s.scopes[:len(s.scopes)-1]
}

func collectTables(scope *prescanScope, ref parser.TableReference) {
	switch t := ref.(type) {
	case *parser.NamedTableReference:
		declareTable(scope, t.Name.String(), t.Alias, t.Name)
	case *parser.VariableTableReference:
		declareTable(scope, t.Variable, t.Alias, nil)
	case *parser.JoinTableReference:
		collectTables(scope, t.Left)
		collectTables(scope, t.Right)
	}
}

func declareTable(scope *prescanScope, key, alias string, name *parser.ObjectName) {
	scope.tables = append(scope.tables, key)
	if alias != "" {
		scope.names[strings.ToLower(alias)] = key
		return
	}
	scope.names[strings.ToLower(key)] = key
	if name != nil {
		scope.names[strings.ToLower(name.Name())] = key
	}
}

// resolve maps a qualifier to a table key, searching outer scopes.
func (s *prescanner) resolve(qualifier []string) string {
	if len(qualifier) == 0 {
		return ""
	}
	full := strings.ToLower(strings.Join(qualifier, "."))
	last := strings.ToLower(qualifier[len(qualifier)-1])
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if key, ok := s.scopes[i].names[full]; ok {
			return key
		}
		if key, ok := s.scopes[i].names[last]; ok {
			return key
		}
	}
	return ""
}

func (s *prescanner) column(ref *parser.ColumnReference) {
	if len(s.scopes) == 0 || len(ref.Parts) == 0 {
		return
	}
	if len(ref.Parts) == 1 {
		scope := s.scopes[len(s.scopes)-1]
		if len(scope.tables) == 1 {
			s.known.add(scope.tables[0], ref.Column())
		}
		return
	}
	if key := s.resolve(ref.Parts[:len(ref.Parts)-1]); key != "" {
		s.known.add(key, ref.Column())
	}
}
