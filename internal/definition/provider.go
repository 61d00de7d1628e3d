// Package definition supplies view and stored procedure definitions, and
// base-table column catalogs, to the lineage analyzer.
//
// Definitions can come from memory, from a directory of .sql files laid out
// like an SSDT project, or from a live SQL Server database. Providers can be
// chained; the first one that knows a name wins.
package definition

// Provider looks up the SQL text that defines a view or procedure.
type Provider interface {
	TryGetDefinition(name string) (string, bool)
}

// NewMapProvider returns an index holding the given name -> definition
// pairs. Lookups are case-insensitive and fall back to the unqualified name.
func NewMapProvider(defs map[string]string) *Index {
	idx := NewIndex()
	for name, text := range defs {
		idx.Add(Entry{Name: name, Text: text})
	}
	return idx
}

// Chain asks each provider in order and returns the first definition found.
type Chain []Provider

// TryGetDefinition implements Provider.
func (c Chain) TryGetDefinition(name string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if text, ok := p.TryGetDefinition(name); ok {
			return text, true
		}
	}
	return "", false
}
