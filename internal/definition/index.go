package definition

import (
	"sort"
	"strings"
	"sync"
)

// Kind is the type of object an entry defines.
type Kind string

const (
	KindView      Kind = "view"
	KindProcedure Kind = "procedure"
	KindUnknown   Kind = ""
)

// Entry is one indexed definition.
type Entry struct {
	Name string // as written in the definition, e.g. "dbo.CustomerOrders"
	Kind Kind
	Path string // source file, empty for in-memory entries
	Text string
}

// Index maps object names to definitions. It is safe for concurrent use.
type Index struct {
	mu sync.RWMutex

	// byName maps normalized qualified names: "dbo.customerorders" → entry
	byName map[string]*Entry

	// byLast maps unqualified names: "customerorders" → entry
	// Note: if several schemas define the same name, the first registered wins
	byLast map[string]*Entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		byName: make(map[string]*Entry),
		byLast: make(map[string]*Entry),
	}
}

// Add registers e under its qualified and unqualified names. A later entry
// with the same qualified name replaces the earlier one.
func (i *Index) Add(e Entry) {
	key := normalize(e.Name)
	if key == "" {
		return
	}
	entry := &e

	i.mu.Lock()
	defer i.mu.Unlock()

	if old, ok := i.byName[key]; ok {
		for last, existing := range i.byLast {
			if existing == old {
				i.byLast[last] = entry
			}
		}
	}
	i.byName[key] = entry

	last := lastPart(key)
	if _, ok := i.byLast[last]; !ok {
		i.byLast[last] = entry
	}
}

// Lookup returns the entry for name. A qualified name falls back to its
// unqualified part.
func (i *Index) Lookup(name string) (Entry, bool) {
	key := normalize(name)
	if key == "" {
		return Entry{}, false
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if e, ok := i.byName[key]; ok {
		return *e, true
	}
	if e, ok := i.byLast[lastPart(key)]; ok {
		return *e, true
	}
	return Entry{}, false
}

// TryGetDefinition implements Provider.
func (i *Index) TryGetDefinition(name string) (string, bool) {
	e, ok := i.Lookup(name)
	if !ok {
		return "", false
	}
	return e.Text, true
}

// Entries returns all entries sorted by name.
func (i *Index) Entries() []Entry {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]Entry, 0, len(i.byName))
	for _, e := range i.byName {
		out = append(out, *e)
	}
	sort.Slice(out, func(a, b int) bool {
		return strings.ToLower(out[a].Name) < strings.ToLower(out[b].Name)
	})
	return out
}

// Len returns the number of indexed definitions.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byName)
}

// Replace swaps the contents of i for those of other.
func (i *Index) Replace(other *Index) {
	other.mu.RLock()
	byName, byLast := other.byName, other.byLast
	other.mu.RUnlock()

	i.mu.Lock()
	i.byName, i.byLast = byName, byLast
	i.mu.Unlock()
}

// normalize lowercases name and strips bracket and double-quote delimiters.
func normalize(name string) string {
	name = strings.NewReplacer("[", "", "]", "", `"`, "").Replace(strings.TrimSpace(name))
	return strings.ToLower(name)
}

func lastPart(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}
