package lineage

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// Processor handles one syntax tree variant. It returns the output columns
// the fragment yields, or nil for fragments without a result shape.
type Processor interface {
	Process(ctx *Context, node parser.Node) ([]*OutputColumn, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx *Context, node parser.Node) ([]*OutputColumn, error)

// Process calls f(ctx, node).
func (f ProcessorFunc) Process(ctx *Context, node parser.Node) ([]*OutputColumn, error) {
	return f(ctx, node)
}

// ParseFunc parses script text into a tree and its parse errors.
type ParseFunc func(script string) (*parser.Script, []*parser.ParseError)

// Registry maps tree node types to processors. It is populated once and is
// safe for concurrent use afterwards.
type Registry struct {
	processors map[reflect.Type]Processor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{processors: make(map[reflect.Type]Processor)}
}

// Register associates the concrete type of variant with p. Registering the
// same type twice replaces the earlier processor.
func (r *Registry) Register(variant parser.Node, p Processor) {
	r.processors[reflect.TypeOf(variant)] = p
}

// GetProcessor returns the processor registered for node's type.
func (r *Registry) GetProcessor(node parser.Node) (Processor, bool) {
	p, ok := r.processors[reflect.TypeOf(node)]
	return p, ok
}

// Len returns the number of registered variants.
func (r *Registry) Len() int {
	return len(r.processors)
}

// Dispatch processes node with its registered processor. An unregistered
// variant is reported to the diagnostics and its subtree is skipped; so is
// any node beyond the depth limit.
func (r *Registry) Dispatch(ctx *Context, node parser.Node) ([]*OutputColumn, error) {
	if node == nil {
		return nil, nil
	}
	if v := reflect.ValueOf(node); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, nil
	}

	p, ok := r.GetProcessor(node)
	if !ok {
		name := variantName(node)
		if ctx.Diagnostics().AddUnsupported(name) {
			ctx.Logger().Debug("unsupported fragment", "variant", name)
		}
		return nil, nil
	}

	run := ctx.run
	if run.depth >= run.maxDepth {
		if ctx.Diagnostics().AddNote(fmt.Sprintf("depth limit %d exceeded", run.maxDepth)) {
			ctx.Logger().Debug("depth limit exceeded", "limit", run.maxDepth, "variant", variantName(node))
		}
		return nil, nil
	}
	run.depth++
	defer func() { run.depth-- }()

	return p.Process(ctx, node)
}

// variantName names the type of node for diagnostics.
func variantName(node parser.Node) string {
	if named, ok := node.(interface{ VariantName() string }); ok {
		return named.VariantName()
	}
	t := reflect.TypeOf(node)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Diagnostics collects non-fatal analysis findings: the distinct variants
// without a processor, and notes such as a reached depth limit.
type Diagnostics struct {
	unsupported map[string]struct{}
	notes       []string
	noteSet     map[string]struct{}
}

// NewDiagnostics creates an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		unsupported: make(map[string]struct{}),
		noteSet:     make(map[string]struct{}),
	}
}

// AddUnsupported records a variant name. It reports whether the name was new.
func (d *Diagnostics) AddUnsupported(variant string) bool {
	if _, ok := d.unsupported[variant]; ok {
		return false
	}
	d.unsupported[variant] = struct{}{}
	return true
}

// AddNote records a note. It reports whether the note was new.
func (d *Diagnostics) AddNote(note string) bool {
	if _, ok := d.noteSet[note]; ok {
		return false
	}
	d.noteSet[note] = struct{}{}
	d.notes = append(d.notes, note)
	return true
}

// Unsupported returns the recorded variant names, sorted.
func (d *Diagnostics) Unsupported() []string {
	out := make([]string, 0, len(d.unsupported))
	for name := range d.unsupported {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Notes returns the recorded notes in the order they were added.
func (d *Diagnostics) Notes() []string {
	return append([]string(nil), d.notes...)
}

// Empty reports whether nothing was recorded.
func (d *Diagnostics) Empty() bool {
	return len(d.unsupported) == 0 && len(d.notes) == 0
}
