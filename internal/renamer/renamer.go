package renamer

import (
	"fmt"
	"sync"

	"github.com/minibundle/minibundle/internal/graph"
	"github.com/minibundle/minibundle/internal/helpers"
	"github.com/minibundle/minibundle/internal/js_ast"
)

// Local names are either a binding's name as written, "default" for an
// anonymous default export, or "*" for a module's namespace object
type nameKey struct {
	sourceIndex uint32
	name        string
}

// The canonical name of every top-level binding after modules are merged into
// one scope. This is safe to use from multiple goroutines once "Deconflict"
// has returned.
type Names struct {
	graph   *graph.LinkerGraph
	renamed map[nameKey]string

	mutex     sync.Mutex
	canonical map[nameKey]string
}

func newNames(g *graph.LinkerGraph) *Names {
	return &Names{
		graph:     g,
		renamed:   make(map[nameKey]string),
		canonical: make(map[nameKey]string),
	}
}

func ComputeReservedNames(g *graph.LinkerGraph) map[string]bool {
	names := make(map[string]bool)

	// All keywords and strict mode reserved words are reserved names
	for k := range js_ast.Keywords {
		names[k] = true
	}
	for k := range js_ast.StrictModeReservedWords {
		names[k] = true
	}

	// All unbound names must be reserved too, or a renamed binding could end
	// up shadowing a global
	for _, ref := range g.Statements {
		module := g.Module(ref.SourceIndex)
		for _, name := range g.Stmt(ref).DependsOn.Names() {
			if _, ok := module.Imports[name]; ok {
				continue
			}
			if _, ok := module.Definitions[name]; ok {
				continue
			}
			names[name] = true
		}
	}

	// So are nested bindings, or a local that already has the new name would
	// capture a renamed reference
	visited := make(map[uint32]bool)
	for _, ref := range g.Statements {
		if visited[ref.SourceIndex] {
			continue
		}
		visited[ref.SourceIndex] = true
		scopes := g.Module(ref.SourceIndex).Scopes.Scopes
		for i := int(graph.RootScope) + 1; i < len(scopes); i++ {
			for _, name := range scopes[i].Names.Names() {
				names[name] = true
			}
		}
	}

	return names
}

type definer struct {
	sourceIndex uint32

	// The local name, or "" for an external module
	name string
}

// Gives every top-level binding of every included statement a name that is
// unique across the whole bundle. When several modules want the same name,
// the last one to be discovered keeps it and the others get underscores
// prepended. Returns the number of bindings that were renamed.
func Deconflict(g *graph.LinkerGraph) (*Names, int, error) {
	r := newNames(g)
	reserved := ComputeReservedNames(g)

	var order []string
	definers := make(map[string][]definer)
	seen := make(map[nameKey]bool)
	addDefiner := func(base string, d definer) {
		key := nameKey{sourceIndex: d.sourceIndex, name: d.name}
		if d.name != "" {
			if seen[key] {
				return
			}
			seen[key] = true
		}
		if _, ok := definers[base]; !ok {
			order = append(order, base)
		}
		definers[base] = append(definers[base], d)
	}

	for _, ref := range g.Statements {
		for _, name := range g.Stmt(ref).Defines.Names() {
			base := name
			if name == "default" {
				base = r.localBaseName(ref.SourceIndex, name)
			}
			addDefiner(base, definer{sourceIndex: ref.SourceIndex, name: name})
		}
	}
	for _, sourceIndex := range g.NamespaceModules {
		addDefiner(r.localBaseName(sourceIndex, "*"), definer{sourceIndex: sourceIndex, name: "*"})
	}
	for _, sourceIndex := range g.ExternalModules {
		external := g.External(sourceIndex)
		external.Name = external.PreferredName()
		addDefiner(external.Name, definer{sourceIndex: sourceIndex})
	}

	for _, base := range order {
		reserved[base] = true
	}

	renames := 0
	for _, base := range order {
		list := definers[base]

		// The last definer keeps the name as written
		for _, d := range list[:len(list)-1] {
			name := getSafeName(base, reserved)
			reserved[name] = true
			if err := r.rename(d, name); err != nil {
				return nil, 0, err
			}
			renames++
		}
	}

	return r, renames, nil
}

func getSafeName(name string, reserved map[string]bool) string {
	for reserved[name] {
		name = "_" + name
	}
	return name
}

func (r *Names) rename(d definer, name string) error {
	if d.name == "" {
		r.graph.External(d.sourceIndex).Name = name
		return nil
	}
	key := nameKey{sourceIndex: d.sourceIndex, name: d.name}
	if _, ok := r.canonical[key]; ok {
		return fmt.Errorf("Internal error: cannot rename %q in %s after its canonical name was used",
			d.name, r.graph.Files[d.sourceIndex].Source.PrettyPath)
	}
	r.renamed[key] = name
	return nil
}

// Names for the synthetic bindings that hold an anonymous default export and
// a namespace object. Other modules may have suggested a name when they
// imported these. The result never collides with the module's own names.
func (r *Names) localBaseName(sourceIndex uint32, name string) string {
	if renamed, ok := r.renamed[nameKey{sourceIndex: sourceIndex, name: name}]; ok {
		return renamed
	}

	module := r.graph.Module(sourceIndex)
	base, ok := module.SuggestedName(name)
	if !ok {
		base = r.graph.Files[sourceIndex].Source.IdentifierName
		if name == "default" {
			base += "_default"
		}
	}

	ownsName := func(text string) bool {
		if _, ok := module.Definitions[text]; ok {
			return true
		}
		_, ok := module.Imports[text]
		return ok
	}
	if name == "default" && ownsName(base) {
		base += "__default"
	}
	for ownsName(base) {
		base = "_" + base
	}

	r.renamed[nameKey{sourceIndex: sourceIndex, name: name}] = base
	return base
}

// Returns the name that a reference to "localName" inside the given module
// must use in the output. Imports are followed through every module that
// re-exports them until the binding that actually holds the value.
func (r *Names) CanonicalName(sourceIndex uint32, localName string) string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.canonicalName(sourceIndex, localName, nil)
}

// The name of the object synthesized for "import * as" of this module
func (r *Names) NamespaceName(sourceIndex uint32) string {
	return r.CanonicalName(sourceIndex, "*")
}

func (r *Names) canonicalName(sourceIndex uint32, localName string, visiting *helpers.NameSet) string {
	key := nameKey{sourceIndex: sourceIndex, name: localName}
	if name, ok := r.canonical[key]; ok {
		return name
	}

	// Import cycles that never reach a definition fall back to the name as
	// written instead of recursing forever
	visit := fmt.Sprintf("%d:%s", sourceIndex, localName)
	if visiting == nil {
		visiting = &helpers.NameSet{}
	}
	if !visiting.Add(visit) {
		return localName
	}

	name := r.resolve(sourceIndex, localName, visiting)
	r.canonical[key] = name
	return name
}

func (r *Names) resolve(sourceIndex uint32, localName string, visiting *helpers.NameSet) string {
	g := r.graph
	if external := g.External(sourceIndex); external != nil {
		return external.CanonicalName(localName)
	}
	module := g.Module(sourceIndex)

	if binding, ok := module.Imports[localName]; ok {
		target, ok := g.ResolvedImport(sourceIndex, binding)
		if !ok {
			return localName
		}
		if external := g.External(target); external != nil {
			return external.CanonicalName(binding.Name)
		}
		if binding.Name == "*" {
			return r.canonicalName(target, "*", visiting)
		}
		export, ok := g.Module(target).Exports[binding.Name]
		if !ok {
			return localName
		}
		return r.canonicalName(target, export.LocalName, visiting)
	}

	// "export default foo" is just another name for "foo"
	if localName == "default" {
		if export, ok := module.Exports["default"]; ok && export.LocalName != "default" {
			return r.canonicalName(sourceIndex, export.LocalName, visiting)
		}
	}

	if renamed, ok := r.renamed[nameKey{sourceIndex: sourceIndex, name: localName}]; ok {
		return renamed
	}
	return localName
}
