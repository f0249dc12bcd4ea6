package graph

import (
	"github.com/minibundle/minibundle/internal/ast"
	"github.com/minibundle/minibundle/internal/js_ast"
)

// A specifier that isn't a path. It has no source and no statements, and is
// emitted as a "require()" call instead.
type ExternalModule struct {
	// The specifier exactly as written, such as "lodash/fp"
	ID string

	// The name of the variable holding the required module. This is assigned
	// during deconfliction.
	Name string

	// Whether any module imported the default export, and whether any module
	// imported something else. When both happen the default export needs its
	// own variable.
	NeedsDefault bool
	NeedsNamed   bool

	suggestions
}

func (*ExternalModule) ImportRecords() *[]ast.ImportRecord {
	return nil
}

// The name this module would like before deconfliction. Names suggested by
// importers win over the specifier.
func (e *ExternalModule) PreferredName() string {
	if name, ok := e.SuggestedName("*"); ok {
		return name
	}
	if name, ok := e.SuggestedName("default"); ok {
		return name
	}
	return js_ast.ForceValidIdentifier(e.ID)
}

func (e *ExternalModule) CanonicalName(exportName string) string {
	switch exportName {
	case "default":
		if e.NeedsNamed {
			return e.Name + "__default"
		}
		return e.Name
	case "*":
		return e.Name
	default:
		return e.Name + "." + exportName
	}
}
