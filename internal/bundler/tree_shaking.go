package bundler

// Tree shaking starts from the entry module's statements and pulls in the
// statements that define every name they read, recursively. All of this runs
// on one goroutine: a statement is marked as included before its
// dependencies are expanded, which is what makes cycles terminate, and that
// only works when nothing else is marking statements at the same time.

import (
	"fmt"

	"github.com/minibundle/minibundle/internal/ast"
	"github.com/minibundle/minibundle/internal/graph"
)

type defineKey struct {
	sourceIndex uint32
	name        string
}

// Returns the statements that must be included, in order, for the name to
// be defined in the given module. Each (module, name) pair is only resolved
// once and later requests return nothing, since whatever they would have
// returned is already part of the output.
func (s *scanner) define(sourceIndex uint32, name string) ([]graph.StmtRef, *Error) {
	key := defineKey{sourceIndex: sourceIndex, name: name}
	if s.defined[key] {
		return nil, nil
	}
	s.defined[key] = true

	module := s.module(sourceIndex)

	if binding, ok := module.Imports[name]; ok {
		return s.defineImport(sourceIndex, module, binding)
	}

	// "export default foo" only forwards to "foo"
	if name == "default" {
		if export, ok := module.Exports["default"]; ok && export.Kind == graph.ExportDefaultIdentifier {
			return s.define(sourceIndex, export.LocalName)
		}
	}

	if stmt, ok := module.Definitions[name]; ok {
		return s.expandStatement(sourceIndex, stmt)
	}

	// Globals don't need any statements
	return nil, nil
}

func (s *scanner) defineImport(sourceIndex uint32, module *graph.Module, binding *graph.ImportBinding) ([]graph.StmtRef, *Error) {
	record := &(*module.ImportRecords())[binding.ImportRecordIndex]
	importer := s.source(sourceIndex)
	target, err := s.fetchModule(binding.Source, importer, record.Range)
	if err != nil {
		return nil, err
	}
	record.SourceIndex = ast.MakeIndex32(target)

	repr := s.repr(target)
	switch binding.Name {
	case "default":
		repr.SuggestName("default", binding.LocalName)
	case "*":
		repr.SuggestName("*", binding.LocalName)
		repr.SuggestName("default", binding.LocalName+"__default")
	}

	if external, ok := repr.(*graph.ExternalModule); ok {
		if binding.Name == "default" {
			external.NeedsDefault = true
		} else {
			external.NeedsNamed = true
		}
		if !s.seenExternal[target] {
			s.seenExternal[target] = true
			s.externalModules = append(s.externalModules, target)
		}
		return nil, nil
	}

	other := repr.(*graph.Module)

	// A namespace object can be used to reach any export at run-time, so all
	// of the other module is included
	if binding.Name == "*" {
		if !s.seenNamespace[target] {
			s.seenNamespace[target] = true
			s.namespaceModules = append(s.namespaceModules, target)
		}
		statements, err := s.expandAllStatements(target, false)
		if err != nil {
			return nil, err
		}

		// Re-exported names live in other modules and also have to be
		// defined for the namespace object's getters to work
		for _, exportName := range other.ExportOrder {
			more, err := s.define(target, other.Exports[exportName].LocalName)
			if err != nil {
				return nil, err
			}
			statements = append(statements, more...)
		}
		return statements, nil
	}

	export, ok := other.Exports[binding.Name]
	if !ok {
		return nil, NewError(ErrMissingExport, importer, binding.Range,
			fmt.Sprintf("Module %s does not export %s (imported by %s)",
				s.source(target).PrettyPath, binding.Name, importer.PrettyPath))
	}
	return s.define(target, export.LocalName)
}

// Includes one statement along with everything it needs. Dependencies come
// first in the returned list, then the statement, then any later statements
// that change the names it defines.
func (s *scanner) expandStatement(sourceIndex uint32, stmtIndex uint32) ([]graph.StmtRef, *Error) {
	module := s.module(sourceIndex)
	if module.Included[stmtIndex] {
		return nil, nil
	}
	module.Included[stmtIndex] = true

	var result []graph.StmtRef
	stmt := &module.Stmts[stmtIndex]

	for _, name := range stmt.DependsOn.Names() {
		statements, err := s.define(sourceIndex, name)
		if err != nil {
			return nil, err
		}
		result = append(result, statements...)
	}

	result = append(result, graph.StmtRef{SourceIndex: sourceIndex, Stmt: stmtIndex})

	for _, name := range stmt.Defines.Names() {
		for _, other := range module.Modifications[name] {
			if module.Included[other] {
				continue
			}
			statements, err := s.expandStatement(sourceIndex, other)
			if err != nil {
				return nil, err
			}
			result = append(result, statements...)
		}
	}

	return result, nil
}

// Expands every statement of a module in source order. Export lists only
// matter for the entry module, where they describe the bundle's own exports.
func (s *scanner) expandAllStatements(sourceIndex uint32, isEntryPoint bool) ([]graph.StmtRef, *Error) {
	module := s.module(sourceIndex)
	var result []graph.StmtRef

	for i, stmt := range module.Stmts {
		switch stmt.Kind {
		case graph.StmtImport:
			continue
		case graph.StmtExportClause:
			if !isEntryPoint {
				continue
			}
		}

		statements, err := s.expandStatement(sourceIndex, uint32(i))
		if err != nil {
			return nil, err
		}
		result = append(result, statements...)
	}

	s.log.Debug().
		Str("path", s.source(sourceIndex).PrettyPath).
		Int("statements", len(result)).
		Bool("entry", isEntryPoint).
		Msg("Expanded all statements")
	return result, nil
}
