package graph

// The graph is the output of the bundling phase and the input to renaming and
// printing. Files live in one slice and everything refers to them by source
// index, so the whole graph goes away together when the build is done.

import (
	"github.com/minibundle/minibundle/internal/ast"
	"github.com/minibundle/minibundle/internal/logger"
)

type InputFileRepr interface {
	ImportRecords() *[]ast.ImportRecord
	SuggestName(exportName string, suggestion string)
	SuggestedName(exportName string) (string, bool)
}

type InputFile struct {
	// External modules have a source with only "KeyPath" and "PrettyPath"
	// set, both to the specifier
	Source logger.Source

	// Either *Module or *ExternalModule
	Repr InputFileRepr
}

// Identifies one top-level statement across the whole graph
type StmtRef struct {
	SourceIndex uint32
	Stmt        uint32
}

type LinkerGraph struct {
	Files      []InputFile
	EntryPoint uint32

	// Every included statement in the order tree shaking discovered it. A
	// statement always comes after the statements defining the names it reads.
	Statements []StmtRef

	// External modules and modules imported with "import * as", in the order
	// they were first demanded
	ExternalModules  []uint32
	NamespaceModules []uint32
}

// Returns nil for external modules
func (g *LinkerGraph) Module(sourceIndex uint32) *Module {
	module, _ := g.Files[sourceIndex].Repr.(*Module)
	return module
}

// Returns nil for modules with source code
func (g *LinkerGraph) External(sourceIndex uint32) *ExternalModule {
	external, _ := g.Files[sourceIndex].Repr.(*ExternalModule)
	return external
}

func (g *LinkerGraph) Stmt(ref StmtRef) *Stmt {
	return &g.Module(ref.SourceIndex).Stmts[ref.Stmt]
}

// Returns the source index an import binding resolved to. This is only valid
// after tree shaking demanded the binding.
func (g *LinkerGraph) ResolvedImport(sourceIndex uint32, binding *ImportBinding) (uint32, bool) {
	records := g.Files[sourceIndex].Repr.ImportRecords()
	if records == nil || int(binding.ImportRecordIndex) >= len(*records) {
		return 0, false
	}
	record := (*records)[binding.ImportRecordIndex].SourceIndex
	if !record.IsValid() {
		return 0, false
	}
	return record.GetIndex(), true
}
