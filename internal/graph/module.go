package graph

import (
	"fmt"
	"strings"

	"github.com/minibundle/minibundle/internal/ast"
	"github.com/minibundle/minibundle/internal/helpers"
	"github.com/minibundle/minibundle/internal/js_ast"
	"github.com/minibundle/minibundle/internal/logger"
)

type StmtKind uint8

const (
	StmtOther StmtKind = iota

	// "import ... from 'path'"
	StmtImport

	// "export { a, b as c }" and "export { a } from 'path'"
	StmtExportClause

	// "export var a = 1", "export function f() {}" and "export class C {}"
	StmtExportDeclaration

	// "export default function f() {}" and "export default class C {}"
	StmtExportDefaultDeclaration

	// "export default foo"
	StmtExportDefaultIdentifier

	// "export default <any other expression>"
	StmtExportDefaultExpression
)

// Annotations for one top-level statement
type Stmt struct {
	// Names this statement declares at module level
	Defines helpers.NameSet

	// Module-level names this statement may change without declaring them
	Modifies helpers.NameSet

	// Free names this statement reads. These are either module-level, imported
	// or global, and never overlap with "Defines".
	DependsOn helpers.NameSet

	Node js_ast.NodeIndex

	// For export statements, the exported declaration or expression
	Inner js_ast.NodeIndex

	// The number of newlines in the whitespace before and after this
	// statement in the original source
	Margin [2]int

	Kind StmtKind
}

type ImportBinding struct {
	Source string

	// The name exported by the source module. This is "default" for default
	// imports and "*" for namespace imports.
	Name string

	LocalName string

	// Where the local name is written, for error messages
	Range logger.Range

	ImportRecordIndex uint32
}

type ExportKind uint8

const (
	ExportLocal ExportKind = iota
	ExportDeclaration
	ExportReExport
	ExportDefaultDeclaration
	ExportDefaultIdentifier
	ExportDefaultExpression
)

type ExportBinding struct {
	ExportedName string

	// The module-level name holding the value. For a default export of an
	// expression this is the synthetic name "default".
	LocalName string

	Stmt uint32
	Kind ExportKind
}

// Names that other modules would like this module to use for its default
// export and its namespace object
type suggestions struct {
	names map[string]string
}

func (s *suggestions) SuggestName(exportName string, suggestion string) {
	if _, ok := s.names[exportName]; ok {
		return
	}
	if s.names == nil {
		s.names = make(map[string]string)
	}
	s.names[exportName] = suggestion
}

func (s *suggestions) SuggestedName(exportName string) (string, bool) {
	name, ok := s.names[exportName]
	return name, ok
}

// One parsed and annotated source file. Everything above "Included" is
// computed once when the module is constructed and never changes afterward.
type Module struct {
	AST     js_ast.AST
	Scopes  ScopeTree
	ScopeOf map[js_ast.NodeIndex]ScopeIndex
	Stmts   []Stmt

	Imports map[string]*ImportBinding
	Exports map[string]*ExportBinding

	// Export names in declaration order
	ExportOrder []string

	// One record per distinct source that a binding is imported from
	importRecords []ast.ImportRecord

	// The statement that defines each module-level name. When a name is
	// declared more than once, the last declaration wins.
	Definitions map[string]uint32

	// Statements that may change each name after it was defined
	Modifications map[string][]uint32

	// This is set by tree shaking. It only ever goes from false to true.
	Included []bool

	suggestions
}

func (m *Module) ImportRecords() *[]ast.ImportRecord {
	return &m.importRecords
}

// Builds the import and export tables, annotates every statement and derives
// the definition and modification indexes. An error is returned for module
// syntax that the bundler doesn't handle.
func Analyse(source *logger.Source, tree js_ast.AST) (*Module, *AnalyseError) {
	m := &Module{
		AST:           tree,
		Scopes:        NewScopeTree(),
		ScopeOf:       make(map[js_ast.NodeIndex]ScopeIndex),
		Stmts:         make([]Stmt, len(tree.Body)),
		Imports:       make(map[string]*ImportBinding),
		Exports:       make(map[string]*ExportBinding),
		Definitions:   make(map[string]uint32),
		Modifications: make(map[string][]uint32),
		Included:      make([]bool, len(tree.Body)),
	}
	recordForSource := make(map[string]uint32)

	for i, node := range tree.Body {
		m.Stmts[i].Node = node
		m.Stmts[i].Inner = js_ast.InvalidNode
		if err := m.classify(source, uint32(i), recordForSource); err != nil {
			return nil, err
		}
	}

	a := annotator{
		source:  source,
		tree:    &m.AST,
		scopes:  &m.Scopes,
		scopeOf: m.ScopeOf,
	}
	for i := range m.Stmts {
		a.stmt = &m.Stmts[i]
		a.declareScopes(a.stmt.Node, RootScope)
		if a.stmt.Kind == StmtExportDefaultExpression {
			a.stmt.Defines.Add("default")
		}
	}
	for i := range m.Stmts {
		a.stmt = &m.Stmts[i]
		a.collectReferences(a.stmt.Node, RootScope)
	}

	for i := range m.Stmts {
		stmt := &m.Stmts[i]
		for _, name := range stmt.Defines.Names() {
			m.Definitions[name] = uint32(i)
		}
		for _, name := range stmt.Modifies.Names() {
			m.Modifications[name] = append(m.Modifications[name], uint32(i))
		}
	}

	m.computeMargins(source.Contents)
	return m, nil
}

func (m *Module) computeMargins(contents string) {
	previousEnd := int32(0)
	for i := range m.Stmts {
		n := m.AST.Node(m.Stmts[i].Node)
		margin := strings.Count(contents[previousEnd:n.Loc.Start], "\n")
		m.Stmts[i].Margin[0] = margin
		if i > 0 {
			m.Stmts[i-1].Margin[1] = margin
		}
		previousEnd = n.End
	}
	if len(m.Stmts) > 0 {
		m.Stmts[len(m.Stmts)-1].Margin[1] = strings.Count(contents[previousEnd:], "\n")
	}
}

func (m *Module) addImportRecord(source string, r logger.Range, kind ast.ImportKind, recordForSource map[string]uint32) uint32 {
	if index, ok := recordForSource[source]; ok {
		return index
	}
	index := uint32(len(m.importRecords))
	m.importRecords = append(m.importRecords, ast.ImportRecord{Range: r, Path: source, Kind: kind})
	recordForSource[source] = index
	return index
}

func (m *Module) addExport(exportedName string, localName string, stmt uint32, kind ExportKind) {
	if _, ok := m.Exports[exportedName]; !ok {
		m.ExportOrder = append(m.ExportOrder, exportedName)
	}
	m.Exports[exportedName] = &ExportBinding{
		ExportedName: exportedName,
		LocalName:    localName,
		Stmt:         stmt,
		Kind:         kind,
	}
}

// Module export names may be written as string literals
func (m *Module) nameText(source *logger.Source, node js_ast.NodeIndex) string {
	if m.AST.Kind(node) == js_ast.KString {
		return m.AST.StringValue(source.Contents, node)
	}
	return m.AST.Text(source.Contents, node)
}

func (m *Module) classify(source *logger.Source, index uint32, recordForSource map[string]uint32) *AnalyseError {
	stmt := &m.Stmts[index]
	node := stmt.Node
	tree := &m.AST

	switch tree.Kind(node) {
	case js_ast.KImportStatement:
		stmt.Kind = StmtImport
		clause := tree.FirstChildOfKind(node, js_ast.KImportClause)
		specifier := tree.ChildByField(node, "source")
		if !clause.IsValid() || !specifier.IsValid() {
			// "import 'path'" is only run for its side effects, which isn't
			// something tree shaking keeps
			return nil
		}
		path := tree.StringValue(source.Contents, specifier)
		record := m.addImportRecord(path, tree.Node(specifier).Range(), ast.ImportStmt, recordForSource)

		addImport := func(name string, local js_ast.NodeIndex) {
			localName := tree.Text(source.Contents, local)
			m.Imports[localName] = &ImportBinding{
				Source:            path,
				Name:              name,
				LocalName:         localName,
				Range:             tree.Node(local).Range(),
				ImportRecordIndex: record,
			}
		}

		for _, child := range tree.NamedChildren(clause) {
			switch tree.Kind(child) {
			case js_ast.KIdentifier:
				addImport("default", child)

			case js_ast.KNamespaceImport:
				if local := tree.FirstChildOfKind(child, js_ast.KIdentifier); local.IsValid() {
					addImport("*", local)
				}

			case js_ast.KNamedImports:
				for _, spec := range tree.NamedChildren(child) {
					if tree.Kind(spec) != js_ast.KImportSpecifier {
						continue
					}
					name := tree.ChildByField(spec, "name")
					local := name
					if alias := tree.ChildByField(spec, "alias"); alias.IsValid() {
						local = alias
					}
					addImport(m.nameText(source, name), local)
				}
			}
		}

	case js_ast.KExportStatement:
		if tree.HasToken(node, "*") || tree.FirstChildOfKind(node, js_ast.KNamespaceExport).IsValid() {
			return &AnalyseError{Kind: UnsupportedSyntax, Msg: logger.Msg{
				Kind:     logger.Error,
				Text:     "Star re-exports are not supported",
				Location: logger.LocationOrNil(source, tree.Node(node).Range()),
			}}
		}

		declaration := tree.ChildByField(node, "declaration")
		value := tree.ChildByField(node, "value")

		if tree.HasToken(node, "default") {
			switch {
			case declaration.IsValid():
				stmt.Kind = StmtExportDefaultDeclaration
				stmt.Inner = declaration
				name := tree.ChildByField(declaration, "name")
				if !name.IsValid() {
					return unhandledExport(source, tree, node)
				}
				m.addExport("default", tree.Text(source.Contents, name), index, ExportDefaultDeclaration)

			case value.IsValid() && tree.Kind(value) == js_ast.KIdentifier:
				stmt.Kind = StmtExportDefaultIdentifier
				stmt.Inner = value
				m.addExport("default", tree.Text(source.Contents, value), index, ExportDefaultIdentifier)

			case value.IsValid():
				stmt.Kind = StmtExportDefaultExpression
				stmt.Inner = value
				m.addExport("default", "default", index, ExportDefaultExpression)

			default:
				return unhandledExport(source, tree, node)
			}
			return nil
		}

		if declaration.IsValid() {
			stmt.Kind = StmtExportDeclaration
			stmt.Inner = declaration
			switch tree.Kind(declaration) {
			case js_ast.KLexicalDeclaration, js_ast.KVariableDeclaration:
				for _, child := range tree.Node(declaration).Children {
					if tree.Kind(child) != js_ast.KVariableDeclarator {
						continue
					}
					for _, name := range BindingIdentifiers(tree, tree.ChildByField(child, "name")) {
						text := tree.Text(source.Contents, name)
						m.addExport(text, text, index, ExportDeclaration)
					}
				}
			default:
				name := tree.ChildByField(declaration, "name")
				if !name.IsValid() {
					return unhandledExport(source, tree, node)
				}
				text := tree.Text(source.Contents, name)
				m.addExport(text, text, index, ExportDeclaration)
			}
			return nil
		}

		clause := tree.FirstChildOfKind(node, js_ast.KExportClause)
		if !clause.IsValid() {
			return unhandledExport(source, tree, node)
		}
		stmt.Kind = StmtExportClause

		path := ""
		record := uint32(0)
		specifier := tree.ChildByField(node, "source")
		if specifier.IsValid() {
			path = tree.StringValue(source.Contents, specifier)
			record = m.addImportRecord(path, tree.Node(specifier).Range(), ast.ImportReExport, recordForSource)
		}

		for _, spec := range tree.NamedChildren(clause) {
			if tree.Kind(spec) != js_ast.KExportSpecifier {
				continue
			}
			name := tree.ChildByField(spec, "name")
			localName := m.nameText(source, name)
			exportedName := localName
			if alias := tree.ChildByField(spec, "alias"); alias.IsValid() {
				exportedName = m.nameText(source, alias)
			}

			if !specifier.IsValid() {
				m.addExport(exportedName, localName, index, ExportLocal)
				continue
			}

			// "export { a as b } from 'path'" imports "a" and exports it as "b"
			m.addExport(exportedName, localName, index, ExportReExport)
			m.Imports[localName] = &ImportBinding{
				Source:            path,
				Name:              localName,
				LocalName:         localName,
				Range:             tree.Node(name).Range(),
				ImportRecordIndex: record,
			}
		}
	}

	return nil
}

type AnalyseErrorKind uint8

const (
	UnsupportedSyntax AnalyseErrorKind = iota
	UnhandledExport
)

type AnalyseError struct {
	Msg  logger.Msg
	Kind AnalyseErrorKind
}

func (e *AnalyseError) Error() string {
	return e.Msg.Text
}

// For export statements that match none of the known shapes. The parser
// doesn't produce these for code without syntax errors.
func unhandledExport(source *logger.Source, tree *js_ast.AST, node js_ast.NodeIndex) *AnalyseError {
	r := tree.Node(node).Range()
	return &AnalyseError{Kind: UnhandledExport, Msg: logger.Msg{
		Kind:     logger.Error,
		Text:     fmt.Sprintf("Unhandled export form %q", firstLine(source.TextForRange(r))),
		Location: logger.LocationOrNil(source, r),
	}}
}

func firstLine(text string) string {
	if newline := strings.IndexByte(text, '\n'); newline != -1 {
		return text[:newline]
	}
	return text
}
