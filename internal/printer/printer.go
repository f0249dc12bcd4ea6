package printer

// The printer turns a deconflicted bundle back into JavaScript. Each included
// statement is cut out of its original source text, export syntax is
// stripped, and references to top-level bindings are rewritten to their
// canonical names. Everything else is copied from the source as written.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minibundle/minibundle/internal/bundler"
	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/graph"
	"github.com/minibundle/minibundle/internal/helpers"
	"github.com/minibundle/minibundle/internal/js_ast"
	"github.com/minibundle/minibundle/internal/logger"
	"github.com/minibundle/minibundle/internal/renamer"
	"github.com/minibundle/minibundle/internal/splice"
)

type printer struct {
	graph *graph.LinkerGraph
	names *renamer.Names

	// One buffer per module that statements are snipped from
	buffers map[uint32]*splice.Buffer
}

// Prints the bundle as a CommonJS module. Problems with the requested exports
// mode that don't prevent printing are reported to the log as warnings.
func Print(log logger.Log, b *bundler.Bundle, options config.GenerateOptions) (string, error) {
	options.Timer.Begin("Print")
	defer options.Timer.End("Print")

	p := &printer{
		graph:   b.Graph,
		names:   b.Names,
		buffers: make(map[uint32]*splice.Buffer),
	}

	entry := p.graph.Module(p.graph.EntryPoint)
	mode := config.ResolveExportsMode(options.Exports, entry.ExportOrder)
	switch mode {
	case config.ExportsDefault:
		if _, ok := entry.Exports["default"]; !ok {
			return "", bundler.NewError(bundler.ErrMissingExport, nil, logger.Range{},
				fmt.Sprintf("The exports mode is %q but %s has no default export", mode, p.source(p.graph.EntryPoint).PrettyPath))
		}
	case config.ExportsNone:
		if len(entry.ExportOrder) > 0 {
			log.AddWarning(nil, logger.Range{}, fmt.Sprintf("The exports mode is %q so the exports of %s are ignored",
				mode, p.source(p.graph.EntryPoint).PrettyPath))
		}
	}

	body := splice.Bundle{}
	if err := p.printStatements(&body); err != nil {
		return "", err
	}
	body.Prepend(p.namespaceBlock(body.IndentString()))

	// Empty sections don't leave blank lines behind
	j := helpers.Joiner{}
	j.AddString("'use strict'")
	for _, section := range []string{
		p.importBlock(),
		strings.Trim(body.String(), " \t\r\n"),
		p.exportBlock(mode),
	} {
		if section != "" {
			j.AddString("\n\n")
			j.AddString(section)
		}
	}
	return j.Done(), nil
}

func (p *printer) source(sourceIndex uint32) *logger.Source {
	return &p.graph.Files[sourceIndex].Source
}

func (p *printer) printStatements(body *splice.Bundle) *bundler.Error {
	var previous graph.StmtRef
	hasPrevious := false
	previousMargin := 0

	for _, ref := range p.graph.Statements {
		buffer, err := p.printStmt(ref)
		if err != nil {
			return err
		}
		if buffer == nil {
			continue
		}

		stmt := p.graph.Stmt(ref)
		margin := stmt.Margin[0]
		if previousMargin > margin {
			margin = previousMargin
		}

		// Statements are only allowed to share a line if they already did
		separator := strings.Repeat("\n", margin)
		if hasPrevious && margin == 0 {
			if previous.SourceIndex == ref.SourceIndex && previous.Stmt+1 == ref.Stmt {
				separator = " "
			} else {
				separator = "\n"
			}
		}

		body.AddSource(buffer, separator)
		previous = ref
		hasPrevious = true
		previousMargin = stmt.Margin[1]
	}
	return nil
}

// Returns nil for statements that don't produce any code
func (p *printer) printStmt(ref graph.StmtRef) (*splice.Buffer, *bundler.Error) {
	module := p.graph.Module(ref.SourceIndex)
	source := p.source(ref.SourceIndex)
	stmt := &module.Stmts[ref.Stmt]
	node := module.AST.Node(stmt.Node)

	whole, ok := p.buffers[ref.SourceIndex]
	if !ok {
		whole = splice.New(source.Contents)
		p.buffers[ref.SourceIndex] = whole
	}
	buffer := whole.Snip(node.Loc.Start, node.End)

	var err error
	switch stmt.Kind {
	case graph.StmtExportClause:
		// Every name in the list was already resolved to its definition
		return nil, nil

	case graph.StmtExportDeclaration, graph.StmtExportDefaultDeclaration:
		err = buffer.Remove(node.Loc.Start, module.AST.Node(stmt.Inner).Loc.Start)

	case graph.StmtExportDefaultIdentifier:
		canonicalName := p.names.CanonicalName(ref.SourceIndex, "default")
		identifier := module.AST.Text(source.Contents, stmt.Inner)
		if canonicalName == p.names.CanonicalName(ref.SourceIndex, identifier) {
			return nil, nil
		}
		err = buffer.Overwrite(node.Loc.Start, module.AST.Node(stmt.Inner).Loc.Start,
			fmt.Sprintf("var %s = ", canonicalName))

	case graph.StmtExportDefaultExpression:
		err = buffer.Overwrite(node.Loc.Start, module.AST.Node(stmt.Inner).Loc.Start,
			fmt.Sprintf("var %s = ", p.names.CanonicalName(ref.SourceIndex, "default")))

	case graph.StmtImport:
		return nil, bundler.NewError(bundler.ErrInternal, source, node.Range(),
			"Internal error: import statements are never printed")
	}
	if err != nil {
		return nil, bundler.NewError(bundler.ErrInternal, source, node.Range(), "Internal error: "+err.Error())
	}

	if err := p.replaceIdentifiers(ref, buffer); err != nil {
		return nil, bundler.NewError(bundler.ErrInternal, source, node.Range(), "Internal error: "+err.Error())
	}
	return buffer, nil
}

// Rewrites every reference to a top-level binding whose canonical name isn't
// the name it was written with. References that resolve to a nested binding
// with the same name are left alone.
func (p *printer) replaceIdentifiers(ref graph.StmtRef, buffer *splice.Buffer) error {
	module := p.graph.Module(ref.SourceIndex)
	source := p.source(ref.SourceIndex)
	stmt := &module.Stmts[ref.Stmt]
	tree := &module.AST

	replacements := make(map[string]string)
	addReplacement := func(name string) {
		// The synthetic default binding has no identifier to rewrite
		if name == "default" {
			return
		}
		if canonicalName := p.names.CanonicalName(ref.SourceIndex, name); canonicalName != name {
			replacements[name] = canonicalName
		}
	}
	for _, name := range stmt.DependsOn.Names() {
		addReplacement(name)
	}
	for _, name := range stmt.Defines.Names() {
		addReplacement(name)
	}
	if len(replacements) == 0 {
		return nil
	}

	var err error
	module.Walk(stmt.Node, func(node js_ast.NodeIndex, scope graph.ScopeIndex) bool {
		if err != nil {
			return false
		}

		// Skip scopes that shadow every name being replaced
		if _, ok := module.ScopeOf[node]; ok {
			needed := false
			for name := range replacements {
				if module.Scopes.IsModuleLevel(scope, name) {
					needed = true
					break
				}
			}
			if !needed {
				return false
			}
		}

		n := tree.Node(node)
		switch n.Kind {
		case js_ast.KIdentifier, js_ast.KShorthandPropertyIdentifier, js_ast.KShorthandPropertyIdentifierPattern:
			if !graph.IsReference(tree, node) {
				return true
			}
			name := tree.Text(source.Contents, node)
			newName, ok := replacements[name]
			if !ok || !module.Scopes.IsModuleLevel(scope, name) {
				return true
			}
			if n.Kind != js_ast.KIdentifier {
				// "{ foo }" becomes "{ foo: _foo }"
				newName = name + ": " + newName
			}
			err = buffer.Overwrite(n.Loc.Start, n.End, newName)
		}
		return true
	})
	return err
}

// Namespace objects are plain objects with one getter per export, so they
// always see the current value of each binding
func (p *printer) namespaceBlock(indent string) string {
	j := helpers.Joiner{}
	for _, sourceIndex := range p.graph.NamespaceModules {
		module := p.graph.Module(sourceIndex)
		j.AddString(fmt.Sprintf("var %s = {\n", p.names.NamespaceName(sourceIndex)))
		for i, exportName := range module.ExportOrder {
			if i > 0 {
				j.AddString(",\n")
			}
			canonicalName := p.names.CanonicalName(sourceIndex, module.Exports[exportName].LocalName)
			j.AddString(fmt.Sprintf("%sget %s () { return %s }", indent, propertyKey(exportName), canonicalName))
		}
		j.AddString("\n}\n\n")
	}
	return j.Done()
}

func (p *printer) importBlock() string {
	var lines []string
	for _, sourceIndex := range p.graph.ExternalModules {
		external := p.graph.External(sourceIndex)
		name := external.Name
		lines = append(lines, fmt.Sprintf("var %s = require(%s)", name, quoteSingle(external.ID)))

		if external.NeedsDefault {
			target := name + " = "
			if external.NeedsNamed {
				target = "var " + name + "__default = "
			}
			lines = append(lines, fmt.Sprintf("%s'default' in %s ? %s['default'] : %s", target, name, name, name))
		}
	}
	return strings.Join(lines, "\n")
}

func (p *printer) exportBlock(mode config.ExportsMode) string {
	entry := p.graph.Module(p.graph.EntryPoint)

	switch mode {
	case config.ExportsDefault:
		return "module.exports = " + p.names.CanonicalName(p.graph.EntryPoint, "default")

	case config.ExportsNamed:
		lines := make([]string, 0, len(entry.ExportOrder))
		for _, exportName := range entry.ExportOrder {
			canonicalName := p.names.CanonicalName(p.graph.EntryPoint, entry.Exports[exportName].LocalName)
			lines = append(lines, fmt.Sprintf("exports%s = %s", propertyAccess(exportName), canonicalName))
		}
		return strings.Join(lines, "\n")
	}

	return ""
}

func propertyKey(name string) string {
	if js_ast.IsIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

func propertyAccess(name string) string {
	if js_ast.IsIdentifier(name) {
		return "." + name
	}
	return "[" + strconv.Quote(name) + "]"
}

func quoteSingle(text string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(text, `\`, `\\`), "'", `\'`) + "'"
}
