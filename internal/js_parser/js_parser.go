package js_parser

// This converts the concrete syntax tree produced by tree-sitter's JavaScript
// grammar into the arena AST used by the rest of the bundler. The conversion
// keeps every node including anonymous tokens, so later passes can look for
// keywords such as "default" or "let" without consulting the source text.

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/minibundle/minibundle/internal/js_ast"
	"github.com/minibundle/minibundle/internal/logger"
)

type parser struct {
	log    logger.Log
	source logger.Source
	nodes  []js_ast.Node

	// The first node that tree-sitter had to invent or skip to recover from a
	// syntax error. Nothing after a syntax error is reported.
	firstError *sitter.Node
}

// The returned AST is immutable. A parser is created per call because
// tree-sitter parsers must not be shared between goroutines.
func Parse(ctx context.Context, log logger.Log, source logger.Source) (result js_ast.AST, ok bool) {
	sp := sitter.NewParser()
	defer sp.Close()
	sp.SetLanguage(javascript.GetLanguage())

	tree, err := sp.ParseCtx(ctx, nil, []byte(source.Contents))
	if err != nil {
		log.AddError(&source, logger.Range{}, fmt.Sprintf("Failed to parse: %s", err.Error()))
		return
	}
	defer tree.Close()

	p := &parser{
		log:    log,
		source: source,
		nodes:  make([]js_ast.Node, 0, len(source.Contents)/4),
	}

	root := tree.RootNode()
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()
	result.Root = p.visit(cursor, js_ast.InvalidNode)

	if p.firstError != nil {
		p.reportSyntaxError(p.firstError)
		return
	}

	result.Nodes = p.nodes
	for _, child := range p.nodes[result.Root].Children {
		if n := &p.nodes[child]; n.Named && n.Kind != js_ast.KComment {
			result.Body = append(result.Body, child)
		}
	}
	ok = true
	return
}

func (p *parser) visit(cursor *sitter.TreeCursor, parent js_ast.NodeIndex) js_ast.NodeIndex {
	node := cursor.CurrentNode()
	nodeType := node.Type()
	index := js_ast.NodeIndex(len(p.nodes))

	p.nodes = append(p.nodes, js_ast.Node{
		Type:   nodeType,
		Field:  cursor.CurrentFieldName(),
		Parent: parent,
		Loc:    logger.Loc{Start: int32(node.StartByte())},
		End:    int32(node.EndByte()),
		Kind:   js_ast.KindForType(nodeType),
		Named:  node.IsNamed(),
	})

	if p.firstError == nil && (nodeType == "ERROR" || node.IsMissing()) {
		p.firstError = node
	}

	if cursor.GoToFirstChild() {
		var children []js_ast.NodeIndex
		for {
			children = append(children, p.visit(cursor, index))
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
		p.nodes[index].Children = children
	}

	return index
}

func (p *parser) reportSyntaxError(node *sitter.Node) {
	start := int32(node.StartByte())
	end := int32(node.EndByte())

	if node.IsMissing() {
		p.log.AddError(&p.source, logger.Range{Loc: logger.Loc{Start: start}},
			fmt.Sprintf("Expected %q", node.Type()))
		return
	}

	// Only quote the first line of the unexpected text
	text := p.source.Contents[start:end]
	if newline := strings.IndexAny(text, "\r\n"); newline != -1 {
		text = text[:newline]
	}
	r := logger.Range{Loc: logger.Loc{Start: start}, Len: int32(len(text))}
	if text == "" {
		p.log.AddError(&p.source, r, "Unexpected end of file")
		return
	}
	p.log.AddError(&p.source, r, fmt.Sprintf("Unexpected %q", text))
}
