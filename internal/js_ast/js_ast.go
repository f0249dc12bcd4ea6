package js_ast

import (
	"github.com/minibundle/minibundle/internal/logger"
)

// Every node of a parsed module lives in one flat slice and is referenced by
// its position in that slice. Analysis results are kept in side tables keyed
// by NodeIndex instead of being stored on the nodes themselves, so a parsed
// AST is immutable and can be shared between builds.
type NodeIndex uint32

const InvalidNode NodeIndex = ^NodeIndex(0)

func (i NodeIndex) IsValid() bool {
	return i != InvalidNode
}

type Kind uint8

const (
	KOther Kind = iota

	// Leaves
	KComment
	KIdentifier
	KPropertyIdentifier
	KShorthandPropertyIdentifier
	KShorthandPropertyIdentifierPattern
	KString

	// Module syntax
	KProgram
	KImportStatement
	KImportClause
	KNamespaceImport
	KNamedImports
	KImportSpecifier
	KExportStatement
	KExportClause
	KExportSpecifier
	KNamespaceExport

	// Declarations
	KFunctionDeclaration
	KGeneratorFunctionDeclaration
	KClassDeclaration
	KLexicalDeclaration
	KVariableDeclaration
	KVariableDeclarator

	// Function-like expressions
	KFunctionExpression
	KGeneratorFunction
	KArrowFunction
	KMethodDefinition
	KClass

	// Bindings
	KFormalParameters
	KObjectPattern
	KArrayPattern
	KPairPattern
	KAssignmentPattern
	KObjectAssignmentPattern
	KRestPattern

	// Scoped statements
	KStatementBlock
	KCatchClause
	KForStatement
	KForInStatement

	// Expressions
	KMemberExpression
	KSubscriptExpression
	KParenthesizedExpression
	KPair
	KAssignmentExpression
	KAugmentedAssignmentExpression
	KUpdateExpression
	KCallExpression
)

var kindForType = map[string]Kind{
	"comment":                               KComment,
	"hash_bang_line":                        KComment,
	"html_comment":                          KComment,
	"identifier":                            KIdentifier,
	"property_identifier":                   KPropertyIdentifier,
	"shorthand_property_identifier":         KShorthandPropertyIdentifier,
	"shorthand_property_identifier_pattern": KShorthandPropertyIdentifierPattern,
	"string":                                KString,

	"program":          KProgram,
	"import_statement": KImportStatement,
	"import_clause":    KImportClause,
	"namespace_import": KNamespaceImport,
	"named_imports":    KNamedImports,
	"import_specifier": KImportSpecifier,
	"export_statement": KExportStatement,
	"export_clause":    KExportClause,
	"export_specifier": KExportSpecifier,
	"namespace_export": KNamespaceExport,

	"function_declaration":           KFunctionDeclaration,
	"generator_function_declaration": KGeneratorFunctionDeclaration,
	"class_declaration":              KClassDeclaration,
	"lexical_declaration":            KLexicalDeclaration,
	"variable_declaration":           KVariableDeclaration,
	"variable_declarator":            KVariableDeclarator,

	// Older versions of the grammar call function expressions "function"
	"function":            KFunctionExpression,
	"function_expression": KFunctionExpression,
	"generator_function":  KGeneratorFunction,
	"arrow_function":      KArrowFunction,
	"method_definition":   KMethodDefinition,
	"class":               KClass,

	"formal_parameters":         KFormalParameters,
	"object_pattern":            KObjectPattern,
	"array_pattern":             KArrayPattern,
	"pair_pattern":              KPairPattern,
	"assignment_pattern":        KAssignmentPattern,
	"object_assignment_pattern": KObjectAssignmentPattern,
	"rest_pattern":              KRestPattern,

	"statement_block":  KStatementBlock,
	"catch_clause":     KCatchClause,
	"for_statement":    KForStatement,
	"for_in_statement": KForInStatement,

	"member_expression":               KMemberExpression,
	"subscript_expression":            KSubscriptExpression,
	"parenthesized_expression":        KParenthesizedExpression,
	"pair":                            KPair,
	"assignment_expression":           KAssignmentExpression,
	"augmented_assignment_expression": KAugmentedAssignmentExpression,
	"update_expression":               KUpdateExpression,
	"call_expression":                 KCallExpression,
}

func KindForType(nodeType string) Kind {
	if kind, ok := kindForType[nodeType]; ok {
		return kind
	}
	return KOther
}

func (kind Kind) IsFunctionLike() bool {
	switch kind {
	case KFunctionDeclaration, KGeneratorFunctionDeclaration, KFunctionExpression,
		KGeneratorFunction, KArrowFunction, KMethodDefinition:
		return true
	}
	return false
}

type Node struct {
	// The grammar's name for this node. Anonymous tokens use their literal
	// text here, so the "default" keyword has the type "default".
	Type string

	// The name of the field this node occupies in its parent, if any
	Field string

	Children []NodeIndex
	Parent   NodeIndex

	Loc logger.Loc
	End int32

	Kind  Kind
	Named bool
}

func (n *Node) Range() logger.Range {
	return logger.Range{Loc: n.Loc, Len: n.End - n.Loc.Start}
}

type AST struct {
	Nodes []Node

	// Top-level statements of the program in source order. Comments are not
	// statements.
	Body []NodeIndex

	Root NodeIndex
}

func (ast *AST) Node(index NodeIndex) *Node {
	return &ast.Nodes[index]
}

func (ast *AST) Kind(index NodeIndex) Kind {
	if !index.IsValid() {
		return KOther
	}
	return ast.Nodes[index].Kind
}

func (ast *AST) Text(contents string, index NodeIndex) string {
	n := &ast.Nodes[index]
	return contents[n.Loc.Start:n.End]
}

// Returns the first child stored under the given field name
func (ast *AST) ChildByField(index NodeIndex, field string) NodeIndex {
	for _, child := range ast.Nodes[index].Children {
		if ast.Nodes[child].Field == field {
			return child
		}
	}
	return InvalidNode
}

func (ast *AST) ChildrenByField(index NodeIndex, field string) (result []NodeIndex) {
	for _, child := range ast.Nodes[index].Children {
		if ast.Nodes[child].Field == field {
			result = append(result, child)
		}
	}
	return
}

func (ast *AST) NamedChildren(index NodeIndex) (result []NodeIndex) {
	for _, child := range ast.Nodes[index].Children {
		if n := &ast.Nodes[child]; n.Named && n.Kind != KComment {
			result = append(result, child)
		}
	}
	return
}

func (ast *AST) FirstChildOfKind(index NodeIndex, kind Kind) NodeIndex {
	for _, child := range ast.Nodes[index].Children {
		if ast.Nodes[child].Kind == kind {
			return child
		}
	}
	return InvalidNode
}

// Reports whether an anonymous token such as "default", "*" or "let" is a
// direct child of this node
func (ast *AST) HasToken(index NodeIndex, token string) bool {
	for _, child := range ast.Nodes[index].Children {
		if n := &ast.Nodes[child]; !n.Named && n.Type == token {
			return true
		}
	}
	return false
}

// Returns the value of a string literal without its quotes. Escapes are
// decoded for the common single-character forms only.
func (ast *AST) StringValue(contents string, index NodeIndex) string {
	text := ast.Text(contents, index)
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"' || text[0] == '`') {
		text = text[1 : len(text)-1]
	}
	return unescapeString(text)
}

func unescapeString(text string) string {
	backslash := -1
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' {
			backslash = i
			break
		}
	}
	if backslash == -1 {
		return text
	}

	buffer := make([]byte, 0, len(text))
	buffer = append(buffer, text[:backslash]...)
	for i := backslash; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 == len(text) {
			buffer = append(buffer, c)
			continue
		}
		i++
		switch text[i] {
		case 'n':
			buffer = append(buffer, '\n')
		case 't':
			buffer = append(buffer, '\t')
		case 'r':
			buffer = append(buffer, '\r')
		case '0':
			buffer = append(buffer, 0)
		default:
			buffer = append(buffer, text[i])
		}
	}
	return string(buffer)
}
