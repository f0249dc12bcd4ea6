package graph

// The annotator walks each top-level statement twice. The first pass builds
// the scope tree and records which names each statement declares at module
// level. The second pass, which needs every module-level name to be known,
// records the free names each statement reads and the module-level names it
// may change.

import (
	"github.com/minibundle/minibundle/internal/js_ast"
	"github.com/minibundle/minibundle/internal/logger"
)

type annotator struct {
	source  *logger.Source
	tree    *js_ast.AST
	scopes  *ScopeTree
	scopeOf map[js_ast.NodeIndex]ScopeIndex
	stmt    *Stmt
}

func (a *annotator) text(node js_ast.NodeIndex) string {
	return a.tree.Text(a.source.Contents, node)
}

func (a *annotator) openScope(node js_ast.NodeIndex, parent ScopeIndex, isBlock bool) ScopeIndex {
	scope := a.scopes.Push(parent, isBlock)
	a.scopeOf[node] = scope
	return scope
}

func (a *annotator) declare(scope ScopeIndex, name js_ast.NodeIndex, isBlockScoped bool) {
	text := a.text(name)
	if a.scopes.Declare(scope, text, isBlockScoped) == RootScope {
		a.stmt.Defines.Add(text)
	}
}

func (a *annotator) declarePattern(scope ScopeIndex, pattern js_ast.NodeIndex, isBlockScoped bool) {
	for _, name := range BindingIdentifiers(a.tree, pattern) {
		a.declare(scope, name, isBlockScoped)
	}
}

func (a *annotator) declareParameters(fn js_ast.NodeIndex, scope ScopeIndex) {
	if params := a.tree.ChildByField(fn, "parameters"); params.IsValid() {
		a.declarePattern(scope, params, false)
	}

	// Arrow functions with a single parameter and no parentheses
	if param := a.tree.ChildByField(fn, "parameter"); param.IsValid() {
		a.declarePattern(scope, param, false)
	}
}

func (a *annotator) declareScopes(node js_ast.NodeIndex, scope ScopeIndex) {
	n := a.tree.Node(node)

	switch n.Kind {
	case js_ast.KImportStatement:
		return

	case js_ast.KFunctionDeclaration, js_ast.KGeneratorFunctionDeclaration:
		if name := a.tree.ChildByField(node, "name"); name.IsValid() {
			a.declare(scope, name, false)
		}
		scope = a.openScope(node, scope, false)
		a.declareParameters(node, scope)

	case js_ast.KFunctionExpression, js_ast.KGeneratorFunction, js_ast.KArrowFunction, js_ast.KMethodDefinition:
		scope = a.openScope(node, scope, false)

		// A function expression's own name is only visible inside its body
		if name := a.tree.ChildByField(node, "name"); name.IsValid() && a.tree.Kind(name) == js_ast.KIdentifier {
			a.declare(scope, name, false)
		}
		a.declareParameters(node, scope)

	case js_ast.KClass:
		if name := a.tree.ChildByField(node, "name"); name.IsValid() {
			scope = a.openScope(node, scope, true)
			a.declare(scope, name, true)
		}

	case js_ast.KClassDeclaration:
		if name := a.tree.ChildByField(node, "name"); name.IsValid() {
			a.declare(scope, name, true)
		}

	case js_ast.KStatementBlock, js_ast.KForStatement:
		scope = a.openScope(node, scope, true)

	case js_ast.KCatchClause:
		scope = a.openScope(node, scope, true)
		if param := a.tree.ChildByField(node, "parameter"); param.IsValid() {
			a.declarePattern(scope, param, true)
		}

	case js_ast.KForInStatement:
		scope = a.openScope(node, scope, true)
		if kind := a.tree.ChildByField(node, "kind"); kind.IsValid() {
			a.declarePattern(scope, a.tree.ChildByField(node, "left"), a.tree.Node(kind).Type != "var")
		}

	case js_ast.KLexicalDeclaration, js_ast.KVariableDeclaration:
		isBlockScoped := n.Kind == js_ast.KLexicalDeclaration
		for _, child := range n.Children {
			if a.tree.Kind(child) == js_ast.KVariableDeclarator {
				a.declarePattern(scope, a.tree.ChildByField(child, "name"), isBlockScoped)
			}
		}
	}

	for _, child := range n.Children {
		a.declareScopes(child, scope)
	}
}

func (a *annotator) collectReferences(node js_ast.NodeIndex, scope ScopeIndex) {
	n := a.tree.Node(node)
	if n.Kind == js_ast.KImportStatement {
		return
	}
	name := js_ast.InvalidNode
	if inner, ok := a.scopeOf[node]; ok {
		if name = declaredFunctionName(a.tree, node); name.IsValid() {
			a.collectReferences(name, scope)
		}
		scope = inner
	}

	switch n.Kind {
	case js_ast.KIdentifier, js_ast.KShorthandPropertyIdentifier, js_ast.KShorthandPropertyIdentifierPattern:
		if IsReference(a.tree, node) {
			name := a.text(node)
			if a.scopes.IsModuleLevel(scope, name) && !a.stmt.Defines.Has(name) {
				a.stmt.DependsOn.Add(name)
			}
		}

	case js_ast.KAssignmentExpression, js_ast.KAugmentedAssignmentExpression:
		a.collectWrite(scope, a.tree.ChildByField(node, "left"))

	case js_ast.KUpdateExpression:
		a.collectWrite(scope, a.tree.ChildByField(node, "argument"))

	case js_ast.KCallExpression:
		// Any argument may be mutated by the callee
		if args := a.tree.ChildByField(node, "arguments"); args.IsValid() {
			for _, arg := range a.tree.NamedChildren(args) {
				a.collectWrite(scope, arg)
			}
		}

	case js_ast.KForInStatement:
		if !a.tree.ChildByField(node, "kind").IsValid() {
			a.collectWrite(scope, a.tree.ChildByField(node, "left"))
		}
	}

	for _, child := range n.Children {
		if child != name {
			a.collectReferences(child, scope)
		}
	}
}

func (a *annotator) collectWrite(scope ScopeIndex, target js_ast.NodeIndex) {
	target = WriteTarget(a.tree, target)
	for _, name := range BindingIdentifiers(a.tree, target) {
		if text := a.text(name); a.scopes.IsModuleLevel(scope, text) {
			a.stmt.Modifies.Add(text)
		}
	}
}

// Strips "foo.bar", "foo[bar]" and parentheses down to "foo". Writing to a
// property of a binding counts as writing to the binding.
func WriteTarget(tree *js_ast.AST, target js_ast.NodeIndex) js_ast.NodeIndex {
	for target.IsValid() {
		switch tree.Kind(target) {
		case js_ast.KMemberExpression, js_ast.KSubscriptExpression:
			target = tree.ChildByField(target, "object")
		case js_ast.KParenthesizedExpression:
			children := tree.NamedChildren(target)
			if len(children) == 0 {
				return js_ast.InvalidNode
			}
			target = children[0]
		default:
			return target
		}
	}
	return target
}

// Returns every identifier bound by a declaration pattern, in source order
func BindingIdentifiers(tree *js_ast.AST, pattern js_ast.NodeIndex) (result []js_ast.NodeIndex) {
	var visit func(node js_ast.NodeIndex)
	visit = func(node js_ast.NodeIndex) {
		if !node.IsValid() {
			return
		}
		switch tree.Kind(node) {
		case js_ast.KIdentifier, js_ast.KShorthandPropertyIdentifierPattern:
			result = append(result, node)
		case js_ast.KAssignmentPattern, js_ast.KObjectAssignmentPattern:
			visit(tree.ChildByField(node, "left"))
		case js_ast.KPairPattern:
			visit(tree.ChildByField(node, "value"))
		case js_ast.KObjectPattern, js_ast.KArrayPattern, js_ast.KRestPattern, js_ast.KFormalParameters:
			for _, child := range tree.NamedChildren(node) {
				visit(child)
			}
		}
	}
	visit(pattern)
	return
}

// Identifiers are references unless they only name something exported
func IsReference(tree *js_ast.AST, node js_ast.NodeIndex) bool {
	n := tree.Node(node)
	if n.Parent.IsValid() && tree.Kind(n.Parent) == js_ast.KExportSpecifier && n.Field == "alias" {
		return false
	}
	return true
}

// Calls "enter" for every node under "node" in source order along with the
// innermost scope at that node. Children are skipped when "enter" returns
// false. Import statements are never entered.
func (m *Module) Walk(node js_ast.NodeIndex, enter func(node js_ast.NodeIndex, scope ScopeIndex) bool) {
	m.walk(node, RootScope, enter)
}

func (m *Module) walk(node js_ast.NodeIndex, scope ScopeIndex, enter func(node js_ast.NodeIndex, scope ScopeIndex) bool) {
	if m.AST.Kind(node) == js_ast.KImportStatement {
		return
	}
	name := js_ast.InvalidNode
	if inner, ok := m.ScopeOf[node]; ok {
		if name = declaredFunctionName(&m.AST, node); name.IsValid() {
			m.walk(name, scope, enter)
		}
		scope = inner
	}
	if !enter(node, scope) {
		return
	}
	for _, child := range m.AST.Nodes[node].Children {
		if child != name {
			m.walk(child, scope, enter)
		}
	}
}

// A function declaration's name is bound in the enclosing scope, not in the
// scope the function opens, so it is visited before that scope is entered
func declaredFunctionName(tree *js_ast.AST, node js_ast.NodeIndex) js_ast.NodeIndex {
	switch tree.Kind(node) {
	case js_ast.KFunctionDeclaration, js_ast.KGeneratorFunctionDeclaration:
		return tree.ChildByField(node, "name")
	}
	return js_ast.InvalidNode
}
