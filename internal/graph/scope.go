package graph

import (
	"github.com/minibundle/minibundle/internal/helpers"
)

type ScopeIndex uint32

const InvalidScope ScopeIndex = ^ScopeIndex(0)

// The module's own scope is always the first one
const RootScope ScopeIndex = 0

type Scope struct {
	Names  helpers.NameSet
	Parent ScopeIndex
	Depth  uint32

	// Block scopes are created by "{}", "catch" and loop heads. Function
	// scopes are created by function bodies and the module itself, and also
	// receive "var" and function declarations from nested block scopes.
	IsBlock bool
}

// All scopes of one module, linked to their parents by index
type ScopeTree struct {
	Scopes []Scope
}

func NewScopeTree() ScopeTree {
	return ScopeTree{Scopes: []Scope{{Parent: InvalidScope}}}
}

func (t *ScopeTree) Push(parent ScopeIndex, isBlock bool) ScopeIndex {
	index := ScopeIndex(len(t.Scopes))
	t.Scopes = append(t.Scopes, Scope{
		Parent:  parent,
		Depth:   t.Scopes[parent].Depth + 1,
		IsBlock: isBlock,
	})
	return index
}

// Adds a name and returns the scope it was actually added to. Names that
// aren't block-scoped skip over block scopes and land in the nearest function
// scope.
func (t *ScopeTree) Declare(scope ScopeIndex, name string, isBlockScoped bool) ScopeIndex {
	if !isBlockScoped {
		for t.Scopes[scope].IsBlock {
			scope = t.Scopes[scope].Parent
		}
	}
	t.Scopes[scope].Names.Add(name)
	return scope
}

// Walks outward from the given scope and returns the first one declaring the
// name. The second return value is false when no scope declares it, which
// means it is either imported or a global.
func (t *ScopeTree) Resolve(scope ScopeIndex, name string) (ScopeIndex, bool) {
	for scope != InvalidScope {
		if t.Scopes[scope].Names.Has(name) {
			return scope, true
		}
		scope = t.Scopes[scope].Parent
	}
	return InvalidScope, false
}

// Reports whether a reference to this name at this scope means the
// module-level binding (or an undeclared one)
func (t *ScopeTree) IsModuleLevel(scope ScopeIndex, name string) bool {
	found, ok := t.Resolve(scope, name)
	return !ok || t.Scopes[found].Depth == 0
}
