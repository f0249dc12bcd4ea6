package js_ast

import (
	"testing"

	"github.com/minibundle/minibundle/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("foo"))
	assert.True(t, IsIdentifier("$foo_1"))
	assert.True(t, IsIdentifier("ünïcode"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("1foo"))
	assert.False(t, IsIdentifier("lodash/fp"))
}

func TestForceValidIdentifier(t *testing.T) {
	assert.Equal(t, "lodash_fp", ForceValidIdentifier("lodash/fp"))
	assert.Equal(t, "_babel_core", ForceValidIdentifier("@babel/core"))
	assert.Equal(t, "_d", ForceValidIdentifier("3d"))
	assert.Equal(t, "_class", ForceValidIdentifier("class"))
	assert.Equal(t, "fs", ForceValidIdentifier("fs"))
}

func TestStringValue(t *testing.T) {
	contents := `'./a' "b\"c" 'd\\e'`
	ast := AST{Nodes: []Node{
		{Loc: loc(0), End: 5},
		{Loc: loc(6), End: 12},
		{Loc: loc(13), End: 19},
	}}
	assert.Equal(t, "./a", ast.StringValue(contents, 0))
	assert.Equal(t, `b"c`, ast.StringValue(contents, 1))
	assert.Equal(t, `d\e`, ast.StringValue(contents, 2))
}

func TestKindForType(t *testing.T) {
	assert.Equal(t, KFunctionExpression, KindForType("function"))
	assert.Equal(t, KFunctionExpression, KindForType("function_expression"))
	assert.Equal(t, KOther, KindForType("binary_expression"))
	assert.True(t, KArrowFunction.IsFunctionLike())
	assert.False(t, KClass.IsFunctionLike())
}

func loc(start int32) logger.Loc {
	return logger.Loc{Start: start}
}
