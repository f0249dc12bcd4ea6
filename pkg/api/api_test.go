package api

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibundle/minibundle/internal/fs"
	"github.com/minibundle/minibundle/internal/logger"
	"github.com/minibundle/minibundle/internal/test"
)

func buildFiles(files map[string]string, options BuildOptions) BuildResult {
	if options.EntryPoint == "" {
		options.EntryPoint = "/entry.js"
	}
	return buildWithFS(context.Background(), fs.MockFS(files), options)
}

func TestBuildAndGenerate(t *testing.T) {
	result := buildFiles(map[string]string{
		"/entry.js": "import { greet } from './greet'\nexport var message = greet('world')\n",
		"/greet.js": "export function greet(name) {\n\treturn 'hello ' + name\n}\n\nexport function unused() {}\n",
	}, BuildOptions{})
	require.Empty(t, result.Errors)
	require.Empty(t, result.Warnings)

	output := result.Generate(GenerateOptions{})
	require.Empty(t, output.Errors)
	test.AssertEqualWithDiff(t, output.Code, `'use strict'

function greet(name) {
	return 'hello ' + name
}

var message = greet('world')

exports.message = message`)

	// Generating again with other options sees the same bundle
	output = result.Generate(GenerateOptions{Exports: ExportsNone})
	require.Empty(t, output.Errors)
	require.Len(t, output.Warnings, 1)
	assert.Equal(t, `The exports mode is "none" so the exports of entry.js are ignored`, output.Warnings[0].Text)
	assert.Nil(t, output.Warnings[0].Location)
	test.AssertEqualWithDiff(t, output.Code, `'use strict'

function greet(name) {
	return 'hello ' + name
}

var message = greet('world')`)
}

func TestBuildErrorHasLocation(t *testing.T) {
	result := buildFiles(map[string]string{
		"/entry.js": "import { nope } from './a'\nnope()\n",
		"/a.js":     "export var yes = 1\n",
	}, BuildOptions{})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, Message{
		Text: "Module a.js does not export nope (imported by entry.js)",
		Location: &Location{
			File:     "entry.js",
			Line:     1,
			Column:   9,
			Length:   4,
			LineText: "import { nope } from './a'",
		},
	}, result.Errors[0])

	output := result.Generate(GenerateOptions{})
	require.Len(t, output.Errors, 1)
	assert.Equal(t, "Cannot generate code because the build failed", output.Errors[0].Text)
	assert.Empty(t, output.Code)
}

func TestGenerateError(t *testing.T) {
	result := buildFiles(map[string]string{
		"/entry.js": "export var a = 1\n",
	}, BuildOptions{})
	require.Empty(t, result.Errors)

	output := result.Generate(GenerateOptions{Exports: ExportsDefault})
	require.Len(t, output.Errors, 1)
	assert.Equal(t, `The exports mode is "default" but entry.js has no default export`, output.Errors[0].Text)
	assert.Empty(t, output.Code)
}

func TestExternalOption(t *testing.T) {
	result := buildFiles(map[string]string{
		"/entry.js": "import { h } from './h'\nexport default h\n",
		"/h.js":     "export function h() {}\n",
	}, BuildOptions{External: []string{"./h"}})
	require.Empty(t, result.Errors)

	output := result.Generate(GenerateOptions{})
	require.Empty(t, output.Errors)
	test.AssertEqualWithDiff(t, output.Code, "'use strict'\n\nvar __h = require('./h')\n\nmodule.exports = __h.h")
}

func TestBuildFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("import { two } from './two'\nconsole.log(two)\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.js"), []byte("export const two = 2\n"), 0644))

	result := Build(BuildOptions{EntryPoint: filepath.Join(dir, "main")})
	require.Empty(t, result.Errors)

	output := result.Generate(GenerateOptions{})
	require.Empty(t, output.Errors)
	test.AssertEqualWithDiff(t, output.Code, "'use strict'\n\nconst two = 2\nconsole.log(two)")
}

func TestMessagesOfKind(t *testing.T) {
	msgs := []logger.Msg{
		{Kind: logger.Warning, Text: "first warning"},
		{Kind: logger.Error, Text: "an error", Location: &logger.MsgLocation{File: "a.js", Line: 3, Column: 1, Length: 2, LineText: "x = 1"}},
		{Kind: logger.Warning, Text: "second warning"},
	}
	assert.Equal(t, []Message{{Text: "first warning"}, {Text: "second warning"}}, messagesOfKind(logger.Warning, msgs))
	assert.Equal(t, []Message{{
		Text:     "an error",
		Location: &Location{File: "a.js", Line: 3, Column: 1, Length: 2, LineText: "x = 1"},
	}}, messagesOfKind(logger.Error, msgs))
}
