package bundler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibundle/minibundle/internal/cache"
	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/fs"
	"github.com/minibundle/minibundle/internal/graph"
	"github.com/minibundle/minibundle/internal/logger"
)

func build(t *testing.T, files map[string]string, options config.Options) (*Bundle, error) {
	t.Helper()
	if options.EntryPath == "" {
		options.EntryPath = "/entry.js"
	}
	return Build(context.Background(), fs.MockFS(files), nil, options)
}

// Describes each included statement as "<file>: <code>"
func statementsOf(b *Bundle) []string {
	var result []string
	for _, ref := range b.Graph.Statements {
		source := &b.Graph.Files[ref.SourceIndex].Source
		module := b.Graph.Module(ref.SourceIndex)
		node := module.AST.Node(module.Stmts[ref.Stmt].Node)
		result = append(result, source.PrettyPath+": "+source.Contents[node.Loc.Start:node.End])
	}
	return result
}

func TestTreeShaking(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import { add } from './math'\nconsole.log(add(1, 2))\n",
		"/math.js":  "import { check } from './check'\nexport function add(a, b) { return check(a) + b }\nexport function unused() { return 0 }\n",
		"/check.js": "export function check(x) { return x }\nexport var other = 1\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"check.js: export function check(x) { return x }",
		"math.js: export function add(a, b) { return check(a) + b }",
		"entry.js: console.log(add(1, 2))",
	}, statementsOf(b))
	assert.Equal(t, uint32(0), b.Graph.EntryPoint)
	assert.Len(t, b.Graph.Files, 3)
}

func TestModificationsAreIncluded(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import { obj } from './a'\nconsole.log(obj)\n",
		"/a.js":     "export var obj = {}\nobj.ready = true\nvar other = 1\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.js: export var obj = {}",
		"a.js: obj.ready = true",
		"entry.js: console.log(obj)",
	}, statementsOf(b))
}

func TestEntryExportListIsIncluded(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import { b } from './b'\nvar a = 1\nvar unused = 2\nexport { a, b }\n",
		"/b.js":     "export var b = 2\nvar local = 3\nexport { local }\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"entry.js: var a = 1",
		"entry.js: var unused = 2",
		"b.js: export var b = 2",
		"entry.js: export { a, b }",
	}, statementsOf(b))
}

func TestNamespaceImportIncludesEverything(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import * as ns from './m'\nconsole.log(ns.a)\n",
		"/m.js":     "export var a = 1\nvar b = 2\nexport { c } from './c'\n",
		"/c.js":     "export var c = 3\nvar d = 4\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"m.js: export var a = 1",
		"m.js: var b = 2",
		"c.js: export var c = 3",
		"entry.js: console.log(ns.a)",
	}, statementsOf(b))
	require.Len(t, b.Graph.NamespaceModules, 1)
	m := b.Graph.NamespaceModules[0]
	assert.Equal(t, "/m.js", b.Graph.Files[m].Source.KeyPath)
	assert.Equal(t, "ns", b.Names.NamespaceName(m))
}

func TestImportCycle(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import { b } from './b'\nexport function a() { return b() }\na()\n",
		"/b.js":     "import { a } from './entry'\nexport function b() { return a }\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"b.js: export function b() { return a }",
		"entry.js: export function a() { return b() }",
		"entry.js: a()",
	}, statementsOf(b))
}

func TestSameFileThroughDifferentSpecifiers(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js":     "import { x } from './lib/x'\nimport { y } from './lib/y.js'\nconsole.log(x, y)\n",
		"/lib/x.js":     "import { shared } from '../shared'\nexport var x = shared\n",
		"/lib/y.js":     "import { shared } from './../shared.js'\nexport var y = shared\n",
		"/shared.js":    "export var shared = {}\n",
		"/lib/other.js": "export var never = 1\n",
	}, config.Options{})
	require.NoError(t, err)

	count := 0
	for _, file := range b.Graph.Files {
		if file.Source.KeyPath == "/shared.js" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, b.Graph.Files, 4)
	assert.Equal(t, []string{
		"shared.js: export var shared = {}",
		"lib/x.js: export var x = shared",
		"lib/y.js: export var y = shared",
		"entry.js: console.log(x, y)",
	}, statementsOf(b))
}

func TestExternalModulesInDemandOrder(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import a from 'alpha'\nimport { b } from 'beta'\nimport * as g from 'gamma'\nconsole.log(g, b, a)\n",
	}, config.Options{})
	require.NoError(t, err)

	var ids []string
	for _, sourceIndex := range b.Graph.ExternalModules {
		external := b.Graph.External(sourceIndex)
		ids = append(ids, external.ID)
	}
	assert.Equal(t, []string{"gamma", "beta", "alpha"}, ids)

	alpha := b.Graph.External(b.Graph.ExternalModules[2])
	assert.True(t, alpha.NeedsDefault)
	assert.False(t, alpha.NeedsNamed)
	assert.Equal(t, "a", alpha.Name)

	beta := b.Graph.External(b.Graph.ExternalModules[1])
	assert.False(t, beta.NeedsDefault)
	assert.True(t, beta.NeedsNamed)
	assert.Equal(t, "beta", beta.Name)
}

func TestMissingExport(t *testing.T) {
	_, err := build(t, map[string]string{
		"/entry.js": "import { nope } from './a'\nnope()\n",
		"/a.js":     "export var yes = 1\n",
	}, config.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExport))
	assert.Equal(t, "entry.js: Module a.js does not export nope (imported by entry.js)", err.Error())

	var buildErr *Error
	require.True(t, errors.As(err, &buildErr))
	require.NotNil(t, buildErr.Msg.Location)
	assert.Equal(t, 1, buildErr.Msg.Location.Line)
	assert.Equal(t, 9, buildErr.Msg.Location.Column)
}

func TestMissingModule(t *testing.T) {
	_, err := build(t, map[string]string{
		"/entry.js": "import { x } from './missing'\nx()\n",
	}, config.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
	assert.True(t, fs.IsNotExist(err))
	assert.Equal(t, `entry.js: Could not resolve "missing.js" (imported by entry.js)`, err.Error())
}

func TestMissingEntryModule(t *testing.T) {
	_, err := build(t, map[string]string{}, config.Options{EntryPath: "/src/main"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
	assert.Equal(t, `Could not read entry module "src/main.js"`, err.Error())
}

func TestUnusedMissingModuleIsIgnored(t *testing.T) {
	b, err := build(t, map[string]string{
		"/entry.js": "import { x } from './missing'\nconsole.log(1)\n",
	}, config.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"entry.js: console.log(1)"}, statementsOf(b))
}

func TestParseError(t *testing.T) {
	_, err := build(t, map[string]string{
		"/entry.js":  "import { x } from './broken'\nx()\n",
		"/broken.js": "export var x = (\n",
	}, config.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
}

func TestStarReExportIsUnsupported(t *testing.T) {
	_, err := build(t, map[string]string{
		"/entry.js": "export * from './a'\n",
		"/a.js":     "export var a = 1\n",
	}, config.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSyntax))
	assert.Equal(t, "entry.js: Star re-exports are not supported", err.Error())
}

func TestAnalysisErrorSentinels(t *testing.T) {
	location := &logger.MsgLocation{File: "entry.js", Line: 2, Length: 31, LineText: "export default function f() {"}
	err := errorFromAnalysis(&graph.AnalyseError{Kind: graph.UnhandledExport, Msg: logger.Msg{
		Kind:     logger.Error,
		Text:     `Unhandled export form "export default function f() {"`,
		Location: location,
	}})
	assert.True(t, errors.Is(err, ErrUnhandledExport))
	assert.Same(t, location, err.Msg.Location)
	assert.Equal(t, `entry.js: Unhandled export form "export default function f() {"`, err.Error())

	err = errorFromAnalysis(&graph.AnalyseError{Kind: graph.UnsupportedSyntax})
	assert.True(t, errors.Is(err, ErrUnsupportedSyntax))
}

func TestExternalEntryPoint(t *testing.T) {
	_, err := build(t, map[string]string{}, config.Options{EntryPath: "react", Externals: []string{"react"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolve))
}

func TestExpandStatementIsIdempotent(t *testing.T) {
	options := config.Options{}
	s := newScanner(context.Background(), fs.MockFS(map[string]string{
		"/entry.js": "var a = 1\nvar b = a + 1\n",
	}), cache.MakeCacheSet(), &options)
	defer s.prefetch.Wait()

	entry, err := s.fetchModule("/entry.js", nil, logger.Range{})
	require.Nil(t, err)

	first, err := s.expandStatement(entry, 1)
	require.Nil(t, err)
	assert.Equal(t, []graph.StmtRef{{SourceIndex: entry, Stmt: 0}, {SourceIndex: entry, Stmt: 1}}, first)

	second, err := s.expandStatement(entry, 1)
	require.Nil(t, err)
	assert.Empty(t, second)

	third, err := s.define(entry, "a")
	require.Nil(t, err)
	assert.Empty(t, third)
}

func TestConcurrentFetchesShareOneModule(t *testing.T) {
	options := config.Options{}
	s := newScanner(context.Background(), fs.MockFS(map[string]string{
		"/entry.js": "export var a = 1\n",
	}), cache.MakeCacheSet(), &options)

	results := make([]uint32, 16)
	wait := sync.WaitGroup{}
	for i := range results {
		wait.Add(1)
		go func(i int) {
			defer wait.Done()
			sourceIndex, err := s.fetchModule("/entry.js", nil, logger.Range{})
			assert.Nil(t, err)
			results[i] = sourceIndex
		}(i)
	}
	wait.Wait()
	s.prefetch.Wait()

	for _, sourceIndex := range results {
		assert.Equal(t, results[0], sourceIndex)
	}
	assert.Len(t, s.files, 1)
}

func TestCacheIsReusedAcrossBuilds(t *testing.T) {
	files := fs.MockFS(map[string]string{
		"/entry.js": "import { a } from './a'\nconsole.log(a)\n",
		"/a.js":     "export var a = 1\n",
	})
	caches := cache.MakeCacheSet()

	first, err := Build(context.Background(), files, caches, config.Options{EntryPath: "/entry.js"})
	require.NoError(t, err)
	assert.Equal(t, 2, caches.JSCache.Len())

	second, err := Build(context.Background(), files, caches, config.Options{EntryPath: "/entry.js"})
	require.NoError(t, err)
	assert.Equal(t, 2, caches.JSCache.Len())
	assert.Equal(t, statementsOf(first), statementsOf(second))

	// Every build gets its own modules even when the syntax trees are shared
	assert.NotSame(t, first.Graph.Module(0), second.Graph.Module(0))
}
