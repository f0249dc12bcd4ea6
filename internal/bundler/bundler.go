package bundler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/minibundle/minibundle/internal/ast"
	"github.com/minibundle/minibundle/internal/cache"
	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/fs"
	"github.com/minibundle/minibundle/internal/graph"
	"github.com/minibundle/minibundle/internal/logger"
	"github.com/minibundle/minibundle/internal/renamer"
)

// The outcome of loading one path, successful or not. Failures are kept too
// so that a prefetch which failed is only reported if something actually
// imports from that module.
type fetchResult struct {
	sourceIndex uint32
	err         *Error
}

// One scanner is used for exactly one build. Everything it creates is owned
// by the resulting graph.
type scanner struct {
	ctx     context.Context
	fs      fs.FS
	caches  *cache.CacheSet
	options *config.Options
	log     zerolog.Logger

	// These are shared with prefetch goroutines
	mutex    sync.Mutex
	files    []graph.InputFile
	visited  map[string]fetchResult
	inflight singleflight.Group
	prefetch sync.WaitGroup

	// Everything below is only touched by the goroutine running tree shaking
	defined          map[defineKey]bool
	externalModules  []uint32
	namespaceModules []uint32
	seenExternal     map[uint32]bool
	seenNamespace    map[uint32]bool
}

// The result of a build. It can be printed any number of times.
type Bundle struct {
	Graph *graph.LinkerGraph
	Names *renamer.Names
}

// Loads the entry module and everything it transitively needs, then keeps
// only the statements that are reachable from the entry module. The bundle
// that is returned has already been deconflicted and is ready to print.
func Build(ctx context.Context, fs fs.FS, caches *cache.CacheSet, options config.Options) (*Bundle, error) {
	if caches == nil {
		caches = cache.MakeCacheSet()
	}
	s := newScanner(ctx, fs, caches, &options)

	// Prefetches may still be running when tree shaking fails, and they must
	// not outlive the build
	defer s.prefetch.Wait()

	timer := options.Timer
	timer.Begin("Build")
	defer timer.End("Build")

	timer.Begin("Fetch entry module")
	entryPoint, err := s.fetchModule(options.EntryPath, nil, logger.Range{})
	timer.End("Fetch entry module")
	if err != nil {
		return nil, err
	}
	if s.external(entryPoint) != nil {
		return nil, NewError(ErrResolve, nil, logger.Range{},
			fmt.Sprintf("The entry point %q cannot be an external module", options.EntryPath))
	}

	timer.Begin("Expand statements")
	statements, err := s.expandAllStatements(entryPoint, true)
	timer.End("Expand statements")
	if err != nil {
		return nil, err
	}
	s.prefetch.Wait()

	s.mutex.Lock()
	files := s.files
	s.mutex.Unlock()

	g := &graph.LinkerGraph{
		Files:            files,
		EntryPoint:       entryPoint,
		Statements:       statements,
		ExternalModules:  s.externalModules,
		NamespaceModules: s.namespaceModules,
	}
	s.log.Debug().
		Int("files", len(files)).
		Int("statements", len(statements)).
		Int("externals", len(s.externalModules)).
		Msg("Expanded module graph")

	timer.Begin("Deconflict names")
	names, renames, renameErr := renamer.Deconflict(g)
	timer.End("Deconflict names")
	if renameErr != nil {
		return nil, &Error{Err: ErrInternal, Msg: logger.Msg{Kind: logger.Error, Text: renameErr.Error()}}
	}
	s.log.Debug().Int("renamed", renames).Msg("Deconflicted names")

	return &Bundle{Graph: g, Names: names}, nil
}

func newScanner(ctx context.Context, fs fs.FS, caches *cache.CacheSet, options *config.Options) *scanner {
	return &scanner{
		ctx:           ctx,
		fs:            fs,
		caches:        caches,
		options:       options,
		log:           options.Logger,
		visited:       make(map[string]fetchResult),
		defined:       make(map[defineKey]bool),
		seenExternal:  make(map[uint32]bool),
		seenNamespace: make(map[uint32]bool),
	}
}

func (s *scanner) source(sourceIndex uint32) *logger.Source {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return &s.files[sourceIndex].Source
}

func (s *scanner) repr(sourceIndex uint32) graph.InputFileRepr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.files[sourceIndex].Repr
}

func (s *scanner) module(sourceIndex uint32) *graph.Module {
	module, _ := s.repr(sourceIndex).(*graph.Module)
	return module
}

func (s *scanner) external(sourceIndex uint32) *graph.ExternalModule {
	external, _ := s.repr(sourceIndex).(*graph.ExternalModule)
	return external
}

func (s *scanner) addFile(source logger.Source, repr graph.InputFileRepr) uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sourceIndex := uint32(len(s.files))
	source.Index = sourceIndex
	s.files = append(s.files, graph.InputFile{Source: source, Repr: repr})
	return sourceIndex
}

func isRelative(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// Turns a specifier into the key of the module it refers to. Modules are
// keyed by absolute path and external modules by the specifier itself.
func (s *scanner) resolve(specifier string, importer *logger.Source) (key string, isExternal bool) {
	if s.options.IsExternal(specifier) {
		return specifier, true
	}

	var path string
	switch {
	case importer == nil:
		// The entry point is relative to the working directory
		path, _ = s.fs.Abs(specifier)

	case s.fs.IsAbs(specifier):
		path = specifier

	case isRelative(specifier):
		path = s.fs.Join(s.fs.Dir(importer.KeyPath), specifier)

	default:
		return specifier, true
	}

	if s.fs.Ext(path) == "" {
		path += ".js"
	}
	return path, false
}

// This is the only place modules are created. Every specifier that resolves
// to the same key shares one module, even when several goroutines ask for it
// at the same time.
func (s *scanner) fetchModule(specifier string, importer *logger.Source, importRange logger.Range) (uint32, *Error) {
	key, isExternal := s.resolve(specifier, importer)

	s.mutex.Lock()
	result, ok := s.visited[key]
	s.mutex.Unlock()

	if !ok {
		value, _, _ := s.inflight.Do(key, func() (interface{}, error) {
			// Another goroutine may have finished this key between the check
			// above and entering the flight
			s.mutex.Lock()
			result, ok := s.visited[key]
			s.mutex.Unlock()
			if ok {
				return result, nil
			}

			if isExternal {
				result = s.loadExternal(key)
			} else {
				result = s.loadModule(key, importer, importRange)
			}

			s.mutex.Lock()
			s.visited[key] = result
			s.mutex.Unlock()
			return result, nil
		})
		result = value.(fetchResult)
	}

	return result.sourceIndex, result.err
}

func (s *scanner) loadExternal(key string) fetchResult {
	sourceIndex := s.addFile(logger.Source{KeyPath: key, PrettyPath: key}, &graph.ExternalModule{ID: key})
	s.log.Debug().Str("id", key).Msg("Added external module")
	return fetchResult{sourceIndex: sourceIndex}
}

func (s *scanner) prettyPath(path string) string {
	if rel, ok := s.fs.Rel(s.fs.Cwd(), path); ok && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func (s *scanner) loadModule(key string, importer *logger.Source, importRange logger.Range) fetchResult {
	if err := s.ctx.Err(); err != nil {
		return fetchResult{err: &Error{Err: err, Msg: logger.Msg{Kind: logger.Error, Text: "The build was cancelled"}}}
	}

	contents, err := s.caches.FSCache.ReadFile(s.fs, key)
	if err != nil {
		prettyPath := s.prettyPath(key)
		if importer == nil {
			return fetchResult{err: NewError(fmt.Errorf("%w: %w", ErrResolve, err), nil, logger.Range{},
				fmt.Sprintf("Could not read entry module %q", prettyPath))}
		}
		return fetchResult{err: NewError(fmt.Errorf("%w: %w", ErrResolve, err), importer, importRange,
			fmt.Sprintf("Could not resolve %q (imported by %s)", prettyPath, importer.PrettyPath))}
	}

	source := logger.Source{
		KeyPath:        key,
		PrettyPath:     s.prettyPath(key),
		IdentifierName: ast.GenerateNonUniqueNameFromPath(key),
		Contents:       contents,
	}

	parseLog := logger.NewDeferLog()
	tree, ok := s.caches.JSCache.Parse(s.ctx, parseLog, source)
	if !ok {
		for _, msg := range parseLog.Done() {
			if msg.Kind == logger.Error {
				return fetchResult{err: &Error{Err: ErrParse, Msg: msg}}
			}
		}
		return fetchResult{err: NewError(ErrParse, &source, logger.Range{}, "Could not parse "+source.PrettyPath)}
	}

	module, analyseErr := graph.Analyse(&source, tree)
	if analyseErr != nil {
		return fetchResult{err: errorFromAnalysis(analyseErr)}
	}

	sourceIndex := s.addFile(source, module)
	source.Index = sourceIndex
	s.log.Debug().
		Str("path", source.PrettyPath).
		Uint32("source", sourceIndex).
		Int("statements", len(module.Stmts)).
		Msg("Loaded module")

	// Start loading everything this module imports. Tree shaking will ask for
	// these in order later on and by then they are hopefully done. The paths
	// are copied here because tree shaking writes to the import records.
	records := *module.ImportRecords()
	specifiers := make([]string, len(records))
	ranges := make([]logger.Range, len(records))
	for i, record := range records {
		specifiers[i] = record.Path
		ranges[i] = record.Range
	}
	for i := range specifiers {
		s.prefetch.Add(1)
		go func(specifier string, r logger.Range) {
			defer s.prefetch.Done()
			s.fetchModule(specifier, &source, r)
		}(specifiers[i], ranges[i])
	}

	return fetchResult{sourceIndex: sourceIndex}
}

func errorFromAnalysis(err *graph.AnalyseError) *Error {
	sentinel := ErrUnhandledExport
	if err.Kind == graph.UnsupportedSyntax {
		sentinel = ErrUnsupportedSyntax
	}
	return &Error{Err: sentinel, Msg: err.Msg}
}
