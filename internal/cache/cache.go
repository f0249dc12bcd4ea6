package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// This is a cache of the contents and parsed ASTs of a set of files. The idea
// is to be able to reuse the results of parsing between builds and make
// subsequent builds faster by avoiding redundant work. This only works if:
//
//   - The AST information in the cache must be considered immutable. There is
//     no way to enforce this in Go, but please be disciplined about this. The
//     ASTs are shared in between builds. Everything the bundler derives from
//     an AST lives in side tables owned by a single build.
//
//   - The information in the cache must not depend at all on the contents of
//     any file other than the file being cached. Invalidating an entry in the
//     cache does not also invalidate any entries that depend on that file.
//
// Both caches are bounded so a long-running process that bundles many
// unrelated projects doesn't grow without limit.
type CacheSet struct {
	FSCache FSCache
	JSCache JSCache
}

const DefaultCacheSize = 1024

func MakeCacheSet() *CacheSet {
	return MakeCacheSetWithSize(DefaultCacheSize)
}

func MakeCacheSetWithSize(size int) *CacheSet {
	fsEntries, err := lru.New[string, *fsEntry](size)
	if err != nil {
		panic("Internal error: " + err.Error())
	}
	jsEntries, err := lru.New[string, *jsCacheEntry](size)
	if err != nil {
		panic("Internal error: " + err.Error())
	}
	return &CacheSet{
		FSCache: FSCache{entries: fsEntries},
		JSCache: JSCache{entries: jsEntries},
	}
}
