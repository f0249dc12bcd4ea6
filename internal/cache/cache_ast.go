package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/minibundle/minibundle/internal/js_ast"
	"github.com/minibundle/minibundle/internal/js_parser"
	"github.com/minibundle/minibundle/internal/logger"
)

type JSCache struct {
	entries *lru.Cache[string, *jsCacheEntry]
}

type jsCacheEntry struct {
	contents string
	ast      js_ast.AST
	ok       bool
	msgs     []logger.Msg
}

func (c *JSCache) Parse(ctx context.Context, log logger.Log, source logger.Source) (js_ast.AST, bool) {
	// Cache hit
	if entry, ok := c.entries.Get(source.KeyPath); ok && entry.contents == source.Contents {
		for _, msg := range entry.msgs {
			log.AddMsg(msg)
		}
		return entry.ast, entry.ok
	}

	// Cache miss
	tempLog := logger.NewDeferLog()
	ast, ok := js_parser.Parse(ctx, tempLog, source)
	msgs := tempLog.Done()
	for _, msg := range msgs {
		log.AddMsg(msg)
	}

	// A cancelled parse says nothing about the file itself
	if ctx.Err() == nil {
		c.entries.Add(source.KeyPath, &jsCacheEntry{
			contents: source.Contents,
			ast:      ast,
			ok:       ok,
			msgs:     msgs,
		})
	}
	return ast, ok
}

func (c *JSCache) Len() int {
	return c.entries.Len()
}
