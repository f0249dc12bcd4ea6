package ast

// This file contains the handle types shared by the graph, the bundler and
// the printer. Modules are owned by one arena per build and are referenced by
// index everywhere else.

import (
	"strings"

	"github.com/minibundle/minibundle/internal/logger"
)

type ImportKind uint8

const (
	// An entry point provided by the user
	ImportEntryPoint ImportKind = iota

	// An ES6 import statement with at least one binding
	ImportStmt

	// An "export { a } from 'path'" statement
	ImportReExport
)

func (kind ImportKind) String() string {
	switch kind {
	case ImportEntryPoint:
		return "entry-point"
	case ImportStmt:
		return "import-statement"
	case ImportReExport:
		return "re-export"
	default:
		panic("Internal error")
	}
}

type ImportRecord struct {
	// The location of the specifier string, including the quotes
	Range logger.Range

	// The specifier exactly as written in the source code
	Path string

	// The module this record resolved to. This is only valid once the record
	// has been demanded by tree shaking.
	SourceIndex Index32

	Kind ImportKind
}

// This stores a 32-bit index where the zero value is an invalid index. This is
// a better alternative to storing the index as a pointer since that has the
// same properties but takes up more space and costs an extra pointer traversal.
type Index32 struct {
	flippedBits uint32
}

func MakeIndex32(index uint32) Index32 {
	return Index32{flippedBits: ^index}
}

func (i Index32) IsValid() bool {
	return i.flippedBits != 0
}

func (i Index32) GetIndex() uint32 {
	return ^i.flippedBits
}

// Splits a path into directory, base name and extension. Both kinds of slash
// are accepted and trailing slashes are ignored.
func PlatformIndependentPathDirBaseExt(path string) (dir string, base string, ext string) {
	for {
		i := strings.LastIndexAny(path, "/\\")
		if i < 0 {
			base = path
			break
		}
		if i+1 != len(path) {
			dir, base = path[:i], path[i+1:]
			break
		}
		path = path[:i]
	}

	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		base, ext = base[:dot], base[dot:]
	}
	return
}

// Names for synthesized bindings such as an anonymous default export are
// derived from the file name, so "src/math.js" gives "math". These names are
// not unique and still go through deconfliction like every other binding.
func GenerateNonUniqueNameFromPath(path string) string {
	dir, base, _ := PlatformIndependentPathDirBaseExt(path)

	// "lib/index.js" is more recognizable as "lib"
	if base == "index" {
		if _, dirBase, _ := PlatformIndependentPathDirBaseExt(dir); dirBase != "" {
			base = dirBase
		}
	}

	// ASCII only, runs of other characters collapse into one underscore
	sb := strings.Builder{}
	needsGap := false
	for _, c := range base {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (sb.Len() > 0 && c >= '0' && c <= '9') {
			if needsGap {
				sb.WriteByte('_')
				needsGap = false
			}
			sb.WriteRune(c)
		} else if sb.Len() > 0 {
			needsGap = true
		}
	}

	if sb.Len() == 0 {
		return "_"
	}
	return sb.String()
}
