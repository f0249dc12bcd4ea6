package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/minibundle/minibundle/internal/helpers"
)

type Options struct {
	// The path of the entry module as given by the user. A missing ".js"
	// extension is added automatically.
	EntryPath string

	// Specifiers in this list are always treated as external modules, even
	// when a file with that name exists
	Externals []string

	// Receives operational tracing. The zero value discards everything.
	Logger zerolog.Logger

	Timer *helpers.Timer
}

func (options *Options) IsExternal(specifier string) bool {
	for _, external := range options.Externals {
		if external == specifier {
			return true
		}
	}
	return false
}

type ExportsMode uint8

const (
	// Pick "none", "default" or "named" from the entry module's exports
	ExportsAuto ExportsMode = iota

	// "module.exports = <default export>"
	ExportsDefault

	// One "exports.<name> = <binding>" per export
	ExportsNamed

	// Nothing is exported
	ExportsNone
)

func (mode ExportsMode) String() string {
	switch mode {
	case ExportsAuto:
		return "auto"
	case ExportsDefault:
		return "default"
	case ExportsNamed:
		return "named"
	case ExportsNone:
		return "none"
	default:
		panic("Internal error")
	}
}

func ParseExportsMode(text string) (ExportsMode, error) {
	switch text {
	case "", "auto":
		return ExportsAuto, nil
	case "default":
		return ExportsDefault, nil
	case "named":
		return ExportsNamed, nil
	case "none":
		return ExportsNone, nil
	default:
		return ExportsAuto, fmt.Errorf("Invalid exports mode %q (valid: auto, default, named, none)", text)
	}
}

// Decides the exports mode from the names the entry module exports. An
// explicit mode is returned unchanged.
func ResolveExportsMode(mode ExportsMode, exportNames []string) ExportsMode {
	if mode != ExportsAuto {
		return mode
	}
	switch {
	case len(exportNames) == 0:
		return ExportsNone
	case len(exportNames) == 1 && exportNames[0] == "default":
		return ExportsDefault
	default:
		return ExportsNamed
	}
}

type GenerateOptions struct {
	Exports ExportsMode

	Timer *helpers.Timer
}
