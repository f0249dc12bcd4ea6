// This API exposes the bundler as a library. A build loads the module graph
// once and the result can then generate code any number of times:
//
//	result := api.Build(api.BuildOptions{
//		EntryPoint: "src/main.js",
//		External:   []string{"react"},
//	})
//	if len(result.Errors) > 0 {
//		os.Exit(1)
//	}
//	output := result.Generate(api.GenerateOptions{Exports: api.ExportsNamed})
//
// Error and warning messages are also written to stderr unless the log level
// is "silent".
package api

import (
	"github.com/rs/zerolog"

	"github.com/minibundle/minibundle/internal/bundler"
)

type Location struct {
	File     string
	Line     int // 1-based
	Column   int // 0-based, in bytes
	Length   int // in bytes
	LineText string
}

type Message struct {
	Text     string
	Location *Location
}

type StderrColor uint8

const (
	ColorIfTerminal StderrColor = iota
	ColorNever
	ColorAlways
)

type LogLevel uint8

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

type ExportsMode uint8

const (
	ExportsAuto ExportsMode = iota
	ExportsDefault
	ExportsNamed
	ExportsNone
)

////////////////////////////////////////////////////////////////////////////////
// Build API

type BuildOptions struct {
	Color      StderrColor
	ErrorLimit int
	LogLevel   LogLevel

	// Receives tracing and timing information at debug level. The zero value
	// discards everything.
	Logger zerolog.Logger

	EntryPoint string
	External   []string
}

type BuildResult struct {
	Errors   []Message
	Warnings []Message

	bundle  *bundler.Bundle
	options BuildOptions
}

func Build(options BuildOptions) BuildResult {
	return buildImpl(options)
}

////////////////////////////////////////////////////////////////////////////////
// Generate API

type GenerateOptions struct {
	Exports ExportsMode
}

type GenerateResult struct {
	Errors   []Message
	Warnings []Message

	Code string
}

// Prints the bundle as a CommonJS module. This doesn't modify the build
// result, so it can be called repeatedly with different options.
func (result *BuildResult) Generate(options GenerateOptions) GenerateResult {
	return generateImpl(result, options)
}
