package api

import (
	"context"
	"errors"

	"github.com/minibundle/minibundle/internal/bundler"
	"github.com/minibundle/minibundle/internal/cache"
	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/fs"
	"github.com/minibundle/minibundle/internal/helpers"
	"github.com/minibundle/minibundle/internal/logger"
	"github.com/minibundle/minibundle/internal/printer"
)

// Parsed files are shared between every build in this process
var caches = cache.MakeCacheSet()

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	case LogLevelSilent:
		return logger.LevelSilent
	default:
		panic("Invalid log level")
	}
}

func validateExportsMode(value ExportsMode) config.ExportsMode {
	switch value {
	case ExportsAuto:
		return config.ExportsAuto
	case ExportsDefault:
		return config.ExportsDefault
	case ExportsNamed:
		return config.ExportsNamed
	case ExportsNone:
		return config.ExportsNone
	default:
		panic("Invalid exports mode")
	}
}

func messagesOfKind(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind == kind {
			var location *Location

			if msg.Location != nil {
				location = &Location{
					File:     msg.Location.File,
					Line:     msg.Location.Line,
					Column:   msg.Location.Column,
					Length:   msg.Location.Length,
					LineText: msg.Location.LineText,
				}
			}

			filtered = append(filtered, Message{
				Text:     msg.Text,
				Location: location,
			})
		}
	}
	return filtered
}

func newLog(options BuildOptions) logger.Log {
	if options.LogLevel == LogLevelSilent {
		return logger.NewDeferLog()
	}
	return logger.NewStderrLog(logger.StderrOptions{
		IncludeSource: true,
		ErrorLimit:    options.ErrorLimit,
		Color:         validateColor(options.Color),
		LogLevel:      validateLogLevel(options.LogLevel),
	})
}

// Errors that didn't come from the bundler still end up in the log, just
// without a location
func addError(log logger.Log, err error) {
	var bundleErr *bundler.Error
	if errors.As(err, &bundleErr) {
		log.AddMsg(bundleErr.Msg)
		return
	}
	log.AddMsg(logger.Msg{Kind: logger.Error, Text: err.Error()})
}

////////////////////////////////////////////////////////////////////////////////
// Build API

func buildImpl(options BuildOptions) BuildResult {
	return buildWithFS(context.Background(), fs.RealFS(), options)
}

func buildWithFS(ctx context.Context, fileSystem fs.FS, options BuildOptions) BuildResult {
	log := newLog(options)
	timer := &helpers.Timer{}

	b, err := bundler.Build(ctx, fileSystem, caches, config.Options{
		EntryPath: options.EntryPoint,
		Externals: append([]string{}, options.External...),
		Logger:    options.Logger,
		Timer:     timer,
	})
	if err != nil {
		addError(log, err)
		b = nil
	}
	timer.Log(options.Logger)

	msgs := log.Done()
	return BuildResult{
		Errors:   messagesOfKind(logger.Error, msgs),
		Warnings: messagesOfKind(logger.Warning, msgs),
		bundle:   b,
		options:  options,
	}
}

////////////////////////////////////////////////////////////////////////////////
// Generate API

func generateImpl(result *BuildResult, options GenerateOptions) GenerateResult {
	if result.bundle == nil {
		return GenerateResult{Errors: []Message{{Text: "Cannot generate code because the build failed"}}}
	}

	log := newLog(result.options)
	timer := &helpers.Timer{}

	code, err := printer.Print(log, result.bundle, config.GenerateOptions{
		Exports: validateExportsMode(options.Exports),
		Timer:   timer,
	})
	if err != nil {
		addError(log, err)
		code = ""
	}
	timer.Log(result.options.Logger)

	msgs := log.Done()
	return GenerateResult{
		Errors:   messagesOfKind(logger.Error, msgs),
		Warnings: messagesOfKind(logger.Warning, msgs),
		Code:     code,
	}
}
