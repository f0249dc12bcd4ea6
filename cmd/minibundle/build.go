package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/exitcode"
	"github.com/minibundle/minibundle/pkg/api"
)

type buildFlags struct {
	outfile    string
	exports    string
	external   []string
	configPath string
	logLevel   string
	color      string
	errorLimit int
	verbose    bool
}

func buildCmd() *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build [entry]",
		Short: "Bundle an entry module and everything it imports",
		Long: `Bundle an entry module and everything it imports.

Settings are read from minibundle.yaml when it exists, then from the
environment (MINIBUNDLE_LOG_LEVEL, also loaded from .env), and finally from
the flags given here.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := resolveProject(cmd, flags, args)
			if err != nil {
				return err
			}
			return runBuild(project, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outfile, "outfile", "o", "", "Write the bundle to this file instead of stdout")
	cmd.Flags().StringVar(&flags.exports, "exports", "", "How the entry module's exports are exposed (auto, default, named, none)")
	cmd.Flags().StringArrayVar(&flags.external, "external", nil, "Never bundle this specifier (can be repeated)")
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", config.ProjectFileName, "Project file to read settings from")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Diagnostics to show (silent, error, warning, info, debug)")
	cmd.Flags().StringVar(&flags.color, "color", "", "Force terminal colors on or off (true or false)")
	cmd.Flags().IntVar(&flags.errorLimit, "error-limit", 10, "Maximum error count or 0 to disable")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log what the bundler is doing (same as --log-level=debug)")

	return cmd
}

// Flags win over the environment, which wins over the project file
func resolveProject(cmd *cobra.Command, flags buildFlags, args []string) (*config.Project, error) {
	project, err := config.LoadProject(flags.configPath)
	if err != nil {
		return nil, exitcode.Usage(fmt.Errorf("failed to load %s: %w", flags.configPath, err))
	}
	project.ApplyEnv()

	overrides := &config.Project{
		Outfile:  flags.outfile,
		External: flags.external,
	}
	if len(args) > 0 {
		overrides.Entry = args[0]
	}
	if cmd.Flags().Changed("exports") {
		overrides.Exports = flags.exports
	}
	if cmd.Flags().Changed("log-level") {
		overrides.LogLevel = flags.logLevel
	}
	if flags.verbose {
		overrides.LogLevel = "debug"
	}
	project.Merge(overrides)

	if project.Entry == "" {
		return nil, exitcode.Usage(fmt.Errorf("no entry module (pass one as an argument or set \"entry\" in %s)", flags.configPath))
	}
	return project, nil
}

func parseLogLevel(text string) (api.LogLevel, zerolog.Level, error) {
	switch text {
	case "silent":
		return api.LogLevelSilent, zerolog.Disabled, nil
	case "error":
		return api.LogLevelError, zerolog.ErrorLevel, nil
	case "", "warning":
		return api.LogLevelWarning, zerolog.WarnLevel, nil
	case "info":
		return api.LogLevelInfo, zerolog.InfoLevel, nil
	case "debug":
		return api.LogLevelInfo, zerolog.DebugLevel, nil
	default:
		return api.LogLevelWarning, zerolog.WarnLevel,
			fmt.Errorf("Invalid log level %q (valid: silent, error, warning, info, debug)", text)
	}
}

func parseColor(text string) (api.StderrColor, error) {
	switch text {
	case "":
		return api.ColorIfTerminal, nil
	case "true":
		return api.ColorAlways, nil
	case "false":
		return api.ColorNever, nil
	default:
		return api.ColorIfTerminal, fmt.Errorf("Invalid color %q (valid: true, false)", text)
	}
}

func parseExportsMode(text string) (api.ExportsMode, error) {
	mode, err := config.ParseExportsMode(text)
	if err != nil {
		return api.ExportsAuto, err
	}
	switch mode {
	case config.ExportsDefault:
		return api.ExportsDefault, nil
	case config.ExportsNamed:
		return api.ExportsNamed, nil
	case config.ExportsNone:
		return api.ExportsNone, nil
	default:
		return api.ExportsAuto, nil
	}
}

func runBuild(project *config.Project, flags buildFlags) error {
	logLevel, traceLevel, err := parseLogLevel(project.LogLevel)
	if err != nil {
		return exitcode.Usage(err)
	}
	color, err := parseColor(flags.color)
	if err != nil {
		return exitcode.Usage(err)
	}
	exports, err := parseExportsMode(project.Exports)
	if err != nil {
		return exitcode.Usage(err)
	}

	trace := log.Logger.Level(traceLevel)
	trace.Debug().
		Str("entry", project.Entry).
		Strs("external", project.External).
		Str("exports", project.Exports).
		Msg("Starting build")

	result := api.Build(api.BuildOptions{
		Color:      color,
		ErrorLimit: flags.errorLimit,
		LogLevel:   logLevel,
		Logger:     trace,
		EntryPoint: project.Entry,
		External:   project.External,
	})
	if len(result.Errors) > 0 {
		return errAlreadyReported
	}

	output := result.Generate(api.GenerateOptions{Exports: exports})
	if len(output.Errors) > 0 {
		return errAlreadyReported
	}

	code := output.Code + "\n"
	if project.Outfile == "" {
		_, err := os.Stdout.WriteString(code)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(project.Outfile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(project.Outfile, []byte(code), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", project.Outfile, err)
	}
	trace.Info().Str("outfile", project.Outfile).Int("bytes", len(code)).Msg("Wrote bundle")
	return nil
}
