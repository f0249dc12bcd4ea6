package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/minibundle/minibundle/internal/exitcode"
	"github.com/minibundle/minibundle/internal/logger"
)

var version = "dev"

// Returned when the problem was already written to stderr by the build log
var errAlreadyReported = exitcode.Set(errors.New("already reported"), exitcode.BuildFailed)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	rootCmd := &cobra.Command{
		Use:           "minibundle",
		Short:         "Bundle ES modules into a single CommonJS file",
		Long:          `minibundle follows the imports of an entry module, keeps only the statements that are actually used, and prints them as one CommonJS module.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return exitcode.Usage(err)
	})
	rootCmd.AddCommand(buildCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errAlreadyReported) {
			logger.PrintErrorToStderr(os.Args, err.Error())
		}
		os.Exit(exitcode.Get(err))
	}
}
