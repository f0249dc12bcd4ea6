package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibundle/minibundle/internal/config"
	"github.com/minibundle/minibundle/internal/exitcode"
	"github.com/minibundle/minibundle/pkg/api"
)

func writeProject(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestResolveProjectPrecedence(t *testing.T) {
	path := writeProject(t, "entry: src/main.js\nexports: named\nexternal: [react]\nlogLevel: error\n")
	t.Setenv(config.LogLevelEnvVar, "info")

	cmd := buildCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--exports", "default", "--external", "lodash"}))

	var flags buildFlags
	flags.configPath = path
	flags.exports = "default"
	flags.external = []string{"lodash"}

	project, err := resolveProject(cmd, flags, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "src/main.js"), project.Entry)
	assert.Equal(t, "default", project.Exports)
	assert.Equal(t, []string{"react", "lodash"}, project.External)
	assert.Equal(t, "info", project.LogLevel)
}

func TestResolveProjectVerboseWinsOverEnvironment(t *testing.T) {
	t.Setenv(config.LogLevelEnvVar, "silent")

	cmd := buildCmd()
	flags := buildFlags{configPath: filepath.Join(t.TempDir(), "missing.yaml"), verbose: true}
	project, err := resolveProject(cmd, flags, []string{"main.js"})
	require.NoError(t, err)
	assert.Equal(t, "main.js", project.Entry)
	assert.Equal(t, "debug", project.LogLevel)
	assert.Equal(t, "auto", project.Exports)
}

func TestResolveProjectWithoutEntry(t *testing.T) {
	cmd := buildCmd()
	flags := buildFlags{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := resolveProject(cmd, flags, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry module")
	assert.Equal(t, exitcode.InvalidUsage, exitcode.Get(err))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		text  string
		level api.LogLevel
		trace zerolog.Level
	}{
		{"silent", api.LogLevelSilent, zerolog.Disabled},
		{"error", api.LogLevelError, zerolog.ErrorLevel},
		{"", api.LogLevelWarning, zerolog.WarnLevel},
		{"warning", api.LogLevelWarning, zerolog.WarnLevel},
		{"info", api.LogLevelInfo, zerolog.InfoLevel},
		{"debug", api.LogLevelInfo, zerolog.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			level, trace, err := parseLogLevel(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.trace, trace)
		})
	}

	_, _, err := parseLogLevel("loud")
	assert.Error(t, err)
}

func TestParseExportsMode(t *testing.T) {
	mode, err := parseExportsMode("named")
	require.NoError(t, err)
	assert.Equal(t, api.ExportsNamed, mode)

	mode, err = parseExportsMode("auto")
	require.NoError(t, err)
	assert.Equal(t, api.ExportsAuto, mode)

	_, err = parseExportsMode("commonjs")
	assert.Error(t, err)
}

func TestRunBuildWritesOutfile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.js"), []byte("export default function main() {}\n"), 0644))
	outfile := filepath.Join(dir, "dist", "out.js")

	err := runBuild(&config.Project{
		Entry:    filepath.Join(dir, "main.js"),
		Outfile:  outfile,
		Exports:  "auto",
		LogLevel: "silent",
	}, buildFlags{})
	require.NoError(t, err)

	contents, err := os.ReadFile(outfile)
	require.NoError(t, err)
	assert.Equal(t, "'use strict'\n\nfunction main() {}\n\nmodule.exports = main\n", string(contents))
}

func TestRunBuildReportsErrors(t *testing.T) {
	err := runBuild(&config.Project{
		Entry:    filepath.Join(t.TempDir(), "missing.js"),
		LogLevel: "silent",
	}, buildFlags{})
	assert.ErrorIs(t, err, errAlreadyReported)
	assert.Equal(t, exitcode.BuildFailed, exitcode.Get(err))
}
