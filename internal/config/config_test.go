package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportsMode(t *testing.T) {
	tests := []struct {
		text     string
		expected ExportsMode
	}{
		{"", ExportsAuto},
		{"auto", ExportsAuto},
		{"default", ExportsDefault},
		{"named", ExportsNamed},
		{"none", ExportsNone},
	}
	for _, tt := range tests {
		mode, err := ParseExportsMode(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, mode)
	}

	_, err := ParseExportsMode("umd")
	assert.EqualError(t, err, `Invalid exports mode "umd" (valid: auto, default, named, none)`)
}

func TestResolveExportsMode(t *testing.T) {
	assert.Equal(t, ExportsNone, ResolveExportsMode(ExportsAuto, nil))
	assert.Equal(t, ExportsDefault, ResolveExportsMode(ExportsAuto, []string{"default"}))
	assert.Equal(t, ExportsNamed, ResolveExportsMode(ExportsAuto, []string{"default", "a"}))
	assert.Equal(t, ExportsNamed, ResolveExportsMode(ExportsAuto, []string{"a"}))
	assert.Equal(t, ExportsNone, ResolveExportsMode(ExportsNone, []string{"a"}))
}

func TestIsExternal(t *testing.T) {
	options := Options{Externals: []string{"fs", "lodash"}}
	assert.True(t, options.IsExternal("fs"))
	assert.False(t, options.IsExternal("./fs"))
}

func TestLoadProjectMissingFile(t *testing.T) {
	project, err := LoadProject(filepath.Join(t.TempDir(), ProjectFileName))
	require.NoError(t, err)
	assert.Equal(t, DefaultProject(), project)
}

func TestLoadProjectYamlFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ProjectFileName)
	yamlContent := `
entry: src/main.js
outfile: dist/bundle.js
exports: named
external:
  - fs
  - path
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	project, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src/main.js"), project.Entry)
	assert.Equal(t, filepath.Join(dir, "dist/bundle.js"), project.Outfile)
	assert.Equal(t, "named", project.Exports)
	assert.Equal(t, []string{"fs", "path"}, project.External)
	assert.Equal(t, "warning", project.LogLevel)
}

func TestLoadProjectInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte("external: [unclosed"), 0644))
	_, err := LoadProject(path)
	assert.Error(t, err)
}

func TestProjectPrecedence(t *testing.T) {
	project := DefaultProject()
	project.LogLevel = "info"

	t.Setenv(LogLevelEnvVar, "debug")
	project.ApplyEnv()
	assert.Equal(t, "debug", project.LogLevel)

	project.Merge(&Project{LogLevel: "error", External: []string{"fs"}})
	assert.Equal(t, "error", project.LogLevel)
	assert.Equal(t, "auto", project.Exports)
	assert.Equal(t, []string{"fs"}, project.External)

	project.Merge(nil)
	assert.Equal(t, "error", project.LogLevel)
}
