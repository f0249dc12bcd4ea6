package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ProjectFileName = "minibundle.yaml"

const LogLevelEnvVar = "MINIBUNDLE_LOG_LEVEL"

// Project represents a minibundle.yaml file next to the sources
type Project struct {
	// Entry module, relative to the project file
	Entry string `yaml:"entry,omitempty"`

	// Where to write the bundle. Empty means stdout.
	Outfile string `yaml:"outfile,omitempty"`

	// auto, default, named or none
	Exports string `yaml:"exports,omitempty"`

	// Specifiers that are never bundled
	External []string `yaml:"external,omitempty"`

	// silent, error, warning, info, debug
	LogLevel string `yaml:"logLevel,omitempty"`
}

func DefaultProject() *Project {
	return &Project{
		Exports:  "auto",
		LogLevel: "warning",
	}
}

// LoadProject reads a project file. A missing file is not an error and
// returns the defaults. Relative paths in the file are made relative to the
// directory containing it.
func LoadProject(path string) (*Project, error) {
	project := DefaultProject()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return project, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, project); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if project.Entry != "" && !filepath.IsAbs(project.Entry) {
		project.Entry = filepath.Join(dir, project.Entry)
	}
	if project.Outfile != "" && !filepath.IsAbs(project.Outfile) {
		project.Outfile = filepath.Join(dir, project.Outfile)
	}
	return project, nil
}

// ApplyEnv lets the environment override the project file
func (p *Project) ApplyEnv() {
	if level := os.Getenv(LogLevelEnvVar); level != "" {
		p.LogLevel = level
	}
}

// Merge applies overrides from another project (e.g., CLI flags)
func (p *Project) Merge(other *Project) {
	if other == nil {
		return
	}
	if other.Entry != "" {
		p.Entry = other.Entry
	}
	if other.Outfile != "" {
		p.Outfile = other.Outfile
	}
	if other.Exports != "" {
		p.Exports = other.Exports
	}
	if len(other.External) > 0 {
		p.External = append(p.External, other.External...)
	}
	if other.LogLevel != "" {
		p.LogLevel = other.LogLevel
	}
}
