// Package config loads closurebatch settings from defaults and an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/closurebatch/internal/compiler"
	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/infra"
)

// DefaultFile is looked up in the working directory when no --config is given.
const DefaultFile = "closurebatch.yaml"

// DefaultLevel is the least aggressive Closure Compiler tier.
const DefaultLevel = "WHITESPACE_ONLY"

// Config is the top-level configuration structure.
type Config struct {
	CompilationLevel string         `yaml:"compilation_level"`
	InputDir         string         `yaml:"input_dir"`
	OutputDir        string         `yaml:"output_dir"`
	Version          string         `yaml:"version"`
	Recursive        bool           `yaml:"recursive"`
	Excludes         []string       `yaml:"excludes"`
	Extension        string         `yaml:"extension"`
	Compiler         CompilerConfig `yaml:"compiler"`
	StateFile        string         `yaml:"state_file"`
	Force            bool           `yaml:"force"`
	FailFast         bool           `yaml:"fail_fast"`
	LogLevel         string         `yaml:"log_level"`
}

// CompilerConfig selects the compiler backend.
type CompilerConfig struct {
	Backend string   `yaml:"backend"`
	Command []string `yaml:"command"`
}

// Validate checks the fields that can be checked without touching the filesystem.
func (c *Config) Validate() error {
	if c.CompilationLevel == "" {
		return fmt.Errorf("%w: compilation_level is required", domain.ErrConfig)
	}
	if c.Compiler.Backend == "" {
		return fmt.Errorf("%w: compiler.backend is required", domain.ErrConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", domain.ErrConfig, c.LogLevel)
	}
	return nil
}

// RunConfig converts the file-level settings into a run request.
func (c *Config) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		ScanConfig: domain.ScanConfig{
			InputDir:  c.InputDir,
			OutputDir: c.OutputDir,
			Recursive: c.Recursive,
			Excludes:  c.Excludes,
			Extension: c.Extension,
		},
		Level:    c.CompilationLevel,
		Version:  c.Version,
		Force:    c.Force,
		FailFast: c.FailFast,
	}
}

// StatePath returns where the stamp database lives, with ~ expanded
// through fs. Without state_file it is infra.DefaultStatePath for the
// output directory, never a path inside it.
func (c *Config) StatePath(fs domain.FileSystemManager) (string, error) {
	if c.StateFile != "" {
		return fs.ExpandHome(c.StateFile), nil
	}
	return infra.DefaultStatePath(fs.ExpandHome(c.OutputDir))
}

// Load resolves config from defaults, then path if set, then DefaultFile if present.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("%w: loading %s: %v", domain.ErrConfig, path, err)
		}
		return cfg, nil
	}

	if err := mergeFile(cfg, DefaultFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: loading %s: %v", domain.ErrConfig, DefaultFile, err)
	}
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, dst)
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		CompilationLevel: DefaultLevel,
		Recursive:        true,
		Extension:        domain.DefaultExtension,
		Compiler: CompilerConfig{
			Backend: compiler.BackendProcess,
		},
		LogLevel: "info",
	}
}
