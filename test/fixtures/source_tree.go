// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"os"
	"path/filepath"
	"sort"
)

// SourceTree creates a project layout with an input and an output directory.
type SourceTree struct {
	Root      string
	InputDir  string
	OutputDir string
}

// NewSourceTree creates a new source tree generator rooted at root.
func NewSourceTree(root string) *SourceTree {
	return &SourceTree{
		Root:      root,
		InputDir:  filepath.Join(root, "src/main/js"),
		OutputDir: filepath.Join(root, "target/js"),
	}
}

// DefaultSources is the two-file project most scenarios start from.
var DefaultSources = map[string]string{
	"one.js": "function one() {\n  return 1;\n}\n",
	"two.js": "function two() {\n  return 2;\n}\n",
}

// Create creates both directories and writes DefaultSources.
func (s *SourceTree) Create() error {
	return s.CreateWith(DefaultSources)
}

// CreateWith creates both directories and writes the given sources
// (paths relative to the input directory).
func (s *SourceTree) CreateWith(sources map[string]string) error {
	for _, dir := range []string{s.InputDir, s.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	for name, content := range sources {
		if err := s.WriteSource(name, content); err != nil {
			return err
		}
	}
	return nil
}

// WriteSource writes one source file, creating parent directories.
func (s *SourceTree) WriteSource(name, content string) error {
	path := filepath.Join(s.InputDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Source returns the absolute path of a source file.
func (s *SourceTree) Source(name string) string {
	return filepath.Join(s.InputDir, name)
}

// Target returns the absolute path of an output file.
func (s *SourceTree) Target(name string) string {
	return filepath.Join(s.OutputDir, name)
}

// ClearOutput removes every file in the output directory but keeps the directory.
func (s *SourceTree) ClearOutput() error {
	entries, err := os.ReadDir(s.OutputDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.OutputDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Outputs lists every file in the output directory relative to it, sorted.
func (s *SourceTree) Outputs() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.OutputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.OutputDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}
