package domain

import (
	"context"
	"time"
)

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// IsDir checks if a path exists and is a directory.
	IsDir(path string) bool

	// ModTime returns the modification time of a path.
	ModTime(path string) (time.Time, error)

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Digest returns the hex sha256 of a file's content.
	Digest(path string) (string, error)

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string
}

// Compiler transforms one source file into its target.
// Implementations: contained in-process routine, external process.
type Compiler interface {
	// Compile writes target from source at the given level.
	// A non-nil error is a per-file failure, never a process exit.
	Compile(ctx context.Context, level, source, target string) error
}

// StampStore persists the parameters each target was built with.
// Implementation: SQLite database next to the output.
type StampStore interface {
	// Get returns the stamp for a target, or nil if none is recorded.
	Get(target string) (*Stamp, error)

	// Put records a stamp, replacing any previous one for the target.
	Put(stamp Stamp) error

	// Delete forgets the stamp for a target.
	Delete(target string) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// Orchestrator runs a complete batch: plan, compile, report.
type Orchestrator interface {
	// Run executes one batch. A returned error is a configuration error and
	// means nothing was compiled; per-file errors live in the report.
	Run(ctx context.Context, cfg RunConfig) (*RunReport, error)
}
