// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"time"
)

// DefaultExtension is the source file type handed to the compiler.
const DefaultExtension = ".js"

// ScanConfig describes which files a run looks at.
type ScanConfig struct {
	InputDir  string
	OutputDir string
	Recursive bool
	// Excludes is nil when no exclude list was configured at all.
	Excludes  []string
	Extension string
}

// RunConfig is everything a single orchestrator run needs.
type RunConfig struct {
	ScanConfig
	Level    string // Compilation level, passed through untouched
	Version  string // Optional tag embedded in output filenames
	Force    bool   // Recompile even when the target is up to date
	FailFast bool   // Abort remaining files after the first failure
}

// CompilationRequest is one source → target invocation.
// Constructed per discovered file and consumed immediately.
type CompilationRequest struct {
	Source  string
	Target  string
	Level   string
	Version string
}

// FileState is the lifecycle position of one file in a batch.
type FileState string

const (
	StateNotInvoked FileState = "not_invoked"
	StateInvoking   FileState = "invoking"
	StateCompleted  FileState = "completed"
	StateSkipped    FileState = "skipped"
	StateFailed     FileState = "failed"
	StateAborted    FileState = "aborted"
)

// FileResult captures what happened to a single file.
type FileResult struct {
	Request  CompilationRequest
	State    FileState
	Err      error
	Duration time.Duration
}

// RunReport captures what happened during a single orchestrator run.
type RunReport struct {
	Files     []FileResult
	Excluded  []string
	StartedAt time.Time
	Duration  time.Duration
}

// Err returns every per-file error joined together, or nil on success.
func (r *RunReport) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Compiled returns the files that were actually compiled.
func (r *RunReport) Compiled() []FileResult { return r.byState(StateCompleted) }

// Skipped returns the files whose target was already up to date.
func (r *RunReport) Skipped() []FileResult { return r.byState(StateSkipped) }

// Failed returns the files that failed to compile or could not be planned.
func (r *RunReport) Failed() []FileResult { return r.byState(StateFailed) }

func (r *RunReport) byState(state FileState) []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.State == state {
			out = append(out, f)
		}
	}
	return out
}

// Stamp records the parameters a target was last produced with.
// Persisted by a StampStore so unchanged inputs can be skipped.
type Stamp struct {
	Target       string
	Source       string
	SourceDigest string // hex sha256 of the source content
	Level        string
	CompiledAt   time.Time
}
