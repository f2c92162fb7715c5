package domain

import (
	"errors"
	"fmt"
)

// ErrConfig marks configuration errors. A run that hits one compiles nothing.
var ErrConfig = errors.New("configuration error")

var (
	ErrInvalidDirectories = fmt.Errorf("%w: the given directories are not valid or are missing", ErrConfig)
	ErrOutsideInputRoot   = errors.New("source path is outside the input directory")
	ErrTargetMissing      = errors.New("compiler did not produce the target file")
	ErrBoundaryNotHeld    = errors.New("containment boundary is not held")
)

// PatternError reports an exclude pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid exclude pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfig) hold for pattern errors.
func (e *PatternError) Is(target error) bool { return target == ErrConfig }

// CompileError is a per-file failure reported by the compiler.
type CompileError struct {
	Source   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("compile %s: exit status %d", e.Source, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
