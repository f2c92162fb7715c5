package guard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// Routine is a single-shot compile entry point with the legacy contract:
// diagnostics go to stderr and it finishes by exiting through its hook,
// 0 on success and non-zero on failure.
type Routine func(stderr io.Writer, level, source, target string)

// ContainedCompiler adapts a Routine to domain.Compiler.
type ContainedCompiler struct {
	boundary *Boundary
	routine  Routine
}

// Contained wraps routine so its exit becomes an ordinary result.
// Compile must be called with the context returned by boundary.Acquire.
func Contained(boundary *Boundary, routine Routine) *ContainedCompiler {
	return &ContainedCompiler{boundary: boundary, routine: routine}
}

// Compile maps exit 0 (or a plain return) to nil and anything else to a
// *domain.CompileError.
func (c *ContainedCompiler) Compile(ctx context.Context, level, source, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stderr bytes.Buffer
	code, exited, err := c.boundary.Contain(ctx, func() {
		c.routine(&stderr, level, source, target)
	})
	if errors.Is(err, domain.ErrBoundaryNotHeld) {
		return err
	}
	if err != nil {
		return &domain.CompileError{
			Source:   source,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	if exited && code != 0 {
		return &domain.CompileError{
			Source:   source,
			ExitCode: code,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}
	return nil
}

// Ensure ContainedCompiler implements domain.Compiler.
var _ domain.Compiler = (*ContainedCompiler)(nil)
