// Package infra implements infrastructure concerns (filesystem, compiler process, stamp store).
package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// Placeholders substituted into a compiler command template.
const (
	PlaceholderLevel  = "{level}"
	PlaceholderSource = "{source}"
	PlaceholderTarget = "{target}"
)

// DefaultCompilerCommand invokes the Closure Compiler jar from the working directory.
var DefaultCompilerCommand = []string{
	"java", "-jar", "closure-compiler.jar",
	"--compilation_level", PlaceholderLevel,
	"--js", PlaceholderSource,
	"--js_output_file", PlaceholderTarget,
}

// ProcessCompiler implements domain.Compiler by running an external command.
// The child's exit status is the routine's termination; it never reaches us.
type ProcessCompiler struct {
	command []string
	logger  *zap.Logger
}

// NewProcessCompiler creates a compiler from a command template.
func NewProcessCompiler(command []string, logger *zap.Logger) (*ProcessCompiler, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, fmt.Errorf("%w: compiler command is empty", domain.ErrConfig)
	}
	return &ProcessCompiler{
		command: append([]string(nil), command...),
		logger:  logger,
	}, nil
}

// Available reports whether the command's executable can be found.
func (c *ProcessCompiler) Available() bool {
	_, err := exec.LookPath(c.command[0])
	return err == nil
}

// Args returns the expanded argv for one invocation.
func (c *ProcessCompiler) Args(level, source, target string) []string {
	r := strings.NewReplacer(
		PlaceholderLevel, level,
		PlaceholderSource, source,
		PlaceholderTarget, target,
	)
	args := make([]string, len(c.command))
	for i, a := range c.command {
		args[i] = r.Replace(a)
	}
	return args
}

// Compile runs the external compiler once.
func (c *ProcessCompiler) Compile(ctx context.Context, level, source, target string) error {
	args := c.Args(level, source, target)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = nil // Prevent any interactive prompts
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return killProcessTree(cmd.Process.Pid)
	}

	err := cmd.Run()
	if stdout.Len() > 0 {
		c.logger.Debug("compiler output",
			zap.String("source", source),
			zap.String("stdout", stdout.String()))
	}
	if err == nil {
		return nil
	}

	compileErr := &domain.CompileError{
		Source:   source,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		compileErr.ExitCode = exitErr.ExitCode()
	} else {
		compileErr.Err = err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		compileErr.Err = ctxErr
	}
	return compileErr
}

// killProcessTree kills pid and every descendant it has at call time.
// The parent goes first so it cannot spawn replacements.
func killProcessTree(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}

	// Children returns an error when there are none
	children, _ := p.Children()

	errs := p.Kill()
	for _, child := range children {
		errs = multierr.Append(errs, killProcessTree(int(child.Pid)))
	}
	return errs
}

// Ensure ProcessCompiler implements domain.Compiler.
var _ domain.Compiler = (*ProcessCompiler)(nil)
