//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"testing"

	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/compiler"
	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/guard"
	"github.com/eliteGoblin/closurebatch/internal/infra"
	"github.com/eliteGoblin/closurebatch/internal/resolver"
	"github.com/eliteGoblin/closurebatch/internal/usecase"
	"github.com/eliteGoblin/closurebatch/test/fixtures"
)

func TestProcessBackend_CompilesThroughExternalCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// Create temp directory for test
	tmpDir, err := os.MkdirTemp("", "closurebatch-integration-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	tree := fixtures.NewSourceTree(tmpDir)
	if err := tree.Create(); err != nil {
		t.Fatalf("failed to create source tree: %v", err)
	}
	if err := tree.WriteSource("broken.js", "function ("); err != nil {
		t.Fatal(err)
	}

	// A stand-in compiler: rejects files containing "function (" and copies the rest
	command := []string{"sh", "-c",
		`if grep -q 'function (' "$2"; then echo "ERROR - $2: parse error" >&2; exit 2; fi; cp "$2" "$3"`,
		"compiler", "{level}", "{source}", "{target}"}

	logger, _ := zap.NewDevelopment()
	fs := infra.NewFileSystemManager()
	boundary := guard.NewBoundary(guard.NewHook(guard.ProcessExit))
	c, err := compiler.NewRegistry().Build(compiler.BackendProcess, compiler.Env{
		Boundary: boundary,
		Command:  command,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("failed to build compiler: %v", err)
	}

	ctrl := guard.NewController(c, boundary, nil, fs, logger)
	orch := usecase.NewOrchestrator(resolver.New(fs, logger), ctrl, logger)

	report, err := orch.Run(context.Background(), domain.RunConfig{
		ScanConfig: domain.ScanConfig{
			InputDir:  tree.InputDir,
			OutputDir: tree.OutputDir,
			Recursive: true,
		},
		Level:   "SIMPLE_OPTIMIZATIONS",
		Version: "1.0.0",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := len(report.Compiled()); got != 2 {
		t.Errorf("expected 2 compiled files, got %d", got)
	}
	failed := report.Failed()
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed file, got %d", len(failed))
	}
	var compileErr *domain.CompileError
	if !errors.As(failed[0].Err, &compileErr) || compileErr.ExitCode != 2 {
		t.Errorf("expected compile error with exit status 2, got %v", failed[0].Err)
	}

	outputs, err := tree.Outputs()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one-1.0.0.js", "two-1.0.0.js"}
	if len(outputs) != len(want) || outputs[0] != want[0] || outputs[1] != want[1] {
		t.Errorf("expected outputs %v, got %v", want, outputs)
	}
}
