// Package compiler provides the named compiler backends a run can use.
// Each backend builds a domain.Compiler for the current batch.
package compiler

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/guard"
	"github.com/eliteGoblin/closurebatch/internal/infra"
)

// Backend names.
const (
	BackendPassthrough = "passthrough"
	BackendProcess     = "process"
)

// Env is what a backend may need to build its compiler.
type Env struct {
	Boundary *guard.Boundary
	Command  []string // process backend only; nil means infra.DefaultCompilerCommand
	Logger   *zap.Logger
}

// Backend builds a compiler for one run.
type Backend interface {
	// Name returns the identifier used in configuration.
	Name() string

	// Description returns a one-line summary for display.
	Description() string

	// New creates the compiler.
	New(env Env) (domain.Compiler, error)
}

// Registry holds all compiler backends.
type Registry struct {
	backends map[string]Backend
}

// NewRegistry creates a registry with the built-in backends.
func NewRegistry() *Registry {
	r := &Registry{
		backends: make(map[string]Backend),
	}

	r.Register(passthroughBackend{})
	r.Register(processBackend{})

	return r
}

// NewRegistryWithBackends creates a registry with custom backends (for testing).
func NewRegistryWithBackends(backends ...Backend) *Registry {
	r := &Registry{
		backends: make(map[string]Backend),
	}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds a backend to the registry.
func (r *Registry) Register(b Backend) {
	r.backends[b.Name()] = b
}

// Get returns a backend by name.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// GetAll returns all registered backends ordered by name.
func (r *Registry) GetAll() []Backend {
	result := make([]Backend, 0, len(r.backends))
	for _, name := range r.List() {
		result = append(result, r.backends[name])
	}
	return result
}

// List returns all backend names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the compiler of the named backend.
// An unknown name is a configuration error.
func (r *Registry) Build(name string, env Env) (domain.Compiler, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown compiler backend %q (available: %v)", domain.ErrConfig, name, r.List())
	}
	return b.New(env)
}

type passthroughBackend struct{}

func (passthroughBackend) Name() string { return BackendPassthrough }

func (passthroughBackend) Description() string {
	return "built-in routine that copies sources unchanged"
}

func (passthroughBackend) New(env Env) (domain.Compiler, error) {
	if env.Boundary == nil {
		return nil, fmt.Errorf("passthrough backend needs a containment boundary")
	}
	return guard.Contained(env.Boundary, Passthrough(env.Boundary.Hook())), nil
}

type processBackend struct{}

func (processBackend) Name() string { return BackendProcess }

func (processBackend) Description() string {
	return "external compiler command, one process per file"
}

func (processBackend) New(env Env) (domain.Compiler, error) {
	command := env.Command
	if len(command) == 0 {
		command = infra.DefaultCompilerCommand
	}
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pc, err := infra.NewProcessCompiler(command, logger)
	if err != nil {
		return nil, err
	}
	if !pc.Available() {
		logger.Warn("compiler executable not found in PATH", zap.String("command", command[0]))
	}
	return pc, nil
}
