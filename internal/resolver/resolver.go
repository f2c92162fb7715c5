// Package resolver decides which source files a run compiles and where their
// output goes. Everything here is free of side effects beyond logging.
package resolver

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// Resolver validates directories, discovers sources and maps them to targets.
type Resolver struct {
	fs     domain.FileSystemManager
	logger *zap.Logger
}

// New creates a resolver.
func New(fs domain.FileSystemManager, logger *zap.Logger) *Resolver {
	return &Resolver{fs: fs, logger: logger}
}

// ValidateDirectories reports whether both paths exist and are directories.
func (r *Resolver) ValidateDirectories(inputDir, outputDir string) bool {
	valid := true
	if !r.fs.IsDir(inputDir) {
		r.logger.Debug("invalid input directory", zap.String("path", inputDir))
		valid = false
	}
	if !r.fs.IsDir(outputDir) {
		r.logger.Debug("invalid output directory", zap.String("path", outputDir))
		valid = false
	}
	return valid
}

// Plan is the ordered work list of a run.
type Plan struct {
	Requests []domain.CompilationRequest
	Excluded []string
	// Internal holds sources that could not be mapped to a target.
	Internal []domain.FileResult
}

// Plan resolves the complete work list for cfg. A returned error is a
// configuration error and no partial plan is produced.
func (r *Resolver) Plan(cfg domain.RunConfig) (*Plan, error) {
	inputDir := r.fs.ExpandHome(cfg.InputDir)
	outputDir := r.fs.ExpandHome(cfg.OutputDir)

	if !r.ValidateDirectories(inputDir, outputDir) {
		return nil, domain.ErrInvalidDirectories
	}

	r.logger.Info("scanning input directory",
		zap.String("path", inputDir),
		zap.Bool("recursive", cfg.Recursive))

	patterns, err := r.CompilePatterns(cfg.Excludes)
	if err != nil {
		return nil, err
	}

	ext := cfg.Extension
	if ext == "" {
		ext = domain.DefaultExtension
	}

	plan := &Plan{}
	for source, err := range Discover(inputDir, outputDir, ext, cfg.Recursive) {
		if err != nil {
			r.logger.Error("discovery failed", zap.String("path", source), zap.Error(err))
			plan.Internal = append(plan.Internal, domain.FileResult{
				Request: domain.CompilationRequest{Source: source, Level: cfg.Level, Version: cfg.Version},
				State:   domain.StateFailed,
				Err:     err,
			})
			continue
		}

		if r.IsExcluded(source, patterns) {
			plan.Excluded = append(plan.Excluded, source)
			continue
		}

		req := domain.CompilationRequest{Source: source, Level: cfg.Level, Version: cfg.Version}
		target, err := TargetPath(inputDir, outputDir, source, ext, cfg.Version)
		if err != nil {
			r.logger.Error("cannot compute target path", zap.String("source", source), zap.Error(err))
			plan.Internal = append(plan.Internal, domain.FileResult{
				Request: req,
				State:   domain.StateFailed,
				Err:     err,
			})
			continue
		}
		req.Target = target
		plan.Requests = append(plan.Requests, req)
	}

	return plan, nil
}
