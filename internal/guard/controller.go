package guard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// Options tune a single batch.
type Options struct {
	// Force recompiles even when the target is up to date.
	Force bool
	// FailFast marks every file after the first failure as aborted.
	FailFast bool
	// OnFile, if set, is called after each file reaches a terminal state.
	OnFile func(domain.FileResult)
}

// Controller runs compile requests one at a time inside a Boundary.
type Controller struct {
	compiler domain.Compiler
	boundary *Boundary
	upToDate *UpToDate
	fs       domain.FileSystemManager
	logger   *zap.Logger
}

// NewController creates a controller. upToDate may be nil to always compile.
func NewController(
	compiler domain.Compiler,
	boundary *Boundary,
	upToDate *UpToDate,
	fs domain.FileSystemManager,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		compiler: compiler,
		boundary: boundary,
		upToDate: upToDate,
		fs:       fs,
		logger:   logger,
	}
}

// RunBatch processes reqs in order and returns one result per request.
// The boundary is held for the whole batch and released on every path.
func (c *Controller) RunBatch(ctx context.Context, reqs []domain.CompilationRequest, opts Options) []domain.FileResult {
	ctx, release := c.boundary.Acquire(ctx)
	defer release()

	results := make([]domain.FileResult, 0, len(reqs))
	aborted := false

	for _, req := range reqs {
		var res domain.FileResult
		switch {
		case aborted:
			res = domain.FileResult{Request: req, State: domain.StateAborted}
		case ctx.Err() != nil:
			aborted = true
			res = domain.FileResult{Request: req, State: domain.StateAborted, Err: ctx.Err()}
		default:
			res = c.runOne(ctx, req, opts.Force)
			if res.State == domain.StateFailed && opts.FailFast {
				aborted = true
			}
		}

		results = append(results, res)
		if opts.OnFile != nil {
			opts.OnFile(res)
		}
	}

	return results
}

// runOne drives one file from NotInvoked to a terminal state.
func (c *Controller) runOne(ctx context.Context, req domain.CompilationRequest, force bool) domain.FileResult {
	start := time.Now()
	res := domain.FileResult{Request: req, State: domain.StateNotInvoked}

	if !force && c.upToDate != nil && !c.upToDate.ShouldRun(req) {
		c.logger.Debug("target up to date",
			zap.String("source", req.Source),
			zap.String("target", req.Target))
		res.State = domain.StateSkipped
		res.Duration = time.Since(start)
		return res
	}

	if err := c.fs.MkdirAll(filepath.Dir(req.Target)); err != nil {
		return c.fail(res, start, fmt.Errorf("create target directory: %w", err))
	}

	res.State = domain.StateInvoking
	err := c.compiler.Compile(ctx, req.Level, req.Source, req.Target)
	if err == nil && !c.fs.Exists(req.Target) {
		err = fmt.Errorf("%w: %s", domain.ErrTargetMissing, req.Target)
	}
	if err != nil {
		return c.fail(res, start, err)
	}

	if c.upToDate != nil {
		if err := c.upToDate.Record(req); err != nil {
			c.logger.Warn("failed to record stamp",
				zap.String("target", req.Target),
				zap.Error(err))
		}
	}

	c.logger.Debug("compiled file",
		zap.String("source", req.Source),
		zap.String("target", req.Target))
	res.State = domain.StateCompleted
	res.Duration = time.Since(start)
	return res
}

func (c *Controller) fail(res domain.FileResult, start time.Time, err error) domain.FileResult {
	c.logger.Warn("compilation failed",
		zap.String("source", res.Request.Source),
		zap.String("target", res.Request.Target),
		zap.Error(err))

	if c.upToDate != nil {
		if ferr := c.upToDate.Forget(res.Request); ferr != nil {
			c.logger.Debug("failed to drop stamp", zap.Error(ferr))
		}
	}

	res.State = domain.StateFailed
	res.Err = err
	res.Duration = time.Since(start)
	return res
}
