// Package usecase contains application business logic.
package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/closurebatch/internal/domain"
	"github.com/eliteGoblin/closurebatch/internal/guard"
	"github.com/eliteGoblin/closurebatch/internal/resolver"
)

// Observer is notified as a batch progresses.
type Observer interface {
	// BatchStarted is called once with the number of files to process.
	BatchStarted(total int)

	// FileDone is called after each file reaches a terminal state.
	FileDone(res domain.FileResult)
}

// OrchestratorImpl implements domain.Orchestrator.
type OrchestratorImpl struct {
	resolver   *resolver.Resolver
	controller *guard.Controller
	observer   Observer
	logger     *zap.Logger
}

// NewOrchestrator creates a new batch orchestrator.
func NewOrchestrator(
	r *resolver.Resolver,
	c *guard.Controller,
	logger *zap.Logger,
) domain.Orchestrator {
	return &OrchestratorImpl{
		resolver:   r,
		controller: c,
		observer:   nil, // Set via NewOrchestratorWithObserver
		logger:     logger,
	}
}

// NewOrchestratorWithObserver creates an orchestrator that reports progress.
func NewOrchestratorWithObserver(
	r *resolver.Resolver,
	c *guard.Controller,
	obs Observer,
	logger *zap.Logger,
) domain.Orchestrator {
	return &OrchestratorImpl{
		resolver:   r,
		controller: c,
		observer:   obs,
		logger:     logger,
	}
}

// Run plans and compiles one batch.
func (o *OrchestratorImpl) Run(ctx context.Context, cfg domain.RunConfig) (*domain.RunReport, error) {
	start := time.Now()
	report := &domain.RunReport{StartedAt: start}

	plan, err := o.resolver.Plan(cfg)
	if err != nil {
		o.logger.Error("invalid configuration, nothing compiled", zap.Error(err))
		report.Duration = time.Since(start)
		return report, err
	}

	report.Excluded = plan.Excluded
	report.Files = append(report.Files, plan.Internal...)

	if o.observer != nil {
		o.observer.BatchStarted(len(plan.Requests))
	}

	if cfg.FailFast && len(plan.Internal) > 0 {
		for _, req := range plan.Requests {
			res := domain.FileResult{Request: req, State: domain.StateAborted}
			report.Files = append(report.Files, res)
			o.fileDone(res)
		}
	} else {
		results := o.controller.RunBatch(ctx, plan.Requests, guard.Options{
			Force:    cfg.Force,
			FailFast: cfg.FailFast,
			OnFile:   o.fileDone,
		})
		report.Files = append(report.Files, results...)
	}

	report.Duration = time.Since(start)

	o.logger.Info("batch finished",
		zap.Int("compiled", len(report.Compiled())),
		zap.Int("skipped", len(report.Skipped())),
		zap.Int("failed", len(report.Failed())),
		zap.Int("excluded", len(report.Excluded)),
		zap.Duration("duration", report.Duration))

	return report, nil
}

func (o *OrchestratorImpl) fileDone(res domain.FileResult) {
	if o.observer != nil {
		o.observer.FileDone(res)
	}
}

// Ensure OrchestratorImpl implements domain.Orchestrator.
var _ domain.Orchestrator = (*OrchestratorImpl)(nil)
