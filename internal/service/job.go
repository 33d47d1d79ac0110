package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/observability/metrics"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Jobs    core.JobStore // Required: job store
	Logger  *slog.Logger  // Optional: structured logger
	Metrics statsd.Sink   // Optional: metrics sink (StatsD-compatible)
}

// JobService exposes generation job management to the HTTP layer.
type JobService struct {
	jobs    core.JobStore
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobStore is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "job_service")
	}

	return &JobService{
		jobs:    opts.Jobs,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Create validates and persists a new generation job.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Surface numbering mistakes at creation time instead of mid-generation.
	if _, err := model.ParseNumberingConfig(req.NumberingConfig); err != nil {
		return nil, err
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create generation job: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "generation job created",
			"job_id", job.ID,
			"raffle_id", job.RaffleID,
			"total_tickets", job.TotalTickets,
			"priority", job.Priority,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: "created",
		Result:     metrics.ResultSuccess,
	})
	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// Stats returns counts of jobs per status.
func (s *JobService) Stats(ctx context.Context) (*model.JobStats, error) {
	return s.jobs.Stats(ctx)
}
