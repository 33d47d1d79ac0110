package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go"

	"github.com/raffleworks/ticketgen/config"
	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/domain/batch"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	obserrors "github.com/raffleworks/ticketgen/internal/observability/errors"
	"github.com/raffleworks/ticketgen/internal/observability/metrics"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
)

// checkpointGrace bounds the detached persistence calls made while the
// caller's context is already cancelled.
const checkpointGrace = 5 * time.Second

// WorkerServiceOptions groups dependencies for WorkerService.
type WorkerServiceOptions struct {
	Jobs     core.JobStore           // Required: job store
	Tickets  core.TicketWriter       // Required: batch insert primitive
	Notifier core.CompletionNotifier // Optional: completion event publisher
	Config   config.WorkerConfig     // Required: worker tuning
	Logger   *slog.Logger            // Optional: structured logger
	Metrics  statsd.Sink             // Optional: metrics sink (StatsD-compatible)
	Clock    data.TimeProvider       // Optional: time source, defaults to real time
}

// WorkerService processes one generation job at a time in bounded batch runs.
//
// A single invocation:
//   - claims the job (atomic pending -> running transition),
//   - generates tickets batch by batch, resuming from the persisted cursor,
//   - checkpoints progress at a fixed cadence,
//   - and either completes the job, yields it back to pending when the
//     per-run batch cap is hit, or fails it after batch retries are exhausted.
type WorkerService struct {
	jobs     core.JobStore
	tickets  core.TicketWriter
	notifier core.CompletionNotifier
	cfg      config.WorkerConfig
	logger   *slog.Logger
	metrics  statsd.Sink
	clock    data.TimeProvider
}

// NewWorkerService constructs a new WorkerService.
func NewWorkerService(opts WorkerServiceOptions) (*WorkerService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Tickets == nil {
		return nil, errors.New("TicketWriter is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	clock := opts.Clock
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "ticket_worker")
	}

	return &WorkerService{
		jobs:     opts.Jobs,
		tickets:  opts.Tickets,
		notifier: opts.Notifier,
		cfg:      cfg,
		logger:   logger,
		metrics:  opts.Metrics,
		clock:    clock,
	}, nil
}

var _ core.WorkerInvoker = (*WorkerService)(nil)

// Invoke implements core.WorkerInvoker by running Process in-process.
func (s *WorkerService) Invoke(ctx context.Context, jobID, workerID string) (*model.WorkerResult, error) {
	return s.Process(ctx, jobID, workerID)
}

// Process runs one bounded generation pass over the given job.
//
// The returned result describes a handled outcome, including batch failures
// that marked the job failed. A non-nil error means the invocation itself
// broke (claim lookup failed, context cancelled) and the caller cannot trust
// any result.
func (s *WorkerService) Process(ctx context.Context, jobID, workerID string) (*model.WorkerResult, error) {
	started := s.clock.Now()

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", jobID, err)
	}

	skip, result, err := s.claim(ctx, job, workerID)
	if err != nil {
		return nil, err
	}
	if skip {
		return result, nil
	}

	batchSize := s.resolveBatchSize(ctx, job)
	totalBatches := batch.Count(job.TotalTickets, batchSize)
	cursor := job.CurrentBatch
	processed := 0
	var inserted int64

	for cursor < totalBatches && processed < s.cfg.MaxBatchesPerRun {
		if ctx.Err() != nil {
			s.yield(job, workerID, cursor, batchSize)
			return nil, ctx.Err()
		}

		startIdx, endIdx := batch.Range(cursor, batchSize, job.TotalTickets)
		n, batchErr := s.generateWithRetry(ctx, job, startIdx, endIdx)
		if batchErr != nil {
			return s.fail(ctx, job, workerID, failParams{
				cursor:    cursor,
				batchSize: batchSize,
				elapsed:   s.clock.Now().Sub(started),
				err:       batchErr,
			}), nil
		}

		inserted += n
		cursor++
		processed++

		if processed%s.cfg.CheckpointEvery == 0 {
			s.checkpoint(ctx, job, cursor, batchSize)
		}
	}

	// Always persist the final cursor so the next invocation resumes exactly
	// where this one stopped.
	s.checkpoint(ctx, job, cursor, batchSize)

	elapsed := s.clock.Now().Sub(started)
	if cursor >= totalBatches {
		return s.complete(ctx, job, workerID, completeParams{
			processed: processed,
			inserted:  inserted,
			elapsed:   elapsed,
		})
	}

	if err := s.jobs.MarkPending(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("yield job %s: %w", job.ID, err)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "job yielded after batch cap",
			"job_id", job.ID,
			"worker_id", workerID,
			"cursor", cursor,
			"total_batches", totalBatches,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: "yielded",
		Result:     metrics.ResultSuccess,
		Duration:   elapsed,
	})

	return s.result(job, workerID, resultParams{
		success:   true,
		processed: processed,
		inserted:  inserted,
		status:    model.JobStatusPending,
		elapsed:   elapsed,
	}), nil
}

// claim performs the atomic pending -> running transition. It returns a
// no-op result when the job is already terminal or owned by another worker,
// and an error when the claim itself could not be executed, so dispatch
// accounting can distinguish a store failure from a benign lost race.
func (s *WorkerService) claim(ctx context.Context, job *model.Job, workerID string) (bool, *model.WorkerResult, error) {
	noop := func() *model.WorkerResult {
		return s.result(job, workerID, resultParams{
			success: true,
			status:  job.Status,
		})
	}

	switch job.Status {
	case model.JobStatusCompleted, model.JobStatusFailed:
		if s.logger != nil {
			s.logger.InfoContext(ctx, "skipping terminal job", "job_id", job.ID, "status", job.Status)
		}
		return true, noop(), nil

	case model.JobStatusRunning:
		// Re-invocation of a job this worker already owns resumes it;
		// anything else is another worker's job.
		if job.WorkerID == nil || *job.WorkerID != workerID {
			return true, noop(), nil
		}
		return false, nil, nil

	default:
		claimed, err := s.jobs.MarkRunning(ctx, job.ID, workerID)
		if err != nil {
			return false, nil, fmt.Errorf("claim job %s: %w", job.ID, err)
		}
		if !claimed {
			// Lost the race to another worker.
			return true, noop(), nil
		}
		return false, nil, nil
	}
}

// resolveBatchSize reuses the persisted batch size on resumed jobs so the
// batch cursor keeps mapping to the same index ranges across invocations.
// Fresh jobs get a size from the contention-aware policy.
func (s *WorkerService) resolveBatchSize(ctx context.Context, job *model.Job) int {
	if job.CurrentBatch > 0 && job.BatchSize > 0 {
		return job.BatchSize
	}

	active := 0
	if running, err := s.jobs.CountRunning(ctx); err == nil {
		active = running
	} else if s.logger != nil {
		s.logger.WarnContext(ctx, "count running failed, sizing without contention", "error", err)
	}

	return batch.Size(job.TotalTickets, active)
}

func (s *WorkerService) generateWithRetry(ctx context.Context, job *model.Job, startIdx, endIdx int64) (int64, error) {
	var inserted int64
	retried := false
	batchStart := s.clock.Now()

	err := retry.Do(
		func() error {
			n, err := s.tickets.GenerateBatch(ctx, core.GenerateBatchRequest{
				RaffleID:        job.RaffleID,
				StartIndex:      startIdx,
				EndIndex:        endIdx,
				NumberingConfig: job.NumberingConfig,
			})
			if err != nil {
				return err
			}
			inserted = n
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.cfg.RetryAttempts)),
		retry.Delay(s.cfg.RetryBaseDelay),
		retry.MaxDelay(s.cfg.RetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(obserrors.IsRetryable),
		retry.OnRetry(func(attempt uint, err error) {
			retried = true
			if s.logger != nil {
				s.logger.WarnContext(ctx, "batch insert retrying",
					"job_id", job.ID,
					"range_start", startIdx,
					"range_end", endIdx,
					"attempt", attempt+1,
					"error", err,
				)
			}
		}),
	)
	if err != nil {
		return 0, err
	}

	metrics.EmitBatch(s.metrics, metrics.BatchMetric{
		Inserted:  inserted,
		BatchSize: int(endIdx - startIdx + 1),
		Duration:  s.clock.Now().Sub(batchStart),
		Retried:   retried,
	})
	return inserted, nil
}

// checkpoint persists the cursor and derived generated count. The count is
// computed from the cursor rather than insert counts so idempotent re-runs
// over already-materialised ranges still report the right progress.
func (s *WorkerService) checkpoint(ctx context.Context, job *model.Job, cursor, batchSize int) {
	generated := int64(cursor) * int64(batchSize)
	if generated > job.TotalTickets {
		generated = job.TotalTickets
	}

	if err := s.jobs.UpdateProgress(ctx, core.ProgressUpdate{
		JobID:          job.ID,
		CurrentBatch:   cursor,
		GeneratedCount: generated,
		BatchSize:      batchSize,
	}); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "checkpoint failed",
			"job_id", job.ID,
			"cursor", cursor,
			"error", err,
		)
	}
}

// yield persists the cursor and returns the job to pending on cancellation,
// using a short detached context since the caller's is already done.
func (s *WorkerService) yield(job *model.Job, workerID string, cursor, batchSize int) {
	detached, cancel := context.WithTimeout(context.Background(), checkpointGrace)
	defer cancel()

	s.checkpoint(detached, job, cursor, batchSize)
	if err := s.jobs.MarkPending(detached, job.ID); err != nil && s.logger != nil {
		s.logger.ErrorContext(detached, "yield on cancellation failed",
			"job_id", job.ID,
			"worker_id", workerID,
			"error", err,
		)
	}
}

type failParams struct {
	cursor    int
	batchSize int
	elapsed   time.Duration
	err       error
}

func (s *WorkerService) fail(ctx context.Context, job *model.Job, workerID string, p failParams) *model.WorkerResult {
	// The cursor still marks the last fully completed batch, so a later
	// requeue could resume rather than restart.
	s.checkpoint(ctx, job, p.cursor, p.batchSize)

	msg := fmt.Sprintf("batch %d failed after %d attempts: %v", p.cursor, s.cfg.RetryAttempts, p.err)
	if err := s.jobs.MarkFailed(ctx, job.ID, msg); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "mark failed errored", "job_id", job.ID, "error", err)
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "job failed",
			"job_id", job.ID,
			"worker_id", workerID,
			"batch", p.cursor,
			"error", p.err,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: "failed",
		Result:     metrics.ResultError,
		Duration:   p.elapsed,
		Err:        p.err,
	})

	return s.result(job, workerID, resultParams{
		status:  model.JobStatusFailed,
		elapsed: p.elapsed,
	})
}

type completeParams struct {
	processed int
	inserted  int64
	elapsed   time.Duration
}

func (s *WorkerService) complete(ctx context.Context, job *model.Job, workerID string, p completeParams) (*model.WorkerResult, error) {
	if err := s.jobs.MarkCompleted(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("complete job %s: %w", job.ID, err)
	}

	if s.notifier != nil {
		// Fire-and-forget: a lost event never fails the job.
		if err := s.notifier.NotifyCompleted(ctx, model.CompletionEvent{
			RaffleID:       job.RaffleID,
			JobID:          job.ID,
			TotalTickets:   job.TotalTickets,
			ElapsedSeconds: p.elapsed.Seconds(),
		}); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "completion notify failed", "job_id", job.ID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "job completed",
			"job_id", job.ID,
			"worker_id", workerID,
			"total_tickets", job.TotalTickets,
			"elapsed", p.elapsed,
		)
	}
	metrics.EmitJobLifecycle(s.metrics, metrics.JobMetric{
		Transition: "completed",
		Result:     metrics.ResultSuccess,
		Duration:   p.elapsed,
	})

	return s.result(job, workerID, resultParams{
		success:   true,
		processed: p.processed,
		inserted:  p.inserted,
		status:    model.JobStatusCompleted,
		elapsed:   p.elapsed,
	}), nil
}

type resultParams struct {
	success   bool
	processed int
	inserted  int64
	status    model.JobStatus
	elapsed   time.Duration
}

func (s *WorkerService) result(job *model.Job, workerID string, p resultParams) *model.WorkerResult {
	res := &model.WorkerResult{
		Success:   p.success,
		WorkerID:  workerID,
		JobID:     job.ID,
		Processed: p.processed,
		Generated: p.inserted,
		Total:     job.TotalTickets,
		Status:    p.status,
		Elapsed:   p.elapsed,
	}
	if p.elapsed > 0 && p.inserted > 0 {
		res.AvgTps = float64(p.inserted) / p.elapsed.Seconds()
	}
	return res
}
