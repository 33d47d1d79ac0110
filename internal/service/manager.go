package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raffleworks/ticketgen/config"
	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/domain/breaker"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/observability/metrics"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
)

// Skip reasons reported in dispatch summaries.
const (
	SkipReasonBreakerOpen   = "circuit_breaker_open"
	SkipReasonAllBusy       = "all_workers_busy"
	SkipReasonNoPendingJobs = "no_pending_jobs"
)

// ManagerServiceOptions groups dependencies for ManagerService.
type ManagerServiceOptions struct {
	Jobs    core.JobStore        // Required: job store
	Breaker core.BreakerStore    // Required: durable breaker state
	Invoker core.WorkerInvoker   // Required: worker dispatch
	Config  config.ManagerConfig // Required: manager tuning
	Logger  *slog.Logger         // Optional: structured logger
	Metrics statsd.Sink          // Optional: metrics sink (StatsD-compatible)
	Clock   data.TimeProvider    // Optional: time source, defaults to real time
}

// ManagerService orchestrates one dispatch cycle at a time.
//
// Each cycle:
//   - gates on the durable circuit breaker,
//   - reclaims stale running jobs past the watchdog timeout,
//   - computes free worker slots against the concurrency cap,
//   - selects pending jobs by priority and age,
//   - and fans workers out concurrently, folding invocation errors back into
//     the breaker.
type ManagerService struct {
	jobs     core.JobStore
	breaker  core.BreakerStore
	invoker  core.WorkerInvoker
	cfg      config.ManagerConfig
	settings breaker.Settings
	logger   *slog.Logger
	metrics  statsd.Sink
	clock    data.TimeProvider
}

// NewManagerService constructs a new ManagerService.
func NewManagerService(opts ManagerServiceOptions) (*ManagerService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobStore is required")
	}
	if opts.Breaker == nil {
		return nil, errors.New("BreakerStore is required")
	}
	if opts.Invoker == nil {
		return nil, errors.New("WorkerInvoker is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	settings, err := breaker.NewSettings(cfg.BreakerThreshold, cfg.BreakerCooldown)
	if err != nil {
		return nil, fmt.Errorf("breaker settings: %w", err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "generation_manager")
	}

	return &ManagerService{
		jobs:     opts.Jobs,
		breaker:  opts.Breaker,
		invoker:  opts.Invoker,
		cfg:      cfg,
		settings: settings,
		logger:   logger,
		metrics:  opts.Metrics,
		clock:    clock,
	}, nil
}

// Run drives dispatch cycles at the configured interval until the context is
// cancelled. Returns nil on graceful shutdown.
func (s *ManagerService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting generation manager",
			"interval", s.cfg.Interval,
			"max_workers", s.cfg.MaxWorkers,
		)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "generation manager stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.RunCycle(ctx); err != nil && s.logger != nil {
				s.logger.ErrorContext(ctx, "dispatch cycle failed", "error", err)
			}
		}
	}
}

// RunCycle executes one dispatch cycle and returns its summary.
func (s *ManagerService) RunCycle(ctx context.Context) (*model.DispatchSummary, error) {
	started := s.clock.Now()

	state, err := s.breaker.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load breaker state: %w", err)
	}

	decision := s.settings.Gate(state, started)
	if decision.Suppress {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "dispatch suppressed by circuit breaker",
				"cooldown_remaining", decision.Remaining,
			)
		}
		return &model.DispatchSummary{
			CircuitBreaker:    breaker.Label(state),
			SkipReason:        SkipReasonBreakerOpen,
			CooldownRemaining: decision.Remaining,
			Elapsed:           s.clock.Now().Sub(started),
		}, nil
	}
	if decision.Reset {
		if state, err = s.breaker.Mutate(ctx, func(model.BreakerState) model.BreakerState {
			return breaker.Closed()
		}); err != nil {
			return nil, fmt.Errorf("reset breaker: %w", err)
		}
		if s.logger != nil {
			s.logger.InfoContext(ctx, "circuit breaker cooldown elapsed, resuming dispatch")
		}
	}

	reclaimed, err := s.jobs.ReclaimStale(ctx, s.cfg.RunningTimeout)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale jobs: %w", err)
	}

	running, err := s.jobs.CountRunning(ctx)
	if err != nil {
		return nil, fmt.Errorf("count running jobs: %w", err)
	}

	summary := &model.DispatchSummary{
		Reclaimed:      len(reclaimed),
		ActiveWorkers:  running,
		CircuitBreaker: breaker.Label(state),
	}

	slots := s.cfg.MaxWorkers - running
	if slots <= 0 {
		summary.SkipReason = SkipReasonAllBusy
		summary.Elapsed = s.clock.Now().Sub(started)
		return summary, nil
	}

	jobs, err := s.jobs.SelectPending(ctx, slots)
	if err != nil {
		return nil, fmt.Errorf("select pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		summary.SkipReason = SkipReasonNoPendingJobs
		summary.Elapsed = s.clock.Now().Sub(started)
		return summary, nil
	}

	successful, failed, invocationErrors := s.dispatch(ctx, jobs)
	summary.Dispatched = len(jobs)
	summary.Successful = successful
	summary.Failed = failed

	state, err = s.settle(ctx, state, invocationErrors)
	if err != nil {
		return nil, err
	}
	summary.CircuitBreaker = breaker.Label(state)
	summary.Elapsed = s.clock.Now().Sub(started)

	metrics.EmitDispatchCycle(s.metrics, summary.Dispatched, summary.Failed, summary.Reclaimed, summary.CircuitBreaker)
	if s.logger != nil {
		s.logger.InfoContext(ctx, "dispatch cycle finished",
			"dispatched", summary.Dispatched,
			"successful", summary.Successful,
			"failed", summary.Failed,
			"reclaimed", summary.Reclaimed,
			"breaker", summary.CircuitBreaker,
			"elapsed", summary.Elapsed,
		)
	}
	return summary, nil
}

// dispatch fans workers out over the selected jobs and tallies outcomes. A
// worker slot identity is derived from the job's position so log lines stay
// attributable even with concurrent invocations.
//
// The tally separates worker-handled failures (result.Success == false, the
// worker already marked the job failed) from invocation errors (the call
// itself broke). Only the latter count toward the breaker.
func (s *ManagerService) dispatch(ctx context.Context, jobs []*model.Job) (successful, failed, invocationErrors int) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for i, job := range jobs {
		workerID := fmt.Sprintf("ticket-worker-%d", i%s.cfg.MaxWorkers)
		g.Go(func() error {
			result, err := s.invoker.Invoke(gctx, job.ID, workerID)
			if err != nil {
				if s.logger != nil {
					s.logger.ErrorContext(gctx, "worker invocation failed",
						"job_id", job.ID,
						"worker_id", workerID,
						"error", err,
					)
				}
				// Surface the failure on the job row now rather than leaving
				// the claim to the watchdog timeout. The running-status guard
				// in MarkFailed keeps unclaimed jobs dispatchable.
				msg := fmt.Sprintf("worker invocation failed: %v", err)
				if markErr := s.jobs.MarkFailed(gctx, job.ID, msg); markErr != nil && s.logger != nil {
					s.logger.ErrorContext(gctx, "mark invocation failure errored",
						"job_id", job.ID,
						"error", markErr,
					)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failed++
				invocationErrors++
			case result != nil && !result.Success:
				failed++
			default:
				successful++
			}
			// Failures are tallied, never propagated: one bad job must not
			// cancel the sibling invocations.
			return nil
		})
	}

	_ = g.Wait()
	return successful, failed, invocationErrors
}

// settle folds this cycle's invocation errors into the durable breaker state.
// Worker-handled batch failures never reach here: the worker absorbed them
// into the job row already. A cycle without invocation errors clears any
// accumulated failures.
func (s *ManagerService) settle(ctx context.Context, state model.BreakerState, invocationErrors int) (model.BreakerState, error) {
	switch {
	case invocationErrors > 0:
		now := s.clock.Now()
		next, err := s.breaker.Mutate(ctx, func(current model.BreakerState) model.BreakerState {
			return s.settings.RecordFailures(current, invocationErrors, now)
		})
		if err != nil {
			return state, fmt.Errorf("record breaker failures: %w", err)
		}
		return next, nil

	case state.Failures > 0:
		next, err := s.breaker.Mutate(ctx, func(model.BreakerState) model.BreakerState {
			return breaker.Closed()
		})
		if err != nil {
			return state, fmt.Errorf("clear breaker failures: %w", err)
		}
		return next, nil

	default:
		return state, nil
	}
}
