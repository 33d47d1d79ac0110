package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/raffleworks/ticketgen/config"
	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/observability/statsd"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.CleanupStore   // Required: cleanup repository
	Config  config.ReaperConfig // Required: reaper configuration
	Logger  *slog.Logger        // Optional: structured logger
	Metrics statsd.Sink         // Optional: metrics sink (StatsD-compatible)
	Clock   data.TimeProvider   // Optional: time source, defaults to real time
}

// ReaperService deletes old terminal generation jobs to keep the jobs table
// bounded and fails pending jobs abandoned past their max age. Running jobs
// are never touched; the manager's watchdog owns those.
type ReaperService struct {
	repo    core.CleanupStore
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
	clock   data.TimeProvider
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("CleanupStore is required")
	}

	cfg := opts.Config
	cfg.Sanitize()

	clock := opts.Clock
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "reaper_service")
		logger.Debug("ReaperService initialized",
			"interval", cfg.Interval,
			"completed_max_age", cfg.CompletedMaxAge,
			"failed_max_age", cfg.FailedMaxAge,
			"pending_max_age", cfg.PendingMaxAge,
		)
	}

	return &ReaperService{
		repo:    opts.Repo,
		config:  cfg,
		logger:  logger,
		metrics: opts.Metrics,
		clock:   clock,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunCleanup(ctx); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "initial cleanup failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if err := s.RunCleanup(ctx); err != nil && s.logger != nil {
				// Continue running despite errors
				s.logger.ErrorContext(ctx, "cleanup failed", "error", err)
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// RunCleanup performs one cleanup pass over terminal and abandoned jobs.
func (s *ReaperService) RunCleanup(ctx context.Context) error {
	now := s.clock.Now()

	abandoned, err := s.repo.FailStalePending(ctx, now.Add(-s.config.PendingMaxAge))
	if err != nil {
		return err
	}
	completed, err := s.repo.DeleteCompletedBefore(ctx, now.Add(-s.config.CompletedMaxAge))
	if err != nil {
		return err
	}
	failed, err := s.repo.DeleteFailedBefore(ctx, now.Add(-s.config.FailedMaxAge))
	if err != nil {
		return err
	}

	if s.metrics != nil {
		if abandoned > 0 {
			s.metrics.Count("generation.reaper.abandoned", abandoned, nil)
		}
		if completed > 0 {
			s.metrics.Count("generation.reaper.deleted", completed, map[string]string{"status": "completed"})
		}
		if failed > 0 {
			s.metrics.Count("generation.reaper.deleted", failed, map[string]string{"status": "failed"})
		}
	}

	if (abandoned > 0 || completed > 0 || failed > 0) && s.logger != nil {
		s.logger.InfoContext(ctx, "reaped old jobs",
			"abandoned_failed", abandoned,
			"completed_deleted", completed,
			"failed_deleted", failed,
		)
	}
	return nil
}
