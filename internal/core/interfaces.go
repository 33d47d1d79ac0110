// Package core declares the ports between the ticket-generation services and
// their infrastructure adapters.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// ProgressUpdate carries a worker checkpoint for one job.
type ProgressUpdate struct {
	JobID          string
	CurrentBatch   int
	GeneratedCount int64
	BatchSize      int
}

// JobStore is the persisted job table, the sole source of truth for
// progress, status, and ownership.
type JobStore interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)

	// ReclaimStale returns running jobs whose started_at is older than the
	// watchdog timeout back to pending, clearing ownership. It is the
	// crash-recovery path for workers that died mid-batch.
	ReclaimStale(ctx context.Context, runningTimeout time.Duration) ([]string, error)

	CountRunning(ctx context.Context) (int, error)
	SelectPending(ctx context.Context, limit int) ([]*model.Job, error)

	MarkRunning(ctx context.Context, jobID, workerID string) (bool, error)
	MarkPending(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID, message string) error

	UpdateProgress(ctx context.Context, update ProgressUpdate) error
	Stats(ctx context.Context) (*model.JobStats, error)
}

// CleanupStore is the reaper's view of the job table: terminal jobs older
// than a retention cutoff are deleted to keep the table bounded, and pending
// jobs abandoned past a max age are failed so they stop competing for slots.
type CleanupStore interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	FailStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}

// BreakerStore persists the dispatch circuit breaker's counters in a single
// durable record, read-modify-written under one transaction.
type BreakerStore interface {
	Load(ctx context.Context) (model.BreakerState, error)
	// Mutate applies fn to the current state inside a row-locking
	// transaction and returns the stored result.
	Mutate(ctx context.Context, fn func(state model.BreakerState) model.BreakerState) (model.BreakerState, error)
}

// TicketWriter is the idempotent batch-insert primitive: materialising the
// same index range twice never creates duplicate ticket numbers, and the
// returned count only reflects rows actually inserted.
type TicketWriter interface {
	GenerateBatch(ctx context.Context, req GenerateBatchRequest) (int64, error)
}

// GenerateBatchRequest describes one contiguous index range to materialise.
type GenerateBatchRequest struct {
	RaffleID        string
	StartIndex      int64
	EndIndex        int64
	NumberingConfig json.RawMessage
}

// CompletionNotifier delivers the fire-and-forget completion message.
// Delivery failures must never fail the job.
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, event model.CompletionEvent) error
}

// WorkerInvoker dispatches one worker invocation for a job. An error return
// means the invocation itself failed (transport/platform level), as opposed
// to the worker reporting a handled batch failure in the result.
type WorkerInvoker interface {
	Invoke(ctx context.Context, jobID, workerID string) (*model.WorkerResult, error)
}
