// Package model defines the core data types shared across the ticketgen job system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the current status of a generation job.
type JobStatus string

const (
	// JobStatusPending indicates a job is waiting to be dispatched.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates a worker currently owns the job.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates every ticket has been generated.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job gave up after exhausting batch retries.
	JobStatusFailed JobStatus = "failed"
)

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusCompleted ||
		s == JobStatusFailed
}

// MaxTotalTickets bounds how many tickets a single raffle may request.
const MaxTotalTickets = 10_000_000

// ErrNoJobsAvailable is returned when no pending jobs exist at selection time.
var ErrNoJobsAvailable = errors.New("no jobs available")

// Job is one ticket-generation request for a raffle, tracked as a row with
// resumable progress. CurrentBatch is the resumption cursor: it always
// describes a real prefix of completed index ranges.
type Job struct {
	ID              string          `json:"id"                      db:"id"`
	RaffleID        string          `json:"raffle_id"               db:"raffle_id"`
	TotalTickets    int64           `json:"total_tickets"           db:"total_tickets"`
	NumberingConfig json.RawMessage `json:"numbering_config"        db:"numbering_config"`
	Status          JobStatus       `json:"status"                  db:"status"`
	Priority        int             `json:"priority"                db:"priority"`
	WorkerID        *string         `json:"worker_id,omitempty"     db:"worker_id"`
	CurrentBatch    int             `json:"current_batch"           db:"current_batch"`
	BatchSize       int             `json:"batch_size"              db:"batch_size"`
	GeneratedCount  int64           `json:"generated_count"         db:"generated_count"`
	ErrorMessage    *string         `json:"error_message,omitempty" db:"error_message"`
	StartedAt       *time.Time      `json:"started_at,omitempty"    db:"started_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"  db:"completed_at"`
	CreatedAt       time.Time       `json:"created_at"              db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"              db:"updated_at"`
}

// Remaining returns how many tickets are still unconfirmed.
func (j *Job) Remaining() int64 {
	remaining := j.TotalTickets - j.GeneratedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Terminal reports whether the job reached a terminal status.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// CreateJobRequest represents a request to create a new generation job.
type CreateJobRequest struct {
	RaffleID        string          `json:"raffle_id"`
	TotalTickets    int64           `json:"total_tickets"`
	NumberingConfig json.RawMessage `json:"numbering_config,omitempty"`
	Priority        int             `json:"priority,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.RaffleID) == "" {
		return errors.New("raffle id is required")
	}
	if r.TotalTickets < 1 {
		return errors.New("total tickets must be at least 1")
	}
	if r.TotalTickets > MaxTotalTickets {
		return fmt.Errorf("total tickets must not exceed %d", int64(MaxTotalTickets))
	}
	if r.Priority < 0 || r.Priority > 100 {
		return errors.New("priority must be between 0 and 100")
	}
	return nil
}

// JobStats represents counts of generation jobs in each state.
type JobStats struct {
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// BreakerState is the durable circuit-breaker record. It lives in a single
// database row so the breaker survives process restarts.
type BreakerState struct {
	Failures      int        `json:"failures"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	Open          bool       `json:"open"`
}

// WorkerResult summarises one worker invocation over a single job.
type WorkerResult struct {
	Success   bool          `json:"success"`
	WorkerID  string        `json:"workerId"`
	JobID     string        `json:"jobId"`
	Processed int           `json:"processed"`
	Generated int64         `json:"generated"`
	Total     int64         `json:"total"`
	Status    JobStatus     `json:"status"`
	Elapsed   time.Duration `json:"elapsed"`
	AvgTps    float64       `json:"avgTps"`
}

// DispatchSummary is the JSON summary returned by one manager cycle.
type DispatchSummary struct {
	Dispatched        int           `json:"dispatched"`
	Successful        int           `json:"successful"`
	Failed            int           `json:"failed"`
	Reclaimed         int           `json:"reclaimed"`
	ActiveWorkers     int           `json:"activeWorkers"`
	CircuitBreaker    string        `json:"circuitBreaker"`
	Elapsed           time.Duration `json:"elapsed"`
	SkipReason        string        `json:"skipReason,omitempty"`
	CooldownRemaining time.Duration `json:"cooldownRemaining,omitempty"`
}

// Breaker state labels used in dispatch summaries.
const (
	BreakerStateClosed = "closed"
	BreakerStateOpen   = "open"
)

// CompletionEvent is the fire-and-forget message published when a job
// finishes generating every ticket.
type CompletionEvent struct {
	RaffleID       string  `json:"raffle_id"`
	JobID          string  `json:"job_id"`
	TotalTickets   int64   `json:"total_tickets"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}
