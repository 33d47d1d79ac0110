package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/data/pgxutil"
	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// ErrJobNotFound is returned when a job is not found.
var ErrJobNotFound = errors.New("job not found")

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// JobRepo provides database operations for generation job management. The
// generation_jobs table is the sole source of truth for job status, progress,
// and worker ownership.
type JobRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &JobRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

var _ core.JobStore = (*JobRepo)(nil)

const jobColumns = `
  id,
  raffle_id,
  total_tickets,
  numbering_config,
  status,
  priority,
  worker_id,
  current_batch,
  batch_size,
  generated_count,
  error_message,
  started_at,
  completed_at,
  created_at,
  updated_at
`

// Create inserts a new pending generation job.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if validateErr := req.Validate(); validateErr != nil {
		return nil, validateErr
	}

	numbering := []byte(`{}`)
	if len(req.NumberingConfig) > 0 {
		numbering = req.NumberingConfig
	}

	now := r.timeProvider.Now().UTC()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO generation_jobs(id, raffle_id, total_tickets, numbering_config, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $6)
		RETURNING `+jobColumns, uuid.NewString(), req.RaffleID, req.TotalTickets, numbering, req.Priority, now)

	job, err := scanJobFromRow(row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT `+jobColumns+`
			FROM generation_jobs
			WHERE id = $1
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		job, err = collectJobFromRows(rows)
		return err
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Advisory lock namespace for ReclaimStale so concurrent manager cycles do
// not race each other's reclamation pass.
const (
	advisoryLockReclaimMajor int64 = 2001
	advisoryLockReclaimMinor int64 = 1
)

// ReclaimStale returns running jobs whose started_at is older than the
// watchdog timeout back to pending, clearing worker ownership. Progress
// fields are untouched so the next worker resumes from the last checkpoint.
func (r *JobRepo) ReclaimStale(ctx context.Context, runningTimeout time.Duration) ([]string, error) {
	if runningTimeout <= 0 {
		return nil, errors.New("runningTimeout must be positive")
	}

	var reclaimed []string
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1::integer, $2::integer)", advisoryLockReclaimMajor, advisoryLockReclaimMinor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			currentTime := r.timeProvider.Now()
			cutoff := currentTime.Add(-runningTimeout)
			rows, err := tx.QueryContext(ctx, `
				UPDATE generation_jobs
				SET status = 'pending',
				    worker_id = NULL,
				    started_at = NULL,
				    updated_at = $2
				WHERE status = 'running'
				  AND started_at IS NOT NULL
				  AND started_at < $1
				RETURNING id
			`, cutoff.UTC(), currentTime.UTC())
			if err != nil {
				return fmt.Errorf("reclaim stale jobs: %w", err)
			}
			defer func() {
				if cerr := rows.Close(); cerr != nil {
					_ = cerr
				}
			}()

			for rows.Next() {
				var id string
				if scanErr := rows.Scan(&id); scanErr != nil {
					return fmt.Errorf("scan reclaimed id: %w", scanErr)
				}
				reclaimed = append(reclaimed, id)
			}
			return rows.Err()
		},
	})
	if err != nil {
		return nil, err
	}

	if len(reclaimed) > 0 && r.logger != nil {
		r.logger.WarnContext(ctx, "reclaimed stale running jobs",
			"count", len(reclaimed),
			"timeout", runningTimeout,
		)
	}
	return reclaimed, nil
}

// CountRunning returns how many jobs are currently running.
func (r *JobRepo) CountRunning(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM generation_jobs WHERE status = 'running'
	`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count running jobs: %w", err)
	}
	return n, nil
}

// SelectPending returns up to limit pending jobs ordered by priority (lower
// value first) and then creation time.
func (r *JobRepo) SelectPending(ctx context.Context, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM generation_jobs
		WHERE status = 'pending'
		ORDER BY priority ASC, created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending jobs: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var jobs []*model.Job
	for rows.Next() {
		job, scanErr := scanJobFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan pending job: %w", scanErr)
		}
		jobs = append(jobs, job)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate pending jobs: %w", rowsErr)
	}
	return jobs, nil
}

// MarkRunning transitions a pending job to running under the given worker.
// The status guard makes the claim atomic: a false return means another
// worker got there first or the job is no longer pending.
func (r *JobRepo) MarkRunning(ctx context.Context, jobID, workerID string) (bool, error) {
	currentTime := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'running',
		    worker_id = $2,
		    started_at = $3,
		    updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`, jobID, workerID, currentTime)
	if err != nil {
		return false, fmt.Errorf("mark job running: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark running rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// MarkPending yields a running job back to the pending pool, keeping its
// progress cursor so the next invocation resumes where this one stopped.
func (r *JobRepo) MarkPending(ctx context.Context, jobID string) error {
	currentTime := r.timeProvider.Now().UTC()
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'pending',
		    worker_id = NULL,
		    started_at = NULL,
		    updated_at = $2
		WHERE id = $1 AND status = 'running'
	`, jobID, currentTime); err != nil {
		return fmt.Errorf("mark job pending: %w", err)
	}
	return nil
}

// MarkCompleted marks a job as completed successfully.
func (r *JobRepo) MarkCompleted(ctx context.Context, jobID string) error {
	currentTime := r.timeProvider.Now().UTC()
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'completed',
		    completed_at = $2,
		    error_message = NULL,
		    updated_at = $2
		WHERE id = $1 AND status = 'running'
	`, jobID, currentTime); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

// MarkFailed marks a job as failed with the given error message.
func (r *JobRepo) MarkFailed(ctx context.Context, jobID, message string) error {
	currentTime := r.timeProvider.Now().UTC()
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'failed',
		    error_message = $2,
		    completed_at = $3,
		    updated_at = $3
		WHERE id = $1 AND status = 'running'
	`, jobID, message, currentTime); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// UpdateProgress persists a worker checkpoint. GREATEST keeps generated_count
// monotonic even if a stale checkpoint arrives after a reclaim.
func (r *JobRepo) UpdateProgress(ctx context.Context, update core.ProgressUpdate) error {
	currentTime := r.timeProvider.Now().UTC()
	if _, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET current_batch = GREATEST(current_batch, $2),
		    generated_count = GREATEST(generated_count, $3),
		    batch_size = $4,
		    updated_at = $5
		WHERE id = $1
	`, update.JobID, update.CurrentBatch, update.GeneratedCount, update.BatchSize, currentTime); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// Stats returns counts of generation jobs in each state.
func (r *JobRepo) Stats(ctx context.Context) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'running')   AS running,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM generation_jobs
  `).Scan(
		&s.Pending,
		&s.Running,
		&s.Completed,
		&s.Failed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &s, nil
}

// collectJobFromRows collects a single job from pgx rows using pgx v5 helpers.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}

	job, err := scanJobFromRow(rows)
	if err != nil {
		return nil, err
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}

	return job, nil
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

type jobRowData struct {
	numbering              []byte
	workerID, errorMessage sql.NullString
	startedAt, completedAt sql.NullTime
}

func (d *jobRowData) scanInto(scanner jobRowScanner, job *model.Job) error {
	return scanner.Scan(
		&job.ID,
		&job.RaffleID,
		&job.TotalTickets,
		&d.numbering,
		&job.Status,
		&job.Priority,
		&d.workerID,
		&job.CurrentBatch,
		&job.BatchSize,
		&job.GeneratedCount,
		&d.errorMessage,
		&d.startedAt,
		&d.completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.Job) {
	job.NumberingConfig = cloneJSON(d.numbering)
	job.WorkerID = cloneNullableString(d.workerID)
	job.ErrorMessage = cloneNullableString(d.errorMessage)
	job.StartedAt = cloneNullableTime(d.startedAt)
	job.CompletedAt = cloneNullableTime(d.completedAt)
}

func scanJobFromRow(scanner jobRowScanner) (*model.Job, error) {
	job := &model.Job{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}

	data.apply(job)
	return job, nil
}

func cloneJSON(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return append(json.RawMessage(nil), raw...)
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
