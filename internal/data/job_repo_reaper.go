package data

import (
	"context"
	"fmt"
	"time"
)

// DeleteCompletedBefore deletes completed jobs older than the cutoff and
// returns how many rows were removed.
func (r *JobRepo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM generation_jobs
		WHERE status = 'completed'
		  AND completed_at IS NOT NULL
		  AND completed_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old completed jobs: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete completed rows affected: %w", err)
	}
	return rowsAffected, nil
}

// DeleteFailedBefore deletes failed jobs older than the cutoff and returns
// how many rows were removed.
func (r *JobRepo) DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM generation_jobs
		WHERE status = 'failed'
		  AND completed_at IS NOT NULL
		  AND completed_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old failed jobs: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete failed rows affected: %w", err)
	}
	return rowsAffected, nil
}

// FailStalePending fails pending jobs created before the cutoff that were
// never picked up, so abandoned work stops competing for dispatch slots.
func (r *JobRepo) FailStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	currentTime := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = 'failed',
		    error_message = 'abandoned: exceeded pending max age',
		    completed_at = $2,
		    updated_at = $2
		WHERE status = 'pending'
		  AND created_at < $1
	`, cutoff.UTC(), currentTime)
	if err != nil {
		return 0, fmt.Errorf("fail stale pending jobs: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fail stale pending rows affected: %w", err)
	}
	return rowsAffected, nil
}
