package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/testutil"
)

func TestJobRepo_Create(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRepo(db, RepoConfig{})
	ctx := context.Background()

	t.Run("creates a pending job with defaults", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{
			RaffleID:     "raffle-create-1",
			TotalTickets: 1000,
			Priority:     10,
		})

		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, model.JobStatusPending, job.Status)
		assert.Equal(t, int64(1000), job.TotalTickets)
		assert.Equal(t, 10, job.Priority)
		assert.Zero(t, job.CurrentBatch)
		assert.Zero(t, job.GeneratedCount)
		assert.Nil(t, job.WorkerID)
		assert.JSONEq(t, `{}`, string(job.NumberingConfig))
	})

	t.Run("persists the numbering config", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{
			RaffleID:        "raffle-create-2",
			TotalTickets:    500,
			NumberingConfig: json.RawMessage(`{"format":"prefixed","prefix":"RF-","pad":6}`),
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"format":"prefixed","prefix":"RF-","pad":6}`, string(job.NumberingConfig))
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.CreateJobRequest{
			RaffleID:     "raffle-create-3",
			TotalTickets: 0,
		})
		require.Error(t, err)
	})
}

func TestJobRepo_GetByID(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRepo(db, RepoConfig{})
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.CreateJobRequest{
		RaffleID:     "raffle-get-1",
		TotalTickets: 2000,
	})
	require.NoError(t, err)

	t.Run("returns an existing job", func(t *testing.T) {
		job, getErr := repo.GetByID(ctx, created.ID)
		require.NoError(t, getErr)
		assert.Equal(t, created.ID, job.ID)
		assert.Equal(t, "raffle-get-1", job.RaffleID)
	})

	t.Run("returns ErrJobNotFound for unknown id", func(t *testing.T) {
		_, getErr := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
		require.ErrorIs(t, getErr, ErrJobNotFound)
	})
}

func TestJobRepo_SelectPending(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
	ctx := context.Background()

	// Lower priority value wins; creation time breaks ties.
	older, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-sp-a", TotalTickets: 100, Priority: 50})
	require.NoError(t, err)

	clock.AddTime(time.Minute)
	urgent, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-sp-b", TotalTickets: 100, Priority: 1})
	require.NoError(t, err)

	clock.AddTime(time.Minute)
	newer, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-sp-c", TotalTickets: 100, Priority: 50})
	require.NoError(t, err)

	jobs, err := repo.SelectPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, urgent.ID, jobs[0].ID)
	assert.Equal(t, older.ID, jobs[1].ID)
	assert.Equal(t, newer.ID, jobs[2].ID)

	t.Run("honours the limit", func(t *testing.T) {
		limited, selErr := repo.SelectPending(ctx, 1)
		require.NoError(t, selErr)
		require.Len(t, limited, 1)
		assert.Equal(t, urgent.ID, limited[0].ID)
	})

	t.Run("non-positive limit returns nothing", func(t *testing.T) {
		none, selErr := repo.SelectPending(ctx, 0)
		require.NoError(t, selErr)
		assert.Empty(t, none)
	})
}

func TestJobRepo_StatusTransitions(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRepo(db, RepoConfig{})
	ctx := context.Background()

	t.Run("MarkRunning claims exactly once", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-st-1", TotalTickets: 100})
		require.NoError(t, err)

		claimed, err := repo.MarkRunning(ctx, job.ID, "ticket-worker-0")
		require.NoError(t, err)
		assert.True(t, claimed)

		// Second claim loses: the job is no longer pending.
		claimed, err = repo.MarkRunning(ctx, job.ID, "ticket-worker-1")
		require.NoError(t, err)
		assert.False(t, claimed)

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusRunning, got.Status)
		require.NotNil(t, got.WorkerID)
		assert.Equal(t, "ticket-worker-0", *got.WorkerID)
		assert.NotNil(t, got.StartedAt)
	})

	t.Run("MarkPending yields and clears ownership", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-st-2", TotalTickets: 100})
		require.NoError(t, err)

		_, err = repo.MarkRunning(ctx, job.ID, "ticket-worker-0")
		require.NoError(t, err)
		require.NoError(t, repo.MarkPending(ctx, job.ID))

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, got.Status)
		assert.Nil(t, got.WorkerID)
		assert.Nil(t, got.StartedAt)
	})

	t.Run("MarkCompleted only applies to running jobs", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-st-3", TotalTickets: 100})
		require.NoError(t, err)

		// Still pending: the guard makes this a no-op.
		require.NoError(t, repo.MarkCompleted(ctx, job.ID))
		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusPending, got.Status)

		_, err = repo.MarkRunning(ctx, job.ID, "ticket-worker-0")
		require.NoError(t, err)
		require.NoError(t, repo.MarkCompleted(ctx, job.ID))

		got, err = repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusCompleted, got.Status)
		assert.NotNil(t, got.CompletedAt)
	})

	t.Run("MarkFailed records the error message", func(t *testing.T) {
		job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-st-4", TotalTickets: 100})
		require.NoError(t, err)

		_, err = repo.MarkRunning(ctx, job.ID, "ticket-worker-0")
		require.NoError(t, err)
		require.NoError(t, repo.MarkFailed(ctx, job.ID, "batch 3 failed after 4 attempts: boom"))

		got, err := repo.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusFailed, got.Status)
		require.NotNil(t, got.ErrorMessage)
		assert.Contains(t, *got.ErrorMessage, "batch 3 failed")
		assert.NotNil(t, got.CompletedAt)
	})
}

func TestJobRepo_UpdateProgress(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRepo(db, RepoConfig{})
	ctx := context.Background()

	job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-up-1", TotalTickets: 10_000})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProgress(ctx, core.ProgressUpdate{
		JobID: job.ID, CurrentBatch: 4, GeneratedCount: 4000, BatchSize: 1000,
	}))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentBatch)
	assert.Equal(t, int64(4000), got.GeneratedCount)
	assert.Equal(t, 1000, got.BatchSize)

	// A stale checkpoint must never roll progress backwards.
	require.NoError(t, repo.UpdateProgress(ctx, core.ProgressUpdate{
		JobID: job.ID, CurrentBatch: 2, GeneratedCount: 2000, BatchSize: 1000,
	}))

	got, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentBatch)
	assert.Equal(t, int64(4000), got.GeneratedCount)
}

func TestJobRepo_ReclaimStale(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
	ctx := context.Background()

	stale, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-rs-1", TotalTickets: 100})
	require.NoError(t, err)
	_, err = repo.MarkRunning(ctx, stale.ID, "ticket-worker-0")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateProgress(ctx, core.ProgressUpdate{
		JobID: stale.ID, CurrentBatch: 3, GeneratedCount: 60, BatchSize: 20,
	}))

	// Move past the watchdog timeout and start a second, fresh running job.
	clock.AddTime(31 * time.Minute)
	fresh, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-rs-2", TotalTickets: 100})
	require.NoError(t, err)
	_, err = repo.MarkRunning(ctx, fresh.ID, "ticket-worker-1")
	require.NoError(t, err)

	reclaimed, err := repo.ReclaimStale(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, stale.ID, reclaimed[0])

	// The stale job is pending again with its progress intact.
	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, got.Status)
	assert.Nil(t, got.WorkerID)
	assert.Nil(t, got.StartedAt)
	assert.Equal(t, 3, got.CurrentBatch)
	assert.Equal(t, int64(60), got.GeneratedCount)

	// The fresh job is untouched.
	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, got.Status)

	t.Run("rejects non-positive timeouts", func(t *testing.T) {
		_, reclaimErr := repo.ReclaimStale(ctx, 0)
		require.Error(t, reclaimErr)
	})
}

func TestJobRepo_Stats(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRepo(db, RepoConfig{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-stats", TotalTickets: 100})
		require.NoError(t, err)
	}
	running, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-stats", TotalTickets: 100})
	require.NoError(t, err)
	_, err = repo.MarkRunning(ctx, running.ID, "ticket-worker-0")
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Running)
	assert.Zero(t, stats.Completed)
	assert.Zero(t, stats.Failed)
}

func TestJobRepo_Reaper(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
	ctx := context.Background()

	finish := func(raffleID string, fail bool) {
		t.Helper()
		job, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: raffleID, TotalTickets: 100})
		require.NoError(t, err)
		_, err = repo.MarkRunning(ctx, job.ID, "ticket-worker-0")
		require.NoError(t, err)
		if fail {
			require.NoError(t, repo.MarkFailed(ctx, job.ID, "boom"))
		} else {
			require.NoError(t, repo.MarkCompleted(ctx, job.ID))
		}
	}

	finish("raffle-reap-old", false)
	finish("raffle-reap-old", true)

	clock.AddTime(48 * time.Hour)
	finish("raffle-reap-new", false)

	cutoff := clock.Now().Add(-24 * time.Hour)

	deleted, err := repo.DeleteCompletedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteFailedBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, stats.Failed)
}

func TestJobRepo_FailStalePending(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	clock := NewFixedTimeProvider(testutil.TestTime())
	repo := NewJobRepo(db, RepoConfig{TimeProvider: clock})
	ctx := context.Background()

	abandoned, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-abandoned", TotalTickets: 100})
	require.NoError(t, err)

	clock.AddTime(73 * time.Hour)

	fresh, err := repo.Create(ctx, &model.CreateJobRequest{RaffleID: "raffle-fresh", TotalTickets: 100})
	require.NoError(t, err)

	failed, err := repo.FailStalePending(ctx, clock.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)

	got, err := repo.GetByID(ctx, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "abandoned")
	assert.NotNil(t, got.CompletedAt)

	got, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, got.Status)
}
