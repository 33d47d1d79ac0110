package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/testutil"
)

func TestBreakerRepo_Load(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewBreakerRepo(db, RepoConfig{})
	ctx := context.Background()

	t.Run("missing row reads as closed", func(t *testing.T) {
		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Zero(t, state.Failures)
		assert.False(t, state.Open)
		assert.Nil(t, state.LastFailureAt)
	})
}

func TestBreakerRepo_Mutate(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewBreakerRepo(db, RepoConfig{})
	ctx := context.Background()

	failureTime := testutil.TestTime()

	t.Run("creates the row on first use and persists the result", func(t *testing.T) {
		next, err := repo.Mutate(ctx, func(current model.BreakerState) model.BreakerState {
			assert.Zero(t, current.Failures)
			current.Failures = 3
			current.LastFailureAt = &failureTime
			return current
		})

		require.NoError(t, err)
		assert.Equal(t, 3, next.Failures)
		assert.False(t, next.Open)

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, state.Failures)
		require.NotNil(t, state.LastFailureAt)
		assert.True(t, state.LastFailureAt.Equal(failureTime))
	})

	t.Run("mutations see the previously stored state", func(t *testing.T) {
		next, err := repo.Mutate(ctx, func(current model.BreakerState) model.BreakerState {
			assert.Equal(t, 3, current.Failures)
			current.Failures += 2
			current.Open = true
			now := failureTime.Add(time.Minute)
			current.LastFailureAt = &now
			return current
		})

		require.NoError(t, err)
		assert.Equal(t, 5, next.Failures)
		assert.True(t, next.Open)

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.True(t, state.Open)
		assert.Equal(t, 5, state.Failures)
	})

	t.Run("reset clears counters and timestamp", func(t *testing.T) {
		_, err := repo.Mutate(ctx, func(model.BreakerState) model.BreakerState {
			return model.BreakerState{}
		})
		require.NoError(t, err)

		state, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Zero(t, state.Failures)
		assert.False(t, state.Open)
		assert.Nil(t, state.LastFailureAt)
	})
}
