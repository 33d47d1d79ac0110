package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/raffleworks/ticketgen/config"
	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/mocks"
	"github.com/raffleworks/ticketgen/internal/testutil"
)

func reaperTestConfig() config.ReaperConfig {
	return config.ReaperConfig{
		Interval:        5 * time.Minute,
		CompletedMaxAge: 7 * 24 * time.Hour,
		FailedMaxAge:    24 * time.Hour,
		PendingMaxAge:   72 * time.Hour,
	}
}

func TestNewReaperService(t *testing.T) {
	ctrl := gomock.NewController(t)

	t.Run("creates service with valid options", func(t *testing.T) {
		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   mocks.NewMockCleanupStore(ctrl),
			Config: reaperTestConfig(),
		})

		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("returns error when repo is nil", func(t *testing.T) {
		_, err := NewReaperService(ReaperServiceOptions{
			Config: reaperTestConfig(),
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "CleanupStore is required")
	})
}

func TestReaperService_RunCleanup(t *testing.T) {
	t.Run("deletes terminal jobs past their retention cutoffs", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockCleanupStore(ctrl)

		now := testutil.TestTime()
		repo.EXPECT().FailStalePending(gomock.Any(), now.Add(-72*time.Hour)).Return(int64(1), nil)
		repo.EXPECT().DeleteCompletedBefore(gomock.Any(), now.Add(-7*24*time.Hour)).Return(int64(10), nil)
		repo.EXPECT().DeleteFailedBefore(gomock.Any(), now.Add(-24*time.Hour)).Return(int64(3), nil)

		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   repo,
			Config: reaperTestConfig(),
			Clock:  data.NewFixedTimeProvider(now),
		})
		require.NoError(t, err)

		require.NoError(t, svc.RunCleanup(context.Background()))
	})

	t.Run("returns error when completed cleanup fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockCleanupStore(ctrl)

		repo.EXPECT().FailStalePending(gomock.Any(), gomock.Any()).Return(int64(0), nil)
		repo.EXPECT().DeleteCompletedBefore(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("db gone"))

		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   repo,
			Config: reaperTestConfig(),
			Clock:  data.NewFixedTimeProvider(testutil.TestTime()),
		})
		require.NoError(t, err)

		require.Error(t, svc.RunCleanup(context.Background()))
	})
}

func TestReaperService_Run(t *testing.T) {
	t.Run("stops on context cancellation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mocks.NewMockCleanupStore(ctrl)

		repo.EXPECT().FailStalePending(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
		repo.EXPECT().DeleteCompletedBefore(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()
		repo.EXPECT().DeleteFailedBefore(gomock.Any(), gomock.Any()).Return(int64(0), nil).AnyTimes()

		svc, err := NewReaperService(ReaperServiceOptions{
			Repo:   repo,
			Config: reaperTestConfig(),
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- svc.Run(ctx)
		}()

		cancel()

		select {
		case runErr := <-done:
			require.NoError(t, runErr)
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after context cancellation")
		}
	})
}
