package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/testutil"
)

func TestCompletionPublisher_NotifyCompleted(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	}()

	ctx := context.Background()
	publisher := NewCompletionPublisherWithChannel(client, "test:generation:completed", nil)

	sub := client.Subscribe(ctx, "test:generation:completed")
	defer func() {
		if err := sub.Close(); err != nil {
			t.Logf("warning: failed to close subscription: %v", err)
		}
	}()

	// Wait for the subscription to be established before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	event := model.CompletionEvent{
		JobID:          "job-1",
		RaffleID:       "raffle-1",
		TotalTickets:   10_000,
		ElapsedSeconds: 12.5,
	}

	require.NoError(t, publisher.NotifyCompleted(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got model.CompletionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, "job-1", got.JobID)
		assert.Equal(t, "raffle-1", got.RaffleID)
		assert.Equal(t, int64(10_000), got.TotalTickets)
		assert.InDelta(t, 12.5, got.ElapsedSeconds, 0.001)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for completion event")
	}
}

func TestCompletionPublisher_DefaultChannel(t *testing.T) {
	publisher := NewCompletionPublisher(nil, nil)
	assert.Equal(t, DefaultCompletionChannel, publisher.channel)
}

func TestCompletionPublisher_PublishFailure(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	require.NoError(t, client.Close())

	publisher := NewCompletionPublisher(client, nil)

	err := publisher.NotifyCompleted(context.Background(), model.CompletionEvent{
		JobID:    "job-1",
		RaffleID: "raffle-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish completion event")
}
