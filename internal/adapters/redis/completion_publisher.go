// Package redis provides Redis-based adapters for the ticketgen system.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/raffleworks/ticketgen/internal/core"
	"github.com/raffleworks/ticketgen/internal/domain/model"
)

// DefaultCompletionChannel is the pub/sub channel completion events land on.
const DefaultCompletionChannel = "raffle:generation:completed"

// CompletionPublisher publishes job completion events over Redis pub/sub.
// Delivery is fire-and-forget: downstream consumers that miss an event can
// always re-read job state from the database.
type CompletionPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

// NewCompletionPublisher creates a publisher on the default channel.
func NewCompletionPublisher(client redis.UniversalClient, logger *slog.Logger) *CompletionPublisher {
	return &CompletionPublisher{
		client:  client,
		channel: DefaultCompletionChannel,
		logger:  logger,
	}
}

// NewCompletionPublisherWithChannel creates a publisher on a custom channel.
func NewCompletionPublisherWithChannel(client redis.UniversalClient, channel string, logger *slog.Logger) *CompletionPublisher {
	return &CompletionPublisher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

var _ core.CompletionNotifier = (*CompletionPublisher)(nil)

// NotifyCompleted publishes one completion event. Errors are returned for
// logging but callers must not fail the job on them.
func (p *CompletionPublisher) NotifyCompleted(ctx context.Context, event model.CompletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		if p.logger != nil {
			p.logger.WarnContext(ctx, "completion publish failed",
				"raffle_id", event.RaffleID,
				"job_id", event.JobID,
				"error", err,
			)
		}
		return fmt.Errorf("publish completion event: %w", err)
	}
	return nil
}
