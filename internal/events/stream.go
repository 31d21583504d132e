package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// DefaultStream is the Redis stream drained by projection consumers.
const DefaultStream = "onboarding:events"

// StreamPublisher appends domain events to a Redis stream for
// asynchronous read-model projection.
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamPublisher builds a publisher; stream falls back to
// DefaultStream when empty.
func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

// Publish XADDs the event. Failures are logged, not returned: the stream
// is a best-effort projection feed and must not fail the commit path.
func (p *StreamPublisher) Publish(ctx context.Context, event domain.Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"id":           event.ID,
			"type":         string(event.Type),
			"aggregate_id": event.AggregateID,
			"payload":      payload,
		},
	}).Err()
	if err != nil {
		p.logger.Warn("publish event to stream",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
	return nil
}
