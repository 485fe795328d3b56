package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream events are appended to
const DefaultStream = "events:leads"

/* StreamPublisher appends events to a capped Redis Stream
 * Lets a deployment without Kafka still feed consumer groups
 */
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher on an existing Redis client
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: 10000,
	}
}

// Publish appends the event to the stream
func (p *StreamPublisher) Publish(ctx context.Context, e Event) error {
	value, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":          string(e.Type),
			"submission_id": e.SubmissionID,
			"event":         value,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("adding to stream: %w", err)
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the repository
func (p *StreamPublisher) Close() error {
	return nil
}
