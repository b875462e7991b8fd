package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing resolution events.
type Publisher interface {
	// Publish adds an event to the stream and returns the message ID
	// assigned by Redis.
	Publish(ctx context.Context, stream string, event ResolutionEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event with XADD. "*" lets Redis assign the message ID.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event ResolutionEvent) (string, error) {
	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()

	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s tick=%s err=%v", stream, event.TickID, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s tick=%s decision=%s msgID=%s",
		stream, event.TickID, event.Decision, messageID)
	return messageID, nil
}

// PublishResolution is a convenience method for the notification callback path.
func (p *RedisPublisher) PublishResolution(ctx context.Context, userID int64, tickID, decision string, servingML int) (string, error) {
	event := NewResolutionEvent(userID, tickID, decision, servingML)
	return p.Publish(ctx, StreamResolutions, event)
}
