// internal/cache/events.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jason-s-yu/stakettt/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that room events are pushed to.
const DefaultQueueName = "ttt_room_events"

// EventQueue pushes room events onto a Redis list consumed by the historian.
type EventQueue struct {
	client *redis.Client
	queue  string
}

// NewEventQueue returns a queue writer. An empty name uses DefaultQueueName.
func NewEventQueue(client *redis.Client, queue string) *EventQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &EventQueue{client: client, queue: queue}
}

// Publish serializes ev to JSON and RPushes it. This only costs a quick network send.
func (q *EventQueue) Publish(ctx context.Context, ev models.RoomEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomEvent: %w", err)
	}
	if err := q.client.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}

// Name returns the list name.
func (q *EventQueue) Name() string {
	return q.queue
}
