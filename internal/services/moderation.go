package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const moderationQueueKey = "moderation:review"

// RedisModerationQueue pushes review items onto a redis list consumed by the
// moderation tooling. What happens after the enqueue is out of this service's
// hands.
type RedisModerationQueue struct {
	client *redis.Client
}

func NewRedisModerationQueue(client *redis.Client) *RedisModerationQueue {
	return &RedisModerationQueue{client: client}
}

type moderationItem struct {
	Kind       string    `json:"kind"`
	ID         uuid.UUID `json:"id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (q *RedisModerationQueue) Enqueue(ctx context.Context, kind string, id uuid.UUID) error {
	payload, err := json.Marshal(moderationItem{
		Kind:       kind,
		ID:         id,
		EnqueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal moderation item: %w", err)
	}
	if err := q.client.LPush(ctx, moderationQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueue moderation item: %w", err)
	}
	return nil
}
