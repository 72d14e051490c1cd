package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisEnqueuer publishes notices to a Redis Stream.
type RedisEnqueuer struct {
	client *redis.Client
	stream string
}

// NewRedisEnqueuer creates a new RedisEnqueuer backed by the given Redis
// client, publishing to the named stream.
func NewRedisEnqueuer(client *redis.Client, stream string) *RedisEnqueuer {
	return &RedisEnqueuer{client: client, stream: stream}
}

// Enqueue adds a notice to the stream using XADD.
// It returns the Redis stream entry ID.
func (e *RedisEnqueuer) Enqueue(ctx context.Context, notice *Notice) (string, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return "", fmt.Errorf("marshal notice: %w", err)
	}

	entryID, err := e.client.XAdd(ctx, &redis.XAddArgs{
		Stream: e.stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd to stream %s: %w", e.stream, err)
	}

	NoticesDispatchedTotal.Inc()

	return entryID, nil
}
