package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	notificationQueueKey = "dispatch:notifications"
	dequeueBlockTime     = 2 * time.Second
)

// RedisQueue is a durable job queue backed by a Redis list.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue wraps a connected Redis client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, notificationQueueKey, raw).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Job, error) {
	result, err := q.client.BRPop(ctx, dequeueBlockTime, notificationQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrEmpty
		}
		return Job{}, err
	}
	// BRPop returns [key, value].
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, err
	}
	return job, nil
}
