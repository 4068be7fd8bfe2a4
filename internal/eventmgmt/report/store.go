package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/eventhub/eventhub/internal/shared"
)

const keyPrefix = "eventhub:report:"

// Store keeps asynchronous report state and the rendered workbook.
type Store interface {
	Put(ctx context.Context, job Job, data []byte) error
	Get(ctx context.Context, id uuid.UUID) (Job, []byte, error)
}

// RedisStore keeps each report in one hash that expires after ttl.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a Store backed by client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(id uuid.UUID) string {
	return keyPrefix + id.String()
}

// Put replaces the stored state of job and resets its expiry.
func (s *RedisStore) Put(ctx context.Context, job Job, data []byte) error {
	k := key(job.ID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k, "status", string(job.Status), "error", job.Error, "data", data)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("report: store %s: %w", job.ID, err)
	}
	return nil
}

// Get returns the job state and, once ready, the workbook bytes.
func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (Job, []byte, error) {
	values, err := s.client.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return Job{}, nil, fmt.Errorf("report: load %s: %w", id, err)
	}
	if len(values) == 0 {
		return Job{}, nil, shared.ErrResourceNotFound
	}
	job := Job{ID: id, Status: Status(values["status"]), Error: values["error"]}
	if job.Status != StatusReady {
		return job, nil, nil
	}
	return job, []byte(values["data"]), nil
}
