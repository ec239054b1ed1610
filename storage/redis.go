package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps the blob under a single key, for deployments where session
// state for a device follows the user across processes. No TTL is set:
// the core decides session validity, not the store.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a redis-backed slot. An empty key defaults to
// "authcore:state".
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = "authcore:state"
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load state from redis: %w", err)
	}
	return data, nil
}

func (r *Redis) Save(ctx context.Context, data []byte) error {
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save state to redis: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete state from redis: %w", err)
	}
	return nil
}
