package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of a Redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis using the given connection string
// (redis://...) and verifies connectivity before returning.
func NewRedisStore(ctx context.Context, connString string) (*RedisStore, error) {
	const op = "storage.NewRedisStore"

	opt, err := redis.ParseURL(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse connection string: %w", op, err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%s: failed to ping redis: %w", op, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.RedisStore.Get"

	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return val, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	const op = "storage.RedisStore.Put"

	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	const op = "storage.RedisStore.PutIfAbsent"

	ok, err := s.client.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	const op = "storage.RedisStore.Delete"

	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}

	return nil
}

func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	const op = "storage.RedisStore.Keys"

	var keys []string

	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return keys, nil
}

// Ping reports whether the Redis instance is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
