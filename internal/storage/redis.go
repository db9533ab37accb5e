package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore is a DocumentStore keeping each document as a JSON string
type RedisStore struct {
	client *goredis.Client
	prefix string
}

// NewRedisClient creates a Redis client and verifies connectivity
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a RedisStore on an existing client
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "doc:",
	}
}

func (s *RedisStore) key(collection, key string) string {
	return s.prefix + collection + ":" + key
}

// Get decodes the document into dst
func (s *RedisStore) Get(ctx context.Context, collection, key string, dst interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, s.key(collection, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s/%s: %w", collection, key, err)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode document %s/%s: %w", collection, key, err)
	}
	return true, nil
}

// Set creates or overwrites the document
func (s *RedisStore) Set(ctx context.Context, collection, key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	if err := s.client.Set(ctx, s.key(collection, key), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Create stores the document only if absent, using SET NX
func (s *RedisStore) Create(ctx context.Context, collection, key string, doc interface{}) (bool, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	created, err := s.client.SetNX(ctx, s.key(collection, key), raw, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s/%s: %w", collection, key, err)
	}
	return created, nil
}

// Ping checks Redis connectivity
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ DocumentStore = (*RedisStore)(nil)
