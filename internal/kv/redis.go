package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "acu:kv:"

// RedisStore keeps each workspace in one Redis hash.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Bucket returns the bucket for workspace.
func (s *RedisStore) Bucket(workspace string) Bucket {
	return &redisBucket{client: s.client, hash: redisPrefix + workspace}
}

// Workspaces scans for workspace hashes.
func (s *RedisStore) Workspaces(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("kv: scan workspaces: %w", err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, redisPrefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(out)
	return out, nil
}

type redisBucket struct {
	client *redis.Client
	hash   string
}

func (b *redisBucket) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.HGet(ctx, b.hash, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return value, nil
}

func (b *redisBucket) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.HSet(ctx, b.hash, key, value).Err(); err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return nil
}

func (b *redisBucket) Delete(ctx context.Context, key string) error {
	if err := b.client.HDel(ctx, b.hash, key).Err(); err != nil {
		return fmt.Errorf("kv: delete %s: %w", key, err)
	}
	return nil
}

func (b *redisBucket) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.client.HKeys(ctx, b.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("kv: keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
