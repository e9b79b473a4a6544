package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// GenerationStore tracks a monotonically increasing counter per key.
type GenerationStore interface {
	Current(ctx context.Context, key Key) (uint64, error)
	Bump(ctx context.Context, keys ...Key) error
}

// MemoryGenerations keeps counters in process.
type MemoryGenerations struct {
	mu   sync.Mutex
	gens map[Key]uint64
}

func NewMemoryGenerations() *MemoryGenerations {
	return &MemoryGenerations{gens: make(map[Key]uint64)}
}

func (m *MemoryGenerations) Current(_ context.Context, key Key) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[key], nil
}

func (m *MemoryGenerations) Bump(_ context.Context, keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.gens[k]++
	}
	return nil
}

// RedisGenerations shares counters between instances through Redis.
type RedisGenerations struct {
	client redis.Cmdable
	prefix string
}

// NewRedisGenerations namespaces keys under prefix. A trailing colon on prefix
// is dropped so keys read <prefix>:<entity>:<scope>.
func NewRedisGenerations(client redis.Cmdable, prefix string) *RedisGenerations {
	prefix = strings.TrimRight(prefix, ":")
	if prefix == "" {
		prefix = "tourney:gen"
	}
	return &RedisGenerations{client: client, prefix: prefix}
}

func (r *RedisGenerations) redisKey(k Key) string {
	return r.prefix + ":" + k.String()
}

func (r *RedisGenerations) Current(ctx context.Context, key Key) (uint64, error) {
	n, err := r.client.Get(ctx, r.redisKey(key)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read generation %s: %w", key, err)
	}
	return n, nil
}

func (r *RedisGenerations) Bump(ctx context.Context, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Incr(ctx, r.redisKey(k))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bump generations: %w", err)
	}
	return nil
}
