package stats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avvvet/intentbot/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using two Redis hashes
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	// Parse Redis URL
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

// OutcomesKey is the hash holding per-outcome counters
func OutcomesKey(prefix string) string {
	return fmt.Sprintf("%s:outcomes", prefix)
}

// TagsKey is the hash holding per-tag counters
func TagsKey(prefix string) string {
	return fmt.Sprintf("%s:tags", prefix)
}

// Record increments the counters atomically
func (r *RedisStore) Record(ctx context.Context, outcome models.Outcome, tag string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, OutcomesKey(r.prefix), string(outcome), 1)
		if tag != "" {
			pipe.HIncrBy(ctx, TagsKey(r.prefix), tag, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record stats in Redis: %w", err)
	}
	return nil
}

// Snapshot reads both hashes
func (r *RedisStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	s := newSnapshot()

	if err := r.readHash(ctx, OutcomesKey(r.prefix), s.Outcomes); err != nil {
		return nil, err
	}
	if err := r.readHash(ctx, TagsKey(r.prefix), s.Tags); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisStore) readHash(ctx context.Context, key string, dst map[string]int64) error {
	raw, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}
	return parseCounters(raw, dst)
}

func parseCounters(raw map[string]string, dst map[string]int64) error {
	for field, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse counter %q: %w", field, err)
		}
		dst[field] = n
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping verifies the Redis connection is alive
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
