// Package redis provides a Redis implementation of the
// cyclequota.UsageCounter interface using per-day counters.
//
// Each usage event increments a counter keyed by tenant and UTC day.
// Counting over a cycle sums the day counters spanned by the range with a
// single MGET, so a cycle read touches at most a few hundred keys.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store implements cyclequota.UsageCounter using Redis.
type Store struct {
	client redis.UniversalClient
	config Config
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "cyclequota:")
	KeyPrefix string

	// UsageTTL is the TTL applied to day counters (0 = no expiration).
	// Set it longer than the longest cycle so counters survive the
	// cycle they belong to.
	UsageTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "cyclequota:",
		UsageTTL:  400 * 24 * time.Hour,
	}
}

// New creates a new Redis usage counter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if config.KeyPrefix == "" {
		config.KeyPrefix = "cyclequota:"
	}

	return &Store{
		client: client,
		config: config,
	}, nil
}

// dayKey returns the counter key for a tenant on a UTC day.
func (s *Store) dayKey(tenantID string, day time.Time) string {
	return fmt.Sprintf("%susage:%s:%s", s.config.KeyPrefix, tenantID, day.UTC().Format("2006-01-02"))
}

// Record increments the tenant's counter for the event's UTC day.
func (s *Store) Record(ctx context.Context, tenantID string, at time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}

	key := s.dayKey(tenantID, at)
	pipe := s.client.TxPipeline()
	pipe.IncrBy(ctx, key, 1)
	if s.config.UsageTTL > 0 {
		pipe.Expire(ctx, key, s.config.UsageTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record usage event: %w", err)
	}
	return nil
}

// Count implements cyclequota.UsageCounter. It sums the day counters from
// start through end inclusive.
func (s *Store) Count(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("invalid range: end before start")
	}

	keys := s.dayKeys(tenantID, start, end)
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read usage counters: %w", err)
	}

	total := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("unexpected counter value type %T", v)
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return 0, fmt.Errorf("corrupt usage counter: %w", err)
		}
		total += n
	}
	return total, nil
}

// dayKeys returns the counter keys for every UTC day the range touches.
func (s *Store) dayKeys(tenantID string, start, end time.Time) []string {
	first := time.Date(start.UTC().Year(), start.UTC().Month(), start.UTC().Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.UTC().Year(), end.UTC().Month(), end.UTC().Day(), 0, 0, 0, 0, time.UTC)

	var keys []string
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		keys = append(keys, s.dayKey(tenantID, day))
	}
	return keys
}

// Reset deletes all day counters for the tenant in the given range. Billing
// hooks call this when a cycle anchor moves.
func (s *Store) Reset(ctx context.Context, tenantID string, start, end time.Time) error {
	keys := s.dayKeys(tenantID, start, end)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset usage counters: %w", err)
	}
	return nil
}
