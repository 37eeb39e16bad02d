package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tablebook/internal/config"
	"tablebook/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisAvailabilityCache stores computed slot maps in redis with a
// short TTL. Keys are scoped by date so a booking mutation can drop
// every party size for that date in one pass.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a redis client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(date string, partySize int) string {
	return fmt.Sprintf("availability:%s:%d", date, partySize)
}

func (r *RedisAvailabilityCache) Get(ctx context.Context, date string, partySize int) (map[string]models.SlotAvailability, bool, error) {
	if r.client == nil {
		return nil, false, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, availabilityKey(date, partySize)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get availability from redis: %w", err)
	}

	var slots map[string]models.SlotAvailability
	if err := json.Unmarshal([]byte(val), &slots); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal availability: %w", err)
	}
	return slots, true, nil
}

func (r *RedisAvailabilityCache) Set(ctx context.Context, date string, partySize int, slots map[string]models.SlotAvailability) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}
	if err := r.client.Set(ctx, availabilityKey(date, partySize), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set availability in redis: %w", err)
	}
	return nil
}

func (r *RedisAvailabilityCache) InvalidateDate(ctx context.Context, date string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	iter := r.client.Scan(ctx, 0, fmt.Sprintf("availability:%s:*", date), 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan availability keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete availability keys: %w", err)
	}
	return nil
}
