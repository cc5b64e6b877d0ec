package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisReadTracker keeps one Redis set of read notification ids per student
type RedisReadTracker struct {
	client *redis.Client
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisReadTracker connects to Redis and verifies the connection
func NewRedisReadTracker(ctx context.Context, cfg RedisConfig) (*RedisReadTracker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisReadTrackerFromClient(client), nil
}

// NewRedisReadTrackerFromClient wraps an existing client
func NewRedisReadTrackerFromClient(client *redis.Client) *RedisReadTracker {
	return &RedisReadTracker{client: client}
}

func readKey(studentID string) string {
	return fmt.Sprintf("portal:notifications:read:%s", studentID)
}

// MarkRead adds the notification to the student's read set
func (t *RedisReadTracker) MarkRead(ctx context.Context, studentID, notificationID string) error {
	if err := t.client.SAdd(ctx, readKey(studentID), notificationID).Err(); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// ReadSet returns the student's read notification ids
func (t *RedisReadTracker) ReadSet(ctx context.Context, studentID string) (map[string]bool, error) {
	ids, err := t.client.SMembers(ctx, readKey(studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get read notifications: %w", err)
	}

	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// Ping verifies Redis connectivity
func (t *RedisReadTracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (t *RedisReadTracker) Close() error {
	return t.client.Close()
}
