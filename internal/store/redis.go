package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
)

const renderCountPrefix = "chesscard:renders:"

type RedisClient struct {
	Client redis.UniversalClient
}

// NewRedisClient creates a new Redis client and checks the connection.
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Check the connection by sending a PING command
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("store: NewRedisClient - ping %s: %w", addr, err)
	}

	return &RedisClient{Client: client}, nil
}

// Ping tests connectivity to the Redis server.
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.Client.Ping(ctx).Err()
}

// renderCountKey is case-insensitive in the username, like Chess.com itself.
func renderCountKey(username string) string {
	return renderCountPrefix + strings.ToLower(username)
}

// IncrRenderCount records one more rendered card for username.
func (rc *RedisClient) IncrRenderCount(ctx context.Context, username string) (int64, error) {
	n, err := rc.Client.Incr(ctx, renderCountKey(username)).Result()
	if err != nil {
		return 0, fmt.Errorf("error incrementing render count in Redis: %v", err)
	}
	return n, nil
}

// RenderCount returns how many cards were rendered for username. Unknown users have a count of 0.
func (rc *RedisClient) RenderCount(ctx context.Context, username string) (int64, error) {
	n, err := rc.Client.Get(ctx, renderCountKey(username)).Int64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading render count from Redis: %v", err)
	}
	return n, nil
}

// Close releases the underlying connections.
func (rc *RedisClient) Close() error {
	return rc.Client.Close()
}
