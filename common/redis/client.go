package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Maristella28/Bms-1125-sub002/common/config"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers need not import go-redis directly
type Client = redis.Client

// NewRedisClient creates a client; it does not dial until first use
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Connect creates a client and pings it; the client is closed on failure
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := NewRedisClient(cfg)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Ping checks connectivity
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes the client
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
