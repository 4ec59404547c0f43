package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config describes a single-node Redis connection.
type Config interface {
	Options() *goredis.Options
}

// Client wraps a go-redis client with the lifecycle helpers the services use.
type Client struct {
	goredis.UniversalClient
}

// New connects and pings Redis.
func New(ctx context.Context, cfg Config) (*Client, error) {
	client := goredis.NewClient(cfg.Options())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Client{UniversalClient: client}, nil
}
