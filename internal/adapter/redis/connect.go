// Package redis holds the shared Redis connection helpers.
package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// Connect builds a client from either a redis:// URL or a bare host:port and
// pings it so a bad address fails at startup.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	var client *goredis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = goredis.NewClient(opt)
	} else {
		client = goredis.NewClient(&goredis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
