// Package redis provides the redis-backed fixed-window rate limiter used
// when the service runs with more than one instance behind a balancer.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type WindowLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewWindowLimiter(client *redis.Client, limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := l.prefix + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= int64(l.limit), nil
}
