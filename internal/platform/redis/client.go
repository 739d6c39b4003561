// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the managed client for volatile state.

MotionMaster keeps two kinds of short-lived data in Redis:

  - Refresh session lookups, keyed by token hash, expiring with the session.
  - Analysis progress, keyed by comparison ID, expiring shortly after a run ends.

Losing Redis never loses user data: sessions fall back to PostgreSQL and a
missing progress entry reads as "not running".
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
	pingTimeout = 2 * time.Second

	// Each running analysis writes progress every tick.
	poolSize     = 16
	minIdleConns = 2
	maxIdleConns = 5
)

/*
NewClient connects to the Redis instance named by redisURL.

Parameters:
  - context: stdctx.Context (bounds the startup ping)
  - redisURL: string (redis:// or rediss://)
  - logger: *slog.Logger

Returns:
  - *redis.Client
  - error
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	tune(options)

	client := redis.NewClient(options)
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_ready",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)
	return client, nil
}

func tune(options *redis.Options) {
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.MaxIdleConns = maxIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout
}

// Ping is the readiness probe for the cache.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}
