// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/motionmaster/internal/platform/constants"
)

// RedisSessionCache implements [SessionCache] using Redis.
type RedisSessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a new Redis-backed SessionCache.
func NewSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + tokenHash
}

/*
Set stores the session as JSON under its token hash.

Parameters:
  - context: context.Context
  - session: *Session
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (cache *RedisSessionCache) Set(context context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, sessionKey(session.TokenHash), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves a cached session.

Description: A missing key is a cache miss and returns (nil, nil).

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Cached entity or nil
  - error: Execution or decoding errors
*/
func (cache *RedisSessionCache) Get(context context.Context, tokenHash string) (*Session, error) {
	payload, err := cache.client.Get(context, sessionKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return &session, nil
}

/*
Delete evicts a cached session.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - error: Execution errors
*/
func (cache *RedisSessionCache) Delete(context context.Context, tokenHash string) error {
	if err := cache.client.Del(context, sessionKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}
