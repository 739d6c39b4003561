// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/motionmaster/internal/platform/constants"
)

// RedisProgressStore implements [ProgressStore] using Redis.
type RedisProgressStore struct {
	client *redis.Client
}

// NewRedisProgressStore creates a Redis-backed progress store.
func NewRedisProgressStore(client *redis.Client) *RedisProgressStore {
	return &RedisProgressStore{client: client}
}

func progressKey(comparisonID string) string {
	return constants.RedisPrefixAnalysisProgress + comparisonID
}

/*
Set records the progress of a running analysis with a TTL.

Parameters:
  - context: context.Context
  - comparisonID: string
  - progress: float64
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisProgressStore) Set(context context.Context, comparisonID string, progress float64, ttl time.Duration) error {
	value := strconv.FormatFloat(progress, 'f', -1, 64)

	if err := repository.client.Set(context, progressKey(comparisonID), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis_progress_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the last recorded progress.

Description: A missing or expired key reads as (0, false, nil).

Parameters:
  - context: context.Context
  - comparisonID: string

Returns:
  - float64: Progress
  - bool: Whether a snapshot exists
  - error: Connectivity or decoding errors
*/
func (repository *RedisProgressStore) Get(context context.Context, comparisonID string) (float64, bool, error) {
	value, err := repository.client.Get(context, progressKey(comparisonID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis_progress_get_failed: %w", err)
	}

	progress, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis_progress_decode_failed: %w", err)
	}
	return progress, true, nil
}

/*
Delete removes the snapshot.

Parameters:
  - context: context.Context
  - comparisonID: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisProgressStore) Delete(context context.Context, comparisonID string) error {
	if err := repository.client.Del(context, progressKey(comparisonID)).Err(); err != nil {
		return fmt.Errorf("redis_progress_delete_failed: %w", err)
	}
	return nil
}
