// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockoutHistoryTTL is how long past lockouts count towards backoff.
const lockoutHistoryTTL = 24 * time.Hour

// RedisAttemptStore keeps login counters in Redis so that every instance
// behind a load balancer sees the same lockouts.
type RedisAttemptStore struct {
	client *redis.Client
	prefix string
}

// NewRedisAttemptStore connects to the Redis server at url.
func NewRedisAttemptStore(ctx context.Context, url, prefix string) (*RedisAttemptStore, error) {
	if url == "" {
		return nil, errors.New("redis URL is required")
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisAttemptStore{client: client, prefix: prefix}, nil
}

// Close closes the Redis connection.
func (s *RedisAttemptStore) Close() error {
	return s.client.Close()
}

func (s *RedisAttemptStore) failKey(key string) string     { return s.prefix + "fail:" + key }
func (s *RedisAttemptStore) lockKey(key string) string     { return s.prefix + "lock:" + key }
func (s *RedisAttemptStore) lockoutsKey(key string) string { return s.prefix + "lockouts:" + key }

// RecordFailure implements AttemptStore.
func (s *RedisAttemptStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	n, err := s.client.Incr(ctx, s.failKey(key)).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.client.Expire(ctx, s.failKey(key), window).Err(); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// Failures implements AttemptStore.
func (s *RedisAttemptStore) Failures(ctx context.Context, key string) (int, error) {
	return s.getInt(ctx, s.failKey(key))
}

// Lock implements AttemptStore.
func (s *RedisAttemptStore) Lock(ctx context.Context, key string, d time.Duration) (int, error) {
	var lockouts *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.lockKey(key), "1", d)
		pipe.Del(ctx, s.failKey(key))
		lockouts = pipe.Incr(ctx, s.lockoutsKey(key))
		pipe.Expire(ctx, s.lockoutsKey(key), lockoutHistoryTTL)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(lockouts.Val()), nil
}

// LockedFor implements AttemptStore.
func (s *RedisAttemptStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.PTTL(ctx, s.lockKey(key)).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Lockouts implements AttemptStore.
func (s *RedisAttemptStore) Lockouts(ctx context.Context, key string) (int, error) {
	return s.getInt(ctx, s.lockoutsKey(key))
}

// Reset implements AttemptStore.
func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.failKey(key), s.lockKey(key), s.lockoutsKey(key)).Err()
}

func (s *RedisAttemptStore) getInt(ctx context.Context, key string) (int, error) {
	n, err := s.client.Get(ctx, key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}
