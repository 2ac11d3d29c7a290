/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carverauto/devicetrust/pkg/logger"
)

const (
	defaultRedisPrefix    = "devicetrust:"
	redisChangeChannelTag = "__changes"
	redisScanCount        = 100
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	URL          string        `json:"url"`
	Prefix       string        `json:"prefix,omitempty"`
	PoolSize     int           `json:"pool_size,omitempty"`
	DialTimeout  time.Duration `json:"dial_timeout,omitempty"`
	ReadTimeout  time.Duration `json:"read_timeout,omitempty"`
	WriteTimeout time.Duration `json:"write_timeout,omitempty"`
}

// RedisStore is a KVStore backed by Redis strings. Every write publishes the
// changed key on a per-prefix channel so other processes can observe it.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	channel string
	log     logger.Logger
	watches *watchers

	mu     sync.Mutex
	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

// NewRedisStore creates a new Redis client from the provided configuration.
func NewRedisStore(ctx context.Context, cfg RedisConfig, log logger.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	// Apply configuration overrides
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}

	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisStore{
		client:  client,
		prefix:  prefix,
		channel: prefix + redisChangeChannelTag,
		log:     logger.OrNop(log),
		watches: newWatchers(),
	}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.prefix+key, value, 0)
		pipe.Publish(ctx, r.channel, key)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (r *RedisStore) Create(ctx context.Context, key string, value []byte) (bool, error) {
	created, err := r.client.SetNX(ctx, r.prefix+key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create key %s: %w", key, err)
	}

	if created {
		if err := r.client.Publish(ctx, r.channel, key).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("failed to publish key creation")
		}
	}

	return created, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	removed, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	if removed > 0 {
		if err := r.client.Publish(ctx, r.channel, key).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("failed to publish key deletion")
		}
	}

	return nil
}

func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := r.client.Scan(ctx, 0, r.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

func (r *RedisStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	if err := r.ensureSubscribed(ctx); err != nil {
		return nil, err
	}

	return r.watches.add(ctx, key)
}

func (r *RedisStore) ensureSubscribed(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubsub != nil {
		return nil
	}

	pubsub := r.client.Subscribe(ctx, r.channel)

	// Wait for the subscription to be confirmed so no write is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()

		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	r.pubsub = pubsub
	r.wg.Add(1)

	go r.dispatch(pubsub.Channel())

	return nil
}

func (r *RedisStore) dispatch(messages <-chan *redis.Message) {
	defer r.wg.Done()

	for msg := range messages {
		key := msg.Payload
		if !r.watches.has(key) {
			continue
		}

		value, found, err := r.Get(context.Background(), key)
		if err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("failed to read changed key")
			continue
		}

		if !found {
			value = nil
		}

		r.watches.notify(key, value)
	}
}

func (r *RedisStore) Close() error {
	r.mu.Lock()
	pubsub := r.pubsub
	r.mu.Unlock()

	if pubsub != nil {
		_ = pubsub.Close()
	}

	r.wg.Wait()
	r.watches.closeAll()

	return r.client.Close()
}

var _ KVStore = (*RedisStore)(nil)
