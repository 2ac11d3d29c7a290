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
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/devicetrust/pkg/logger"
)

// NatsStore is a KVStore backed by a NATS JetStream key-value bucket.
type NatsStore struct {
	nc  *nats.Conn
	kv  jetstream.KeyValue
	ctx context.Context
	log logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewNatsStore connects to natsURL and opens (or creates) bucket.
func NewNatsStore(ctx context.Context, natsURL, bucket string, log logger.Logger, opts ...nats.Option) (*NatsStore, error) {
	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucket,
		History: 1,
	})
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	return &NatsStore{
		nc:   nc,
		kv:   kv,
		ctx:  ctx,
		log:  logger.OrNop(log),
		done: make(chan struct{}),
	}, nil
}

func (n *NatsStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	encoded, err := encodeNatsKey(key)
	if err != nil {
		return nil, false, err
	}

	var entry jetstream.KeyValueEntry

	entry, err = n.kv.Get(ctx, encoded)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return entry.Value(), true, nil
}

func (n *NatsStore) Put(ctx context.Context, key string, value []byte) error {
	encoded, err := encodeNatsKey(key)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(ctx, encoded, value); err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Create(ctx context.Context, key string, value []byte) (bool, error) {
	encoded, err := encodeNatsKey(key)
	if err != nil {
		return false, err
	}

	_, err = n.kv.Create(ctx, encoded, value)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to create key %s: %w", key, err)
	}

	return true, nil
}

func (n *NatsStore) Delete(ctx context.Context, key string) error {
	encoded, err := encodeNatsKey(key)
	if err != nil {
		return err
	}

	err = n.kv.Delete(ctx, encoded)
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

func (n *NatsStore) Keys(ctx context.Context) ([]string, error) {
	lister, err := n.kv.ListKeys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	defer func() {
		if err := lister.Stop(); err != nil {
			n.log.Debug().Err(err).Msg("failed to stop key lister")
		}
	}()

	var keys []string

	for encoded := range lister.Keys() {
		key, err := decodeNatsKey(encoded)
		if err != nil {
			n.log.Warn().Err(err).Str("key", encoded).Msg("skipping undecodable key")
			continue
		}

		keys = append(keys, key)
	}

	return keys, nil
}

func (n *NatsStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	encoded, err := encodeNatsKey(key)
	if err != nil {
		return nil, err
	}

	watcher, err := n.kv.Watch(ctx, encoded, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to watch key %s: %w", key, err)
	}

	ch := make(chan []byte, 1)
	go n.handleWatchUpdates(ctx, key, watcher, ch)

	return ch, nil
}

// handleWatchUpdates processes updates from the watcher and sends them to the channel.
func (n *NatsStore) handleWatchUpdates(ctx context.Context, key string, watcher jetstream.KeyWatcher, ch chan<- []byte) {
	defer func() {
		if err := watcher.Stop(); err != nil {
			n.log.Debug().Err(err).Str("key", key).Msg("failed to stop watcher")
		}

		close(ch)
	}()

	for {
		update, ok := n.waitForUpdate(ctx, watcher)
		if !ok {
			return // Context canceled or watcher closed
		}

		// A nil entry marks the end of the initial values.
		if update == nil {
			continue
		}

		var value []byte

		switch update.Operation() {
		case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
			value = nil
		default:
			value = update.Value()
		}

		if !n.sendUpdate(ctx, ch, value) {
			return
		}
	}
}

// waitForUpdate waits for the next update or cancellation.
func (n *NatsStore) waitForUpdate(ctx context.Context, watcher jetstream.KeyWatcher) (jetstream.KeyValueEntry, bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-n.ctx.Done():
		return nil, false
	case <-n.done:
		return nil, false
	case update, ok := <-watcher.Updates():
		return update, ok
	}
}

// sendUpdate attempts to send the value to the channel, respecting cancellation.
func (n *NatsStore) sendUpdate(ctx context.Context, ch chan<- []byte, value []byte) bool {
	select {
	case ch <- value:
		return true
	case <-ctx.Done():
		return false
	case <-n.ctx.Done():
		return false
	case <-n.done:
		return false
	}
}

func (n *NatsStore) Close() error {
	n.closeOnce.Do(func() {
		close(n.done)
		n.nc.Close()
	})

	return nil
}

var _ KVStore = (*NatsStore)(nil)
