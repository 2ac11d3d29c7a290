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

// Package kv provides the durable key-value stores that back device trust
// records and host identity state.
package kv

import (
	"context"
)

// KVStore defines the interface for a key-value store used for device trust configuration.
type KVStore interface {
	// Get retrieves the value associated with the given key.
	// Returns the value as a byte slice, a boolean indicating if the key was found, and an error if the operation fails.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores a value under the given key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Create stores a value only if the key does not exist yet.
	// The boolean reports whether this call created the key.
	Create(ctx context.Context, key string, value []byte) (bool, error)

	// Delete removes the key and its associated value from the store.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key in the store. The order is backend specific.
	Keys(ctx context.Context) ([]string, error)

	// Watch monitors the specified key for changes and sends updates through a channel.
	// The channel receives the new value (or nil if deleted) whenever the key is modified.
	// The returned channel is closed when the context is canceled or the KV store is closed.
	// Updates may be coalesced; receivers that need the latest state should re-read the key.
	Watch(ctx context.Context, key string) (<-chan []byte, error)

	// Close shuts down the KV store, releasing any resources (e.g., connections).
	Close() error
}
