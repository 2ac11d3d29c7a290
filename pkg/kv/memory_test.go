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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) KVStore {
		t.Helper()

		store := NewMemoryStore()
		t.Cleanup(func() { _ = store.Close() })

		return store
	})
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("abc")))

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)

	value[0] = 'x'

	again, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStorePutEmptyValueIsNotDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	updates, err := store.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "k", nil))

	select {
	case value := <-updates:
		assert.NotNil(t, value)
		assert.Empty(t, value)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStoreClose(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	updates, err := store.Watch(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Close())

	_, ok := <-updates
	assert.False(t, ok, "watch channel should be closed")

	_, _, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, store.Put(ctx, "k", []byte("v")), ErrClosed)

	_, err = store.Watch(ctx, "k")
	require.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStoreWatchDoesNotBlockWriters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Watch(ctx, "k")
	require.NoError(t, err)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < watchBufferSize*4; i++ {
			_ = store.Put(ctx, "k", []byte{byte(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writers blocked on an unread watcher")
	}
}
