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

const watchWait = 5 * time.Second

// runStoreContract exercises the behavior every KVStore backend must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) KVStore) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)

		value, found, err := store.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, value)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "hostDeviceId", []byte(`"abc"`)))
		require.NoError(t, store.Put(ctx, "hostDeviceId", []byte(`"def"`)))

		value, found, err := store.Get(ctx, "hostDeviceId")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, `"def"`, string(value))
	})

	t.Run("CreateOnlyOnce", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, "hostCertificateName", []byte("first"))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.Create(ctx, "hostCertificateName", []byte("second"))
		require.NoError(t, err)
		assert.False(t, created)

		value, _, err := store.Get(ctx, "hostCertificateName")
		require.NoError(t, err)
		assert.Equal(t, "first", string(value))
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Put(ctx, "launchOnLogin", []byte("true")))
		require.NoError(t, store.Delete(ctx, "launchOnLogin"))
		require.NoError(t, store.Delete(ctx, "launchOnLogin"), "deleting a missing key is not an error")

		_, found, err := store.Get(ctx, "launchOnLogin")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("KeysWithUnusualCharacters", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		keys := []string{
			"hostName",
			"com/soduto/device/abc_123",
			"com/soduto/device/my%20phone.local=1",
		}

		for _, key := range keys {
			require.NoError(t, store.Put(ctx, key, []byte("{}")))
		}

		listed, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, keys, listed)

		for _, key := range keys {
			_, found, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.Truef(t, found, "key %s should be readable", key)
		}
	})

	t.Run("WatchDeliversPutAndDelete", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates, err := store.Watch(ctx, "com/soduto/device/watched")
		require.NoError(t, err)

		require.NoError(t, store.Put(ctx, "com/soduto/device/other", []byte("ignored")))
		require.NoError(t, store.Put(ctx, "com/soduto/device/watched", []byte("v1")))

		select {
		case value, ok := <-updates:
			require.True(t, ok)
			assert.Equal(t, "v1", string(value))
		case <-time.After(watchWait):
			t.Fatal("timed out waiting for put notification")
		}

		require.NoError(t, store.Delete(ctx, "com/soduto/device/watched"))

		select {
		case value, ok := <-updates:
			require.True(t, ok)
			assert.Nil(t, value)
		case <-time.After(watchWait):
			t.Fatal("timed out waiting for delete notification")
		}
	})

	t.Run("WatchClosesOnCancel", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		updates, err := store.Watch(ctx, "hostName")
		require.NoError(t, err)

		cancel()

		require.Eventually(t, func() bool {
			select {
			case _, ok := <-updates:
				return !ok
			default:
				return false
			}
		}, watchWait, 10*time.Millisecond)
	})
}
