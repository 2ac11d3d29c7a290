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
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicetrust/pkg/logger"
)

func TestNatsStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runJetStreamServer(t)
	bucket := 0

	runStoreContract(t, func(t *testing.T) KVStore {
		t.Helper()

		bucket++

		store, err := NewNatsStore(context.Background(), srv.ClientURL(), fmt.Sprintf("trust-%d", bucket), logger.NewTestLogger())
		require.NoError(t, err)

		t.Cleanup(func() { _ = store.Close() })

		return store
	})
}

func TestNatsStoreSeesWritesFromAnotherConnection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded NATS test in short mode")
	}

	srv := runJetStreamServer(t)
	ctx := context.Background()

	reader, err := NewNatsStore(ctx, srv.ClientURL(), "shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	writer, err := NewNatsStore(ctx, srv.ClientURL(), "shared", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	updates, err := reader.Watch(ctx, "com/soduto/device/x")
	require.NoError(t, err)

	require.NoError(t, writer.Put(ctx, "com/soduto/device/x", []byte(`{"isPaired":true}`)))

	select {
	case value := <-updates:
		require.JSONEq(t, `{"isPaired":true}`, string(value))
	case <-time.After(watchWait):
		t.Fatal("timed out waiting for cross-connection update")
	}
}

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()

	srv, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  t.TempDir(),
		NoLog:     true,
		NoSigs:    true,
	})
	require.NoError(t, err)

	go srv.Start()

	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		t.Fatalf("embedded NATS server not ready for connections")
	}

	t.Cleanup(srv.Shutdown)

	return srv
}
