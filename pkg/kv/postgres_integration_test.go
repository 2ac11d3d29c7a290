//go:build integration

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

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/carverauto/devicetrust/pkg/logger"
)

func TestPostgresStoreContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("devicetrust"),
		tcpostgres.WithUsername("devicetrust"),
		tcpostgres.WithPassword("devicetrust"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testcontainers.CleanupContainer(t, container)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runStoreContract(t, func(t *testing.T) KVStore {
		t.Helper()

		store, err := NewPostgresStore(ctx, connString, logger.NewTestLogger())
		require.NoError(t, err)

		_, err = store.pool.Exec(ctx, "TRUNCATE "+postgresTable)
		require.NoError(t, err)

		t.Cleanup(func() { _ = store.Close() })

		return store
	})
}
