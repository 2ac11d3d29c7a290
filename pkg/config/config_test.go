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

package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/notify"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "devicetrust.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LOG_OUTPUT", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, kv.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, keystore.BackendMemory, cfg.Keystore.Backend)
	assert.Equal(t, notify.BackendLog, cfg.Notifications.Backend)
	assert.Equal(t, 30*time.Second, cfg.OperationTimeout.Std())
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"logging": {"level": "debug"},
		"store": {"backend": "nats", "nats_url": "nats://127.0.0.1:4222", "bucket": "trust"},
		"keystore": {"backend": "kv", "age_identity_file": "/var/lib/devicetrust/identity.age"},
		"operation_timeout": "5s"
	}`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, kv.BackendNATS, cfg.Store.Backend)
	assert.Equal(t, "trust", cfg.Store.Bucket)
	assert.Equal(t, "/var/lib/devicetrust/identity.age", cfg.Keystore.AgeIdentityFile)
	assert.Equal(t, 5*time.Second, cfg.OperationTimeout.Std())
}

func TestLoadFileNATSTLSAndMetrics(t *testing.T) {
	path := writeConfig(t, `{
		"metrics": {"enabled": true, "endpoint": "otel:4317", "insecure": true},
		"store": {
			"backend": "nats",
			"nats_url": "tls://nats:4222",
			"nats_tls": {"cert_dir": "/etc/devicetrust/certs", "cert_file": "client.pem", "key_file": "client-key.pem"}
		}
	}`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	require.NotNil(t, cfg.Metrics)
	assert.Equal(t, "otel:4317", cfg.Metrics.Endpoint)
	require.NotNil(t, cfg.Store.NATSTLS)
	assert.Equal(t, "client.pem", cfg.Store.NATSTLS.CertFile)
	assert.Nil(t, cfg.Notifications.NATSTLS)
}

func TestEnvAllocatesOptionalSections(t *testing.T) {
	t.Setenv("DEVICETRUST_METRICS_ENABLED", "true")
	t.Setenv("DEVICETRUST_METRICS_ENDPOINT", "otel:4317")
	t.Setenv("DEVICETRUST_METRICS_EXPORT_INTERVAL", "1m")

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	require.NotNil(t, cfg.Metrics)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "otel:4317", cfg.Metrics.Endpoint)
	assert.Equal(t, time.Minute, cfg.Metrics.ExportInterval)
	assert.Nil(t, cfg.Store.NATSTLS)
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `{"stroe": {"backend": "redis"}}`)

	_, err := Load(context.Background(), path, nil)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"store": {"backend": "nats", "nats_url": "nats://file:4222"}}`)

	t.Setenv("DEVICETRUST_STORE_BACKEND", "redis")
	t.Setenv("DEVICETRUST_STORE_REDIS_URL", "redis://127.0.0.1:6379/0")
	t.Setenv("DEVICETRUST_STORE_REDIS_DIAL_TIMEOUT", "2s")
	t.Setenv("DEVICETRUST_LOGGING_DEBUG", "true")
	t.Setenv("DEVICETRUST_OPERATION_TIMEOUT", "1m")

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, kv.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://127.0.0.1:6379/0", cfg.Store.Redis.URL)
	assert.Equal(t, 2*time.Second, cfg.Store.Redis.DialTimeout)
	assert.Equal(t, "nats://file:4222", cfg.Store.NATSURL)
	assert.True(t, cfg.Logging.Debug)
	assert.Equal(t, time.Minute, cfg.OperationTimeout.Std())
}

func TestEnvConfigJSON(t *testing.T) {
	t.Setenv("DEVICETRUST_CONFIG_JSON", `{"notifications": {"backend": "nats", "nats_url": "nats://bus:4222"}}`)

	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, notify.BackendNATS, cfg.Notifications.Backend)
	assert.Equal(t, notify.DefaultSubject, cfg.Notifications.Subject)
}

func TestEnvSourceIgnoresFile(t *testing.T) {
	path := writeConfig(t, `{"store": {"backend": "postgres"}}`)

	t.Setenv("CONFIG_SOURCE", "env")

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, kv.BackendMemory, cfg.Store.Backend)
}

func TestInvalidConfigSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "consul")

	_, err := Load(context.Background(), "", nil)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestInvalidEnvValue(t *testing.T) {
	t.Setenv("DEVICETRUST_LOGGING_DEBUG", "sometimes")

	_, err := Load(context.Background(), "", nil)
	require.Error(t, err)
}

func TestValidateReportsSection(t *testing.T) {
	cfg := Default()
	cfg.Keystore.Backend = keystore.BackendKV

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keystore")

	cfg = Default()
	cfg.OperationTimeout = -1
	require.ErrorIs(t, cfg.Validate(), errNegativeTimeout)
}

func TestEnvLoaderRejectsNonPointer(t *testing.T) {
	loader := NewEnvConfigLoader(nil, EnvPrefix)

	require.ErrorIs(t, loader.Load(context.Background(), "", Config{}), ErrDstMustBeNonNilPointer)

	s := "x"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}

func TestDurationJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, d.Std())

	require.ErrorIs(t, json.Unmarshal([]byte(`"soon"`), &d), errInvalidDuration)
	require.ErrorIs(t, json.Unmarshal([]byte(`true`), &d), errInvalidDuration)

	out, err := json.Marshal(Duration(2 * time.Second))
	require.NoError(t, err)
	assert.JSONEq(t, `"2s"`, string(out))
}
