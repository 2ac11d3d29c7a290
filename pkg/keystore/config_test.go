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

package keystore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicetrust/pkg/kv"
)

func TestConfigValidate(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendMemory, cfg.Backend)

	require.ErrorIs(t, (&Config{Backend: BackendKV}).Validate(), errAgeIdentityRequired)
	require.ErrorIs(t, (&Config{Backend: "keychain"}).Validate(), errUnknownBackend)
}

func TestOpenKVBackend(t *testing.T) {
	cfg := &Config{
		Backend:         BackendKV,
		AgeIdentityFile: filepath.Join(t.TempDir(), "identity.age"),
	}

	ks, err := Open(cfg, kv.NewMemoryStore(), nil)
	require.NoError(t, err)
	assert.IsType(t, &KVKeystore{}, ks)
}
