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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	sealer, err := GenerateSealer()
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("secret key material"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "secret")

	plaintext, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "secret key material", string(plaintext))
}

func TestSealerOpenWithWrongKey(t *testing.T) {
	a, err := GenerateSealer()
	require.NoError(t, err)

	b, err := GenerateSealer()
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("x"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	require.Error(t, err)
}

func TestLoadOrCreateSealer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "identity.age")

	created, err := LoadOrCreateSealer(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sealerFileMode), info.Mode().Perm())

	loaded, err := LoadOrCreateSealer(path)
	require.NoError(t, err)
	assert.Equal(t, created.Recipient(), loaded.Recipient())
}

func TestLoadOrCreateSealerRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.age")
	require.NoError(t, os.WriteFile(path, []byte("not an age key\n"), 0o600))

	_, err := LoadOrCreateSealer(path)
	require.Error(t, err)
}
