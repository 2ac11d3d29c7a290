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
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
)

const sealerFileMode = 0o600

// Sealer encrypts identity private keys at rest with an age X25519 key.
type Sealer struct {
	identity *age.X25519Identity
}

// NewSealer wraps an existing age identity.
func NewSealer(identity *age.X25519Identity) *Sealer {
	return &Sealer{identity: identity}
}

// GenerateSealer creates a Sealer with a fresh age identity.
func GenerateSealer() (*Sealer, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}

	return NewSealer(identity), nil
}

// LoadOrCreateSealer reads the age identity file at path. When the file does
// not exist a new identity is generated and written there with mode 0600.
func LoadOrCreateSealer(path string) (*Sealer, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return createSealerFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("opening age identity file: %w", err)
	}
	defer func() { _ = f.Close() }()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing age identity file %s: %w", path, err)
	}

	for _, identity := range identities {
		if x25519, ok := identity.(*age.X25519Identity); ok {
			return NewSealer(x25519), nil
		}
	}

	return nil, fmt.Errorf("%w in %s", errNoX25519Identity, path)
}

func createSealerFile(path string) (*Sealer, error) {
	sealer, err := GenerateSealer()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating age identity directory: %w", err)
	}

	// Same layout as age-keygen output.
	content := fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
		time.Now().UTC().Format(time.RFC3339), sealer.Recipient(), sealer.identity.String())

	if err := os.WriteFile(path, []byte(content), sealerFileMode); err != nil {
		return nil, fmt.Errorf("writing age identity file: %w", err)
	}

	return sealer, nil
}

// Recipient returns the age1... public key that Seal encrypts to.
func (s *Sealer) Recipient() string {
	return s.identity.Recipient().String()
}

// Seal encrypts plaintext and returns it base64 encoded.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	var ciphertext bytes.Buffer

	writer, err := age.Encrypt(&ciphertext, s.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}

	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(raw), s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}

	return plaintext, nil
}
