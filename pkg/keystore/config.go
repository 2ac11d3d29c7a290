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
	"errors"
	"fmt"

	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory = "memory"
	BackendKV     = "kv"
)

var (
	errUnknownBackend      = errors.New("unknown keystore backend")
	errAgeIdentityRequired = errors.New("age_identity_file is required for the kv keystore")
)

// Config selects where certificates and identities live.
type Config struct {
	Backend         string `json:"backend"`
	AgeIdentityFile string `json:"age_identity_file,omitempty"`
}

// Validate fills defaults and checks backend specific fields.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}

	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendKV:
		if c.AgeIdentityFile == "" {
			return errAgeIdentityRequired
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}
}

// Open builds the configured keystore. store is only used by the kv backend.
func Open(cfg *Config, store kv.KVStore, log logger.Logger) (Keystore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Backend == BackendMemory {
		return NewMemoryKeystore(), nil
	}

	sealer, err := LoadOrCreateSealer(cfg.AgeIdentityFile)
	if err != nil {
		return nil, err
	}

	return NewKVKeystore(store, sealer, log), nil
}
