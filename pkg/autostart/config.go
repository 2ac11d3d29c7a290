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

package autostart

import (
	"fmt"
	"os"
)

const (
	BackendXDG  = "xdg"
	BackendNone = "none"

	defaultEntryName = "devicetrust"
)

// Config selects and parameterizes the login-item facility.
type Config struct {
	Backend string `json:"backend"`
	Dir     string `json:"dir,omitempty"`
	Name    string `json:"name,omitempty"`
	Exec    string `json:"exec,omitempty"`
}

func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendXDG
	}

	if c.Name == "" {
		c.Name = defaultEntryName
	}

	switch c.Backend {
	case BackendXDG, BackendNone:
		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}
}

// Open builds the configured Service. An empty Exec defaults to the running
// executable.
func Open(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Backend == BackendNone {
		return NopService{}, nil
	}

	execLine := cfg.Exec
	if execLine == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolving executable: %w", err)
		}

		execLine = self
	}

	return NewXDGService(cfg.Dir, cfg.Name, "Device Trust", execLine)
}
