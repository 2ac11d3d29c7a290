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

// Package config loads the devicetrust configuration document.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/carverauto/devicetrust/pkg/autostart"
	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/notify"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DEVICETRUST_"

	configSourceFile = "file"
	configSourceEnv  = "env"

	defaultOperationTimeout = 30 * time.Second
)

var (
	errInvalidConfigSource = errors.New("invalid CONFIG_SOURCE value")
	errNegativeTimeout     = errors.New("operation_timeout must not be negative")
)

// ConfigLoader fills dst from a configuration source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configuration sections that check themselves.
type Validator interface {
	Validate() error
}

// Config is the devicetrust configuration document.
type Config struct {
	Logging          *logger.Config        `json:"logging"`
	Metrics          *logger.MetricsConfig `json:"metrics,omitempty"`
	Store            kv.Config             `json:"store"`
	Keystore         keystore.Config       `json:"keystore"`
	Autostart        autostart.Config      `json:"autostart"`
	Notifications    notify.Config         `json:"notifications"`
	OperationTimeout Duration              `json:"operation_timeout,omitempty"`
}

// defaultLogging keeps stdout free for command output and only reports
// warnings unless LOG_OUTPUT or LOG_LEVEL say otherwise.
func defaultLogging() *logger.Config {
	cfg := logger.DefaultConfig()

	if os.Getenv("LOG_OUTPUT") == "" {
		cfg.Output = "stderr"
	}

	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Level = "warn"
	}

	return cfg
}

// Default returns a configuration for a single process with nothing persisted.
func Default() *Config {
	return &Config{
		Logging:          defaultLogging(),
		Store:            kv.Config{Backend: kv.BackendMemory},
		Keystore:         keystore.Config{Backend: keystore.BackendMemory},
		Autostart:        autostart.Config{Backend: autostart.BackendXDG},
		Notifications:    notify.Config{Backend: notify.BackendLog},
		OperationTimeout: Duration(defaultOperationTimeout),
	}
}

// Validate fills defaults and checks every section.
func (c *Config) Validate() error {
	if c.Logging == nil {
		c.Logging = logger.DefaultConfig()
	}

	if c.OperationTimeout < 0 {
		return errNegativeTimeout
	}

	if c.OperationTimeout == 0 {
		c.OperationTimeout = Duration(defaultOperationTimeout)
	}

	sections := []struct {
		name string
		v    Validator
	}{
		{"store", &c.Store},
		{"keystore", &c.Keystore},
		{"autostart", &c.Autostart},
		{"notifications", &c.Notifications},
	}

	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	return nil
}

// Load reads the configuration. CONFIG_SOURCE=env reads only the environment;
// otherwise path (when set) is read first and the environment is overlaid on
// top. The result is validated.
func Load(ctx context.Context, path string, log logger.Logger) (*Config, error) {
	cfg := Default()

	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case configSourceFile, "":
		if path != "" {
			if err := (&FileConfigLoader{}).Load(ctx, path, cfg); err != nil {
				return nil, err
			}
		}
	case configSourceEnv:
	default:
		return nil, fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if err := NewEnvConfigLoader(log, EnvPrefix).Load(ctx, path, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
