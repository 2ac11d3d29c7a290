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

	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/natsutil"
)

// Backend names accepted in Config.Backend.
const (
	BackendMemory   = "memory"
	BackendNATS     = "nats"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

const defaultBucket = "devicetrust"

// Config selects and configures the durable store.
type Config struct {
	Backend     string              `json:"backend"`
	NATSURL     string              `json:"nats_url,omitempty"`
	NATSTLS     *natsutil.TLSConfig `json:"nats_tls,omitempty"`
	Bucket      string              `json:"bucket,omitempty"`
	PostgresURL string              `json:"postgres_url,omitempty"`
	Redis       RedisConfig         `json:"redis,omitempty"`
}

// Validate checks the backend specific required fields and fills defaults.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendMemory
	}

	if err := c.validateRequiredFields(); err != nil {
		return err
	}

	c.setDefaultBucket()

	return nil
}

// validateRequiredFields checks for mandatory fields of the selected backend.
func (c *Config) validateRequiredFields() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}

		return c.NATSTLS.Validate()
	case BackendPostgres:
		if c.PostgresURL == "" {
			return errPostgresURLRequired
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errRedisURLRequired
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}

	return nil
}

// setDefaultBucket assigns a default bucket name if none is specified.
func (c *Config) setDefaultBucket() {
	if c.Bucket == "" {
		c.Bucket = defaultBucket
	}
}

// Open validates cfg and connects the selected backend.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendNATS:
		opts, err := cfg.NATSTLS.Options()
		if err != nil {
			return nil, err
		}

		return NewNatsStore(ctx, cfg.NATSURL, cfg.Bucket, log, opts...)
	case BackendPostgres:
		return NewPostgresStore(ctx, cfg.PostgresURL, log)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis, log)
	default:
		return NewMemoryStore(), nil
	}
}
