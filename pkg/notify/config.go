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

package notify

import (
	"errors"
	"fmt"

	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/natsutil"
)

const (
	BackendLog  = "log"
	BackendNATS = "nats"
)

var (
	errUnknownBackend  = errors.New("unknown notification backend")
	errNatsURLRequired = errors.New("nats_url is required for the nats notifier")
)

// Config selects where notifications go.
type Config struct {
	Backend string              `json:"backend"`
	NATSURL string              `json:"nats_url,omitempty"`
	NATSTLS *natsutil.TLSConfig `json:"nats_tls,omitempty"`
	Subject string              `json:"subject,omitempty"`
}

func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = BackendLog
	}

	switch c.Backend {
	case BackendLog:
		return nil
	case BackendNATS:
		if c.NATSURL == "" {
			return errNatsURLRequired
		}

		if c.Subject == "" {
			c.Subject = DefaultSubject
		}

		return c.NATSTLS.Validate()
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, c.Backend)
	}
}

// Open returns the configured notifier and a close function for it.
func Open(cfg *Config, log logger.Logger) (Notifier, func() error, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.Backend == BackendLog {
		return NewLogNotifier(log), func() error { return nil }, nil
	}

	opts, err := cfg.NATSTLS.Options()
	if err != nil {
		return nil, nil, err
	}

	n, err := ConnectNATSNotifier(cfg.NATSURL, cfg.Subject, log, opts...)
	if err != nil {
		return nil, nil, err
	}

	return n, n.Close, nil
}
