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

// Package natsutil holds connection settings shared by the NATS backed
// components.
package natsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
)

var (
	// ErrCAParsingFailed is returned when the CA file holds no PEM certificate.
	ErrCAParsingFailed = errors.New("failed to parse CA certificate")

	errIncompleteKeyPair = errors.New("cert_file and key_file must be set together")
)

// TLSConfig configures TLS, and mTLS when a client key pair is given, for a
// NATS connection. Relative paths are resolved against CertDir.
type TLSConfig struct {
	CertDir    string `json:"cert_dir,omitempty"`
	CertFile   string `json:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty"`
	CAFile     string `json:"ca_file,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// Validate rejects a half-configured client key pair.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}

	if (c.CertFile == "") != (c.KeyFile == "") {
		return errIncompleteKeyPair
	}

	return nil
}

func (c *TLSConfig) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.CertDir == "" {
		return p
	}

	return filepath.Join(c.CertDir, p)
}

// Build loads the configured files into a tls.Config.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		ServerName: c.ServerName,
		MinVersion: tls.VersionTLS13,
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.path(c.CertFile), c.path(c.KeyFile))
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		cfg.Certificates = []tls.Certificate{cert}
	}

	if c.CAFile != "" {
		caCert, err := os.ReadFile(c.path(c.CAFile))
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, ErrCAParsingFailed
		}

		cfg.RootCAs = caPool
	}

	return cfg, nil
}

// Options returns the connection options for c. A nil config adds none.
func (c *TLSConfig) Options() ([]nats.Option, error) {
	if c == nil {
		return nil, nil
	}

	tlsConfig, err := c.Build()
	if err != nil {
		return nil, err
	}

	return []nats.Option{nats.Secure(tlsConfig)}, nil
}
